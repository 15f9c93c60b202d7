package model

import "fmt"

// MinMaxScaler rescales each column to [0, 1] using the min/max observed at
// fit time. The fitted ranges are part of the artifact: refitting at serving
// time would silently move every downstream decision boundary.
type MinMaxScaler struct {
	features []string
	dataMin  []float64
	dataMax  []float64
}

type minMaxPayload struct {
	DataMin []float64 `json:"data_min"`
	DataMax []float64 `json:"data_max"`
}

// NewMinMaxScaler builds a fitted scaler from per-column minima and maxima.
func NewMinMaxScaler(features []string, dataMin, dataMax []float64) (*MinMaxScaler, error) {
	if len(features) != len(dataMin) || len(features) != len(dataMax) {
		return nil, fmt.Errorf("minmax scaler: %d features but %d/%d bounds", len(features), len(dataMin), len(dataMax))
	}
	return &MinMaxScaler{features: features, dataMin: dataMin, dataMax: dataMax}, nil
}

func (s *MinMaxScaler) Kind() Kind         { return KindMinMaxScaler }
func (s *MinMaxScaler) Features() []string { return s.features }
func (s *MinMaxScaler) payload() any {
	return minMaxPayload{DataMin: s.dataMin, DataMax: s.dataMax}
}

// Transform scales x column-wise into a new slice. A degenerate column
// (max == min at fit time) maps to 0.
func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.features) {
		return nil, fmt.Errorf("minmax scaler: got %d values, fitted on %d columns", len(x), len(s.features))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		span := s.dataMax[i] - s.dataMin[i]
		if span == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - s.dataMin[i]) / span
	}
	return out, nil
}

func loadMinMaxScaler(dir, file string) (*MinMaxScaler, error) {
	env, err := loadEnvelope(dir, file, KindMinMaxScaler)
	if err != nil {
		return nil, err
	}
	var p minMaxPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	s, err := NewMinMaxScaler(env.Features, p.DataMin, p.DataMax)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}
	return s, nil
}
