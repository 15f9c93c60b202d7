package model

import (
	"fmt"
	"math"
)

// SequenceLinear is the water-level forecaster: a single-timestep dense
// surrogate for the sequence model trained offline. Input is the ordered
// forecast feature vector already scaled by the dedicated fitted scaler;
// output is the next-period water level in metres.
type SequenceLinear struct {
	features []string
	weights  []float64
	bias     float64
}

type sequenceLinearPayload struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// NewSequenceLinear builds a fitted forecaster from weights and bias.
func NewSequenceLinear(features []string, weights []float64, bias float64) (*SequenceLinear, error) {
	if len(features) != len(weights) {
		return nil, fmt.Errorf("sequence forecaster: %d features but %d weights", len(features), len(weights))
	}
	return &SequenceLinear{features: features, weights: weights, bias: bias}, nil
}

func (m *SequenceLinear) Kind() Kind         { return KindSequenceLinear }
func (m *SequenceLinear) Features() []string { return m.features }
func (m *SequenceLinear) payload() any {
	return sequenceLinearPayload{Weights: m.weights, Bias: m.bias}
}

// Predict returns the next-period level for one scaled feature vector.
func (m *SequenceLinear) Predict(scaled []float64) (float64, error) {
	if len(scaled) != len(m.weights) {
		return 0, fmt.Errorf("sequence forecaster: got %d values, fitted on %d", len(scaled), len(m.weights))
	}
	return dot(m.weights, scaled) + m.bias, nil
}

// Logistic is the drought-risk classifier. The critical-drop threshold (the
// 20th percentile of the training target) is baked in at fit time and kept
// only as audit metadata; serving never recomputes it.
type Logistic struct {
	features      []string
	weights       []float64
	bias          float64
	riskThreshold float64
}

type logisticPayload struct {
	Weights       []float64 `json:"weights"`
	Bias          float64   `json:"bias"`
	RiskThreshold float64   `json:"risk_threshold"`
}

// NewLogistic builds a fitted classifier.
func NewLogistic(features []string, weights []float64, bias, riskThreshold float64) (*Logistic, error) {
	if len(features) != len(weights) {
		return nil, fmt.Errorf("logistic classifier: %d features but %d weights", len(features), len(weights))
	}
	return &Logistic{features: features, weights: weights, bias: bias, riskThreshold: riskThreshold}, nil
}

func (m *Logistic) Kind() Kind         { return KindLogistic }
func (m *Logistic) Features() []string { return m.features }
func (m *Logistic) payload() any {
	return logisticPayload{Weights: m.weights, Bias: m.bias, RiskThreshold: m.riskThreshold}
}

// RiskThreshold returns the fit-time critical-drop threshold, for audit.
func (m *Logistic) RiskThreshold() float64 { return m.riskThreshold }

// PredictProba returns the probability of the positive (high-risk) class
// for one scaled feature vector.
func (m *Logistic) PredictProba(scaled []float64) (float64, error) {
	if len(scaled) != len(m.weights) {
		return 0, fmt.Errorf("logistic classifier: got %d values, fitted on %d", len(scaled), len(m.weights))
	}
	z := dot(m.weights, scaled) + m.bias
	return 1 / (1 + math.Exp(-z)), nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func loadSequenceLinear(dir, file string) (*SequenceLinear, error) {
	env, err := loadEnvelope(dir, file, KindSequenceLinear)
	if err != nil {
		return nil, err
	}
	var p sequenceLinearPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	m, err := NewSequenceLinear(env.Features, p.Weights, p.Bias)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}
	return m, nil
}

func loadLogistic(dir, file string) (*Logistic, error) {
	env, err := loadEnvelope(dir, file, KindLogistic)
	if err != nil {
		return nil, err
	}
	var p logisticPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	m, err := NewLogistic(env.Features, p.Weights, p.Bias, p.RiskThreshold)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}
	return m, nil
}
