package schema

import "fmt"

// MissingFeatureError reports a feature vector that lacks a column a model
// was fit on. It is a per-request hard failure: padding the column with a
// default would corrupt the prediction invisibly.
type MissingFeatureError struct {
	Model   string
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("schema mismatch: model %q requires feature %q, not present in reconstructed vector", e.Model, e.Feature)
}

// Vector is an ordered mapping from feature name to value. Insertion order
// is preserved so the full vector can be written out in a stable column
// order; model inputs are selected by name in the order the model declares.
type Vector struct {
	names  []string
	values map[string]float64
}

// NewVector returns an empty feature vector.
func NewVector() *Vector {
	return &Vector{values: make(map[string]float64)}
}

// Set stores a feature value, appending the name on first write.
func (v *Vector) Set(name string, value float64) {
	if _, ok := v.values[name]; !ok {
		v.names = append(v.names, name)
	}
	v.values[name] = value
}

// Get returns the value for name and whether it is present.
func (v *Vector) Get(name string) (float64, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Names returns the feature names in insertion order.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of features in the vector.
func (v *Vector) Len() int { return len(v.names) }

// Select extracts the named features in the given order, for the given
// model. Extra columns in the vector are ignored (order-preserving column
// intersection); a missing column is a *MissingFeatureError.
func (v *Vector) Select(model string, features []string) ([]float64, error) {
	out := make([]float64, len(features))
	for i, name := range features {
		val, ok := v.values[name]
		if !ok {
			return nil, &MissingFeatureError{Model: model, Feature: name}
		}
		out[i] = val
	}
	return out, nil
}
