package model

// EncoderColumn is one categorical input column and its fitted category
// list. Category order is fixed at fit time and determines the one-hot
// block layout.
type EncoderColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// OneHotEncoder expands categorical columns into a fixed-width one-hot
// block. It is configured to ignore unknowns: a category not seen at fit
// time encodes as an all-zero block, by the same policy the training
// pipeline used. This is deliberate tolerance, distinct from a schema
// mismatch.
type OneHotEncoder struct {
	columns []EncoderColumn
}

type oneHotPayload struct {
	Columns []EncoderColumn `json:"columns"`
}

// NewOneHotEncoder builds a fitted encoder from per-column category lists.
func NewOneHotEncoder(columns []EncoderColumn) *OneHotEncoder {
	return &OneHotEncoder{columns: columns}
}

func (e *OneHotEncoder) Kind() Kind { return KindOneHot }

// Features returns the input column names the encoder was fit on.
func (e *OneHotEncoder) Features() []string {
	names := make([]string, len(e.columns))
	for i, c := range e.columns {
		names[i] = c.Name
	}
	return names
}

func (e *OneHotEncoder) payload() any { return oneHotPayload{Columns: e.columns} }

// FeatureNames returns the authoritative output column names of the one-hot
// block, in fit order: "<column>_<category>". Downstream models consume
// these names verbatim.
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for _, col := range e.columns {
		for _, cat := range col.Categories {
			names = append(names, col.Name+"_"+cat)
		}
	}
	return names
}

// Transform encodes the given column values into the one-hot block, aligned
// with FeatureNames. A value not in the fitted categories, or an absent
// column, leaves its block all-zero.
func (e *OneHotEncoder) Transform(values map[string]string) []float64 {
	var out []float64
	for _, col := range e.columns {
		val, ok := values[col.Name]
		for _, cat := range col.Categories {
			if ok && val == cat {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

func loadOneHot(dir, file string) (*OneHotEncoder, error) {
	env, err := loadEnvelope(dir, file, KindOneHot)
	if err != nil {
		return nil, err
	}
	var p oneHotPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	return NewOneHotEncoder(p.Columns), nil
}
