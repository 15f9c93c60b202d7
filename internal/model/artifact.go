// Package model implements the closed set of trained-artifact variants the
// prediction service can load: a sequence-style level forecaster, tabular
// tree-ensemble regressors, a logistic drought classifier, an unsupervised
// anomaly scorer, two min-max scalers, and a one-hot categorical encoder.
//
// Artifacts are opaque, versioned JSON envelopes produced offline (see
// cmd/genartifacts). Each envelope declares the ordered feature names the
// artifact was fit on; LoadBundle validates every declaration against the
// serving-side feature schema so a drift between training and serving fails
// loudly at startup, before any request is served.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// Kind tags an artifact variant. Dispatch is by tag, never by structural
// similarity of the payloads.
type Kind string

const (
	KindSequenceLinear  Kind = "sequence_linear"
	KindMinMaxScaler    Kind = "minmax_scaler"
	KindBoostedTrees    Kind = "boosted_trees"
	KindRandomForest    Kind = "random_forest"
	KindLogistic        Kind = "logistic"
	KindIsolationForest Kind = "isolation_forest"
	KindOneHot          Kind = "one_hot"
)

// Fixed artifact file names. The bundle refuses to start unless all eight
// are present and readable.
const (
	FileForecaster     = "water_level_forecaster.json"
	FileForecastScaler = "forecast_scaler.json"
	FileRecharge       = "recharge_estimator.json"
	FileExtraction     = "extraction_estimator.json"
	FileRiskClassifier = "drought_risk_classifier.json"
	FileRiskScaler     = "risk_scaler.json"
	FileAnomaly        = "anomaly_detector.json"
	FileEncoder        = "categorical_encoder.json"
)

// envelope is the on-disk form shared by every artifact.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Name          string          `json:"name"`
	Kind          Kind            `json:"kind"`
	Features      []string        `json:"features,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Artifact is the common surface of every loadable variant. The payload
// method is unexported on purpose: the variant set is closed.
type Artifact interface {
	Kind() Kind
	Features() []string
	payload() any
}

// Save writes an artifact to path as a versioned JSON envelope.
func Save(path, name string, a Artifact) error {
	raw, err := json.Marshal(a.payload())
	if err != nil {
		return fmt.Errorf("marshal artifact %s payload: %w", name, err)
	}
	env := envelope{
		SchemaVersion: schema.Version,
		Name:          name,
		Kind:          a.Kind(),
		Features:      a.Features(),
		Payload:       raw,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// loadEnvelope reads and sanity-checks one artifact file.
func loadEnvelope(dir, file string, want Kind) (envelope, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return envelope{}, fmt.Errorf("artifact %s: %w", file, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("artifact %s: corrupt envelope: %w", file, err)
	}
	if env.SchemaVersion != schema.Version {
		return envelope{}, fmt.Errorf("artifact %s: schema version %d, serving expects %d",
			file, env.SchemaVersion, schema.Version)
	}
	if env.Kind != want {
		return envelope{}, fmt.Errorf("artifact %s: kind %q, expected %q", file, env.Kind, want)
	}
	return env, nil
}

func decodePayload(env envelope, file string, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("artifact %s: corrupt payload: %w", file, err)
	}
	return nil
}

// Bundle holds the eight read-only artifacts for the process lifetime.
// Loaded once at startup; concurrent requests read it without locking.
type Bundle struct {
	Forecaster     *SequenceLinear
	ForecastScaler *MinMaxScaler
	Recharge       *BoostedTrees
	Extraction     *RandomForest
	Risk           *Logistic
	RiskScaler     *MinMaxScaler
	Anomaly        *IsolationForest
	Encoder        *OneHotEncoder
}

// LoadBundle reads all eight artifacts from dir and validates their declared
// feature schemas against the serving-side contract. Any missing, corrupt,
// or drifted artifact is a fatal configuration error: there is no partial-
// model degraded mode.
func LoadBundle(dir string) (*Bundle, error) {
	b := &Bundle{}
	var err error

	if b.Encoder, err = loadOneHot(dir, FileEncoder); err != nil {
		return nil, err
	}
	if b.Forecaster, err = loadSequenceLinear(dir, FileForecaster); err != nil {
		return nil, err
	}
	if b.ForecastScaler, err = loadMinMaxScaler(dir, FileForecastScaler); err != nil {
		return nil, err
	}
	if b.Recharge, err = loadBoostedTrees(dir, FileRecharge); err != nil {
		return nil, err
	}
	if b.Extraction, err = loadRandomForest(dir, FileExtraction); err != nil {
		return nil, err
	}
	if b.Risk, err = loadLogistic(dir, FileRiskClassifier); err != nil {
		return nil, err
	}
	if b.RiskScaler, err = loadMinMaxScaler(dir, FileRiskScaler); err != nil {
		return nil, err
	}
	if b.Anomaly, err = loadIsolationForest(dir, FileAnomaly); err != nil {
		return nil, err
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks every artifact's declared feature list against the
// serving-side schema. Fixed-input models must match exactly; tabular
// ensembles may declare any subset of the columns the reconstructor can
// produce (base columns plus the encoder's one-hot block).
func (b *Bundle) Validate() error {
	if err := requireExact(FileForecaster, b.Forecaster.Features(), schema.ForecastFeatures()); err != nil {
		return err
	}
	if err := requireExact(FileForecastScaler, b.ForecastScaler.Features(), schema.ForecastFeatures()); err != nil {
		return err
	}
	if err := requireExact(FileRiskClassifier, b.Risk.Features(), schema.RiskFeatures()); err != nil {
		return err
	}
	if err := requireExact(FileRiskScaler, b.RiskScaler.Features(), schema.RiskFeatures()); err != nil {
		return err
	}
	if err := requireExact(FileAnomaly, b.Anomaly.Features(), schema.AnomalyFeatures()); err != nil {
		return err
	}

	producible := append(schema.BaseColumns(), b.Encoder.FeatureNames()...)
	if err := requireSubset(FileRecharge, b.Recharge.Features(), producible); err != nil {
		return err
	}
	if err := requireSubset(FileExtraction, b.Extraction.Features(), producible); err != nil {
		return err
	}
	return nil
}

func requireExact(file string, got, want []string) error {
	if !slices.Equal(got, want) {
		return fmt.Errorf("artifact %s: feature schema mismatch: declared %v, serving expects %v", file, got, want)
	}
	return nil
}

func requireSubset(file string, declared, producible []string) error {
	for _, name := range declared {
		if !slices.Contains(producible, name) {
			return fmt.Errorf("artifact %s: declares feature %q which the reconstructor cannot produce", file, name)
		}
	}
	return nil
}
