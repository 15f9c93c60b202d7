package model

import "fmt"

// TreeNode is one node of a regression tree, stored in a flat array.
// Leaves have Left == -1 and carry the prediction in Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// RegressionTree evaluates a single fitted tree. Samples with
// x[feature] <= threshold descend left.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Predict walks the tree from the root to a leaf.
func (t RegressionTree) Predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// BoostedTrees is the recharge estimator: an additive ensemble whose
// prediction is the base score plus the sum of all tree outputs. Learning
// rate is folded into the leaf values at fit time.
type BoostedTrees struct {
	features  []string
	baseScore float64
	trees     []RegressionTree
}

type boostedTreesPayload struct {
	BaseScore float64          `json:"base_score"`
	Trees     []RegressionTree `json:"trees"`
}

// NewBoostedTrees builds a fitted boosted ensemble.
func NewBoostedTrees(features []string, baseScore float64, trees []RegressionTree) *BoostedTrees {
	return &BoostedTrees{features: features, baseScore: baseScore, trees: trees}
}

func (m *BoostedTrees) Kind() Kind         { return KindBoostedTrees }
func (m *BoostedTrees) Features() []string { return m.features }
func (m *BoostedTrees) payload() any {
	return boostedTreesPayload{BaseScore: m.baseScore, Trees: m.trees}
}

// Predict returns the additive ensemble output for one feature vector,
// ordered as Features().
func (m *BoostedTrees) Predict(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("boosted trees: got %d values, fitted on %d", len(x), len(m.features))
	}
	sum := m.baseScore
	for _, t := range m.trees {
		sum += t.Predict(x)
	}
	return sum, nil
}

// RandomForest is the extraction-budget estimator: a bagged ensemble whose
// prediction is the mean of all tree outputs.
type RandomForest struct {
	features []string
	trees    []RegressionTree
}

type randomForestPayload struct {
	Trees []RegressionTree `json:"trees"`
}

// NewRandomForest builds a fitted forest.
func NewRandomForest(features []string, trees []RegressionTree) *RandomForest {
	return &RandomForest{features: features, trees: trees}
}

func (m *RandomForest) Kind() Kind         { return KindRandomForest }
func (m *RandomForest) Features() []string { return m.features }
func (m *RandomForest) payload() any       { return randomForestPayload{Trees: m.trees} }

// Predict returns the mean tree output for one feature vector, ordered as
// Features().
func (m *RandomForest) Predict(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("random forest: got %d values, fitted on %d", len(x), len(m.features))
	}
	if len(m.trees) == 0 {
		return 0, fmt.Errorf("random forest: empty ensemble")
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(m.trees)), nil
}

func loadBoostedTrees(dir, file string) (*BoostedTrees, error) {
	env, err := loadEnvelope(dir, file, KindBoostedTrees)
	if err != nil {
		return nil, err
	}
	var p boostedTreesPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	return NewBoostedTrees(env.Features, p.BaseScore, p.Trees), nil
}

func loadRandomForest(dir, file string) (*RandomForest, error) {
	env, err := loadEnvelope(dir, file, KindRandomForest)
	if err != nil {
		return nil, err
	}
	var p randomForestPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	return NewRandomForest(env.Features, p.Trees), nil
}
