package model

import (
	"fmt"
	"math"
)

// IsoNode is one node of an isolation tree. Leaves have Left == -1 and
// record the number of training samples that reached them, which extends
// the path length by the expected depth of an unbuilt subtree.
type IsoNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Size      int     `json:"size"`
}

// IsoTree is a single isolation tree stored as a flat node array.
type IsoTree struct {
	Nodes []IsoNode `json:"nodes"`
}

func (t IsoTree) pathLength(x []float64) float64 {
	i, depth := 0, 0
	for t.Nodes[i].Left >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		depth++
	}
	return float64(depth) + avgPathLength(t.Nodes[i].Size)
}

// IsolationForest scores observations on the detector's native decision
// scale: 0.5 − 2^(−E[h(x)]/c(ψ)), negative for isolates. The serving-time
// anomaly threshold is configuration, not part of the artifact.
type IsolationForest struct {
	features   []string
	trees      []IsoTree
	sampleSize int
}

type isolationForestPayload struct {
	SampleSize int       `json:"sample_size"`
	Trees      []IsoTree `json:"trees"`
}

// NewIsolationForest builds a fitted forest. sampleSize is the sub-sample
// size ψ each tree was grown on.
func NewIsolationForest(features []string, trees []IsoTree, sampleSize int) (*IsolationForest, error) {
	if sampleSize < 2 {
		return nil, fmt.Errorf("isolation forest: sample size %d too small", sampleSize)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("isolation forest: empty ensemble")
	}
	return &IsolationForest{features: features, trees: trees, sampleSize: sampleSize}, nil
}

func (m *IsolationForest) Kind() Kind         { return KindIsolationForest }
func (m *IsolationForest) Features() []string { return m.features }
func (m *IsolationForest) payload() any {
	return isolationForestPayload{SampleSize: m.sampleSize, Trees: m.trees}
}

// Score returns the decision-function value for one feature vector, ordered
// as Features(). Values below the configured threshold mark an anomaly.
func (m *IsolationForest) Score(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("isolation forest: got %d values, fitted on %d", len(x), len(m.features))
	}
	var total float64
	for _, t := range m.trees {
		total += t.pathLength(x)
	}
	mean := total / float64(len(m.trees))
	anomalyScore := math.Pow(2, -mean/avgPathLength(m.sampleSize))
	return 0.5 - anomalyScore, nil
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n samples. Used both to normalize scores and to extend paths
// at truncated leaves.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649015329 // harmonic number approximation
	return 2*h - 2*float64(n-1)/float64(n)
}

func loadIsolationForest(dir, file string) (*IsolationForest, error) {
	env, err := loadEnvelope(dir, file, KindIsolationForest)
	if err != nil {
		return nil, err
	}
	var p isolationForestPayload
	if err := decodePayload(env, file, &p); err != nil {
		return nil, err
	}
	m, err := NewIsolationForest(env.Features, p.Trees, p.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", file, err)
	}
	return m, nil
}
