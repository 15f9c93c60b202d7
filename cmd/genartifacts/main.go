// Command genartifacts fits the seven remaining model artifacts from the
// prepared CSV produced by cmd/prepare (the eighth, the categorical
// encoder, is fitted there). It stands in for the offline training
// pipeline so the serving stack always has real, schema-stamped artifacts
// to load and the test suites have fixtures with real provenance.
//
// Usage:
//
//	go run ./cmd/genartifacts -data data/prepared_data.csv -out artifacts
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

const (
	boostRounds       = 60
	boostLearningRate = 0.1
	forestTrees       = 25
	forestMaxDepth    = 5
	forestMinLeaf     = 5
	isoTrees          = 100
	isoSampleSize     = 256
	riskQuantile      = 0.20
	logisticIters     = 800
	logisticRate      = 0.5
	randomSeed        = 42
)

func main() {
	data := flag.String("data", "data/prepared_data.csv", "prepared CSV from cmd/prepare")
	out := flag.String("out", "artifacts", "output directory for artifact files")
	flag.Parse()

	if err := run(*data, *out); err != nil {
		log.Fatal(err)
	}
}

func run(dataPath, outDir string) error {
	frame, err := loadFrame(dataPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(randomSeed))

	forecastScaler, forecaster, err := fitForecaster(frame)
	if err != nil {
		return err
	}
	riskScaler, classifier, err := fitRiskClassifier(frame)
	if err != nil {
		return err
	}
	recharge, err := fitRecharge(frame)
	if err != nil {
		return err
	}
	extraction, err := fitExtraction(frame, rng)
	if err != nil {
		return err
	}
	anomaly, err := fitAnomaly(frame, rng)
	if err != nil {
		return err
	}

	saves := []struct {
		file string
		name string
		a    model.Artifact
	}{
		{model.FileForecastScaler, "forecast_scaler", forecastScaler},
		{model.FileForecaster, "water_level_forecaster", forecaster},
		{model.FileRiskScaler, "risk_scaler", riskScaler},
		{model.FileRiskClassifier, "drought_risk_classifier", classifier},
		{model.FileRecharge, "recharge_estimator", recharge},
		{model.FileExtraction, "extraction_estimator", extraction},
		{model.FileAnomaly, "anomaly_detector", anomaly},
	}
	for _, s := range saves {
		path := filepath.Join(outDir, s.file)
		if err := model.Save(path, s.name, s.a); err != nil {
			return err
		}
		log.Printf("saved %s", path)
	}
	return nil
}

// frame is a column-oriented view of the prepared CSV.
type frame struct {
	order   []string
	columns map[string][]float64
	rows    int
}

func (f *frame) column(name string) ([]float64, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("prepared data: missing column %q", name)
	}
	return col, nil
}

// matrix extracts the named columns as row vectors.
func (f *frame) matrix(names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		col, err := f.column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	rows := make([][]float64, f.rows)
	for r := 0; r < f.rows; r++ {
		row := make([]float64, len(names))
		for c := range names {
			row[c] = cols[c][r]
		}
		rows[r] = row
	}
	return rows, nil
}

func loadFrame(path string) (*frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	header := records[0]
	f := &frame{columns: make(map[string][]float64), rows: len(records) - 1}
	for c, name := range header {
		name = strings.TrimSpace(name)
		if name == "Date" {
			continue
		}
		col := make([]float64, f.rows)
		for r, row := range records[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", path, r+2, name, err)
			}
			col[r] = v
		}
		f.order = append(f.order, name)
		f.columns[name] = col
	}
	return f, nil
}

// tabularFeatures is the feature list the tree ensembles are fit on: the
// slow environmental and static columns plus the full one-hot block, read
// from the prepared data's column order so the artifact declares exactly
// what it saw.
func (f *frame) tabularFeatures() []string {
	fixed := []string{
		schema.WaterLevel, schema.Rainfall30Days, schema.PET30Days, schema.AvgTempC,
		schema.Elevation, schema.Lat, schema.Lon,
	}
	var oneHot []string
	for _, name := range f.order {
		if strings.HasPrefix(name, schema.SoilType+"_") || strings.HasPrefix(name, schema.LULC+"_") {
			oneHot = append(oneHot, name)
		}
	}
	return append(fixed, oneHot...)
}

// fitMinMax computes per-column minima and maxima.
func fitMinMax(f *frame, features []string) (*model.MinMaxScaler, error) {
	mins := make([]float64, len(features))
	maxs := make([]float64, len(features))
	for i, name := range features {
		col, err := f.column(name)
		if err != nil {
			return nil, err
		}
		mins[i], maxs[i] = col[0], col[0]
		for _, v := range col {
			mins[i] = math.Min(mins[i], v)
			maxs[i] = math.Max(maxs[i], v)
		}
	}
	return model.NewMinMaxScaler(features, mins, maxs)
}

// fitForecaster fits the min-max scaler and the next-period level model:
// least squares of level[t+1] on the scaled forecast features at t.
func fitForecaster(f *frame) (*model.MinMaxScaler, *model.SequenceLinear, error) {
	features := schema.ForecastFeatures()
	scaler, err := fitMinMax(f, features)
	if err != nil {
		return nil, nil, err
	}

	rows, err := f.matrix(features)
	if err != nil {
		return nil, nil, err
	}
	level, err := f.column(schema.WaterLevel)
	if err != nil {
		return nil, nil, err
	}

	n := f.rows - 1
	if n < len(features)+1 {
		return nil, nil, fmt.Errorf("forecaster: %d training rows, need at least %d", n, len(features)+1)
	}

	// Design matrix with an intercept column.
	x := mat.NewDense(n, len(features)+1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		scaled, err := scaler.Transform(rows[i])
		if err != nil {
			return nil, nil, err
		}
		for j, v := range scaled {
			x.Set(i, j, v)
		}
		x.Set(i, len(features), 1)
		y.SetVec(i, level[i+1])
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return nil, nil, fmt.Errorf("forecaster: least squares: %w", err)
	}

	weights := make([]float64, len(features))
	for j := range weights {
		weights[j] = beta.AtVec(j)
	}
	forecaster, err := model.NewSequenceLinear(features, weights, beta.AtVec(len(features)))
	if err != nil {
		return nil, nil, err
	}
	return scaler, forecaster, nil
}

// fitRiskClassifier derives the binary critical-drop label from the 20th
// percentile of the training target, scales the risk features, and fits a
// logistic regression by gradient descent. The threshold is stamped into
// the artifact for audit.
func fitRiskClassifier(f *frame) (*model.MinMaxScaler, *model.Logistic, error) {
	features := schema.RiskFeatures()
	scaler, err := fitMinMax(f, features)
	if err != nil {
		return nil, nil, err
	}

	target, err := f.column(schema.TargetRecharge)
	if err != nil {
		return nil, nil, err
	}
	sorted := append([]float64(nil), target...)
	sort.Float64s(sorted)
	threshold := stat.Quantile(riskQuantile, stat.Empirical, sorted, nil)

	rows, err := f.matrix(features)
	if err != nil {
		return nil, nil, err
	}

	scaled := make([][]float64, len(rows))
	labels := make([]float64, len(rows))
	for i, row := range rows {
		if scaled[i], err = scaler.Transform(row); err != nil {
			return nil, nil, err
		}
		if target[i] < threshold {
			labels[i] = 1
		}
	}

	weights := make([]float64, len(features))
	var bias float64
	n := float64(len(scaled))
	for iter := 0; iter < logisticIters; iter++ {
		grad := make([]float64, len(features))
		var gradBias float64
		for i, row := range scaled {
			z := bias
			for j, w := range weights {
				z += w * row[j]
			}
			residual := 1/(1+math.Exp(-z)) - labels[i]
			for j := range grad {
				grad[j] += residual * row[j]
			}
			gradBias += residual
		}
		for j := range weights {
			weights[j] -= logisticRate * grad[j] / n
		}
		bias -= logisticRate * gradBias / n
	}

	classifier, err := model.NewLogistic(features, weights, bias, threshold)
	if err != nil {
		return nil, nil, err
	}
	return scaler, classifier, nil
}

// fitRecharge fits gradient-boosted stumps on the 30-day net level change.
func fitRecharge(f *frame) (*model.BoostedTrees, error) {
	features := f.tabularFeatures()
	rows, err := f.matrix(features)
	if err != nil {
		return nil, err
	}
	target, err := f.column(schema.TargetRecharge)
	if err != nil {
		return nil, err
	}

	base := stat.Mean(target, nil)
	residual := make([]float64, len(target))
	for i, v := range target {
		residual[i] = v - base
	}

	trees := make([]model.RegressionTree, 0, boostRounds)
	for round := 0; round < boostRounds; round++ {
		stump, ok := fitStump(rows, residual)
		if !ok {
			break
		}
		trees = append(trees, stump)
		for i, row := range rows {
			residual[i] -= stump.Predict(row)
		}
	}
	return model.NewBoostedTrees(features, base, trees), nil
}

// fitStump finds the single split minimizing SSE across all features and
// returns a three-node tree with the learning rate folded into the leaves.
func fitStump(rows [][]float64, residual []float64) (model.RegressionTree, bool) {
	n := len(rows)
	bestSSE := math.Inf(1)
	bestFeature := -1
	var bestThreshold float64

	order := make([]int, n)
	for feature := 0; feature < len(rows[0]); feature++ {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return rows[order[a]][feature] < rows[order[b]][feature] })

		// Prefix sums over the sorted residuals.
		var sumL, sqL float64
		var sumT, sqT float64
		for _, i := range order {
			sumT += residual[i]
			sqT += residual[i] * residual[i]
		}
		for k := 0; k < n-1; k++ {
			i := order[k]
			sumL += residual[i]
			sqL += residual[i] * residual[i]
			// Can't split between equal values.
			if rows[order[k]][feature] == rows[order[k+1]][feature] {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			sseL := sqL - sumL*sumL/nl
			sseR := (sqT - sqL) - (sumT-sumL)*(sumT-sumL)/nr
			if sse := sseL + sseR; sse < bestSSE {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (rows[order[k]][feature] + rows[order[k+1]][feature]) / 2
			}
		}
	}
	if bestFeature < 0 {
		return model.RegressionTree{}, false
	}

	var sumL, sumR float64
	var nl, nr float64
	for i, row := range rows {
		if row[bestFeature] <= bestThreshold {
			sumL += residual[i]
			nl++
		} else {
			sumR += residual[i]
			nr++
		}
	}

	return model.RegressionTree{Nodes: []model.TreeNode{
		{Feature: bestFeature, Threshold: bestThreshold, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: boostLearningRate * sumL / nl},
		{Left: -1, Right: -1, Value: boostLearningRate * sumR / nr},
	}}, true
}

// fitExtraction derives the simulated extraction target
// clip(level × (rainfall − PET) / 10, 0) and fits a bagged forest.
func fitExtraction(f *frame, rng *rand.Rand) (*model.RandomForest, error) {
	level, err := f.column(schema.WaterLevel)
	if err != nil {
		return nil, err
	}
	rain, err := f.column(schema.RainfallMM)
	if err != nil {
		return nil, err
	}
	pet, err := f.column(schema.PETMM)
	if err != nil {
		return nil, err
	}

	target := make([]float64, f.rows)
	for i := range target {
		target[i] = math.Max(0, level[i]*(rain[i]-pet[i])/10)
	}

	features := f.tabularFeatures()
	rows, err := f.matrix(features)
	if err != nil {
		return nil, err
	}

	trees := make([]model.RegressionTree, 0, forestTrees)
	for t := 0; t < forestTrees; t++ {
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = rng.Intn(len(rows))
		}
		b := &treeBuilder{rows: rows, target: target, rng: rng}
		b.grow(idx, 0)
		trees = append(trees, model.RegressionTree{Nodes: b.nodes})
	}
	return model.NewRandomForest(features, trees), nil
}

// treeBuilder grows one CART regression tree into a flat node array.
type treeBuilder struct {
	rows   [][]float64
	target []float64
	rng    *rand.Rand
	nodes  []model.TreeNode
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	if depth >= forestMaxDepth || len(idx) < 2*forestMinLeaf {
		return b.leaf(idx)
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(idx)
	}

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < forestMinLeaf || len(right) < forestMinLeaf {
		return b.leaf(idx)
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, model.TreeNode{Feature: feature, Threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[node].Left = l
	b.nodes[node].Right = r
	return node
}

func (b *treeBuilder) leaf(idx []int) int {
	var sum float64
	for _, i := range idx {
		sum += b.target[i]
	}
	node := len(b.nodes)
	b.nodes = append(b.nodes, model.TreeNode{Left: -1, Right: -1, Value: sum / float64(len(idx))})
	return node
}

// bestSplit scans a random third of the features for the SSE-minimizing
// threshold over the given sample.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	nFeatures := len(b.rows[0])
	mtry := max(1, nFeatures/3)
	candidates := b.rng.Perm(nFeatures)[:mtry]

	bestSSE := math.Inf(1)
	bestFeature := -1
	var bestThreshold float64

	sorted := make([]int, len(idx))
	for _, feature := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.rows[sorted[a]][feature] < b.rows[sorted[c]][feature] })

		var sumL, sqL, sumT, sqT float64
		for _, i := range sorted {
			sumT += b.target[i]
			sqT += b.target[i] * b.target[i]
		}
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			sumL += b.target[i]
			sqL += b.target[i] * b.target[i]
			if b.rows[sorted[k]][feature] == b.rows[sorted[k+1]][feature] {
				continue
			}
			nl, nr := float64(k+1), float64(len(sorted)-k-1)
			sseL := sqL - sumL*sumL/nl
			sseR := (sqT - sqL) - (sumT-sumL)*(sumT-sumL)/nr
			if sse := sseL + sseR; sse < bestSSE {
				bestSSE = sse
				bestFeature = feature
				bestThreshold = (b.rows[sorted[k]][feature] + b.rows[sorted[k+1]][feature]) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// fitAnomaly grows the isolation forest over the anomaly feature set.
func fitAnomaly(f *frame, rng *rand.Rand) (*model.IsolationForest, error) {
	features := schema.AnomalyFeatures()
	rows, err := f.matrix(features)
	if err != nil {
		return nil, err
	}

	sampleSize := min(isoSampleSize, len(rows))
	heightLimit := int(math.Ceil(math.Log2(float64(sampleSize))))

	trees := make([]model.IsoTree, 0, isoTrees)
	for t := 0; t < isoTrees; t++ {
		sample := make([]int, sampleSize)
		for i := range sample {
			sample[i] = rng.Intn(len(rows))
		}
		b := &isoBuilder{rows: rows, rng: rng, heightLimit: heightLimit}
		b.grow(sample, 0)
		trees = append(trees, model.IsoTree{Nodes: b.nodes})
	}
	return model.NewIsolationForest(features, trees, sampleSize)
}

type isoBuilder struct {
	rows        [][]float64
	rng         *rand.Rand
	heightLimit int
	nodes       []model.IsoNode
}

func (b *isoBuilder) grow(idx []int, depth int) int {
	if depth >= b.heightLimit || len(idx) <= 1 {
		return b.leaf(idx)
	}

	feature := b.rng.Intn(len(b.rows[0]))
	lo, hi := b.rows[idx[0]][feature], b.rows[idx[0]][feature]
	for _, i := range idx {
		lo = math.Min(lo, b.rows[i][feature])
		hi = math.Max(hi, b.rows[i][feature])
	}
	if lo == hi {
		return b.leaf(idx)
	}
	threshold := lo + b.rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node := len(b.nodes)
	b.nodes = append(b.nodes, model.IsoNode{Feature: feature, Threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[node].Left = l
	b.nodes[node].Right = r
	return node
}

func (b *isoBuilder) leaf(idx []int) int {
	node := len(b.nodes)
	b.nodes = append(b.nodes, model.IsoNode{Left: -1, Right: -1, Size: len(idx)})
	return node
}
