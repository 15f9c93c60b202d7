// Command prepare turns a cleaned, time-indexed well-sensor CSV into the
// model-ready table the training tools consume. It computes the true
// rolling and lag features over the historical window (the serving-time
// reconstructor later approximates these from a single observation), fits
// the one-hot categorical encoder, and writes both the prepared CSV and the
// encoder artifact.
//
// Usage:
//
//	go run ./cmd/prepare \
//	  -in data/cleaned_readings.csv \
//	  -out data/prepared_data.csv \
//	  -artifact-dir artifacts
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// Window lengths of the offline feature engineering. Must stay in lockstep
// with the serving-time approximations in the features package.
const (
	shortWindow = 7
	longWindow  = 30
)

type reading struct {
	date       time.Time
	waterLevel float64
	rainfall   float64
	pet        float64
	avgTemp    float64
	lat        float64
	lon        float64
	elevation  float64
	soilType   string
	lulc       string
}

func main() {
	in := flag.String("in", "", "cleaned input CSV (Date, Water_Level, Rainfall_mm, PET_mm, Avg_Temp_C, Lat, Lon, Elevation, Soil_Type, LULC)")
	out := flag.String("out", "data/prepared_data.csv", "output path for the model-ready CSV")
	artifactDir := flag.String("artifact-dir", "artifacts", "directory for the fitted encoder artifact")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*in, *out, *artifactDir); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath, artifactDir string) error {
	readings, err := loadReadings(inPath)
	if err != nil {
		return err
	}

	readings = filterPrimaryStation(readings)
	if len(readings) <= longWindow {
		return fmt.Errorf("need more than %d readings after station filtering, got %d", longWindow, len(readings))
	}

	encoder := fitEncoder(readings)
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return err
	}
	encoderPath := filepath.Join(artifactDir, model.FileEncoder)
	if err := model.Save(encoderPath, "categorical_encoder", encoder); err != nil {
		return err
	}
	log.Printf("encoder fitted and saved: %s", encoderPath)

	if err := writePrepared(outPath, readings, encoder); err != nil {
		return err
	}
	log.Printf("prepared data written: %s (%d rows)", outPath, len(readings)-longWindow+1)
	return nil
}

// loadReadings parses the cleaned CSV, sorts by date, and keeps the last
// measurement when a date appears more than once.
func loadReadings(path string) ([]reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		colIdx[strings.TrimSpace(name)] = i
	}

	byDate := make(map[time.Time]reading)
	for _, row := range rows[1:] {
		r, err := parseReading(row, colIdx)
		if err != nil {
			return nil, err
		}
		byDate[r.date] = r // keep last per date
	}

	readings := make([]reading, 0, len(byDate))
	for _, r := range byDate {
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].date.Before(readings[j].date) })
	return readings, nil
}

func parseReading(row []string, colIdx map[string]int) (reading, error) {
	get := func(col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	getF := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(get(col), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return v, nil
	}

	date, err := time.Parse("2006-01-02", get("Date"))
	if err != nil {
		return reading{}, fmt.Errorf("column Date: %w", err)
	}

	r := reading{date: date, soilType: get(schema.SoilType), lulc: get(schema.LULC)}
	if r.waterLevel, err = getF(schema.WaterLevel); err != nil {
		return reading{}, err
	}
	if r.rainfall, err = getF(schema.RainfallMM); err != nil {
		return reading{}, err
	}
	if r.pet, err = getF(schema.PETMM); err != nil {
		return reading{}, err
	}
	if r.avgTemp, err = getF(schema.AvgTempC); err != nil {
		return reading{}, err
	}
	if r.lat, err = getF(schema.Lat); err != nil {
		return reading{}, err
	}
	if r.lon, err = getF(schema.Lon); err != nil {
		return reading{}, err
	}
	if r.elevation, err = getF(schema.Elevation); err != nil {
		return reading{}, err
	}
	return r, nil
}

// filterPrimaryStation keeps only the most frequent (lat, lon) pair when
// the input mixes multiple stations: the window features are only
// meaningful over a single station's series.
func filterPrimaryStation(readings []reading) []reading {
	type coord struct{ lat, lon float64 }
	counts := make(map[coord]int)
	for _, r := range readings {
		counts[coord{r.lat, r.lon}]++
	}
	if len(counts) <= 1 {
		return readings
	}

	var best coord
	bestCount := -1
	for c, n := range counts {
		if n > bestCount {
			best, bestCount = c, n
		}
	}

	out := readings[:0]
	for _, r := range readings {
		if r.lat == best.lat && r.lon == best.lon {
			out = append(out, r)
		}
	}
	log.Printf("filtered to primary station at lat %.4f lon %.4f (%d rows)", best.lat, best.lon, len(out))
	return out
}

// fitEncoder collects the sorted unique categories per categorical column.
func fitEncoder(readings []reading) *model.OneHotEncoder {
	soil := make(map[string]struct{})
	lulc := make(map[string]struct{})
	for _, r := range readings {
		soil[r.soilType] = struct{}{}
		lulc[r.lulc] = struct{}{}
	}
	return model.NewOneHotEncoder([]model.EncoderColumn{
		{Name: schema.SoilType, Categories: sortedKeys(soil)},
		{Name: schema.LULC, Categories: sortedKeys(lulc)},
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writePrepared computes the window features and writes the model-ready
// table. Rows without a complete 30-observation trailing window are
// dropped; the 30-day-ahead target is filled with 0 where the series ends,
// matching the training pipeline's fill policy.
func writePrepared(path string, readings []reading, encoder *model.OneHotEncoder) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"Date"}, schema.BaseColumns()...)
	header = append(header, schema.TargetRecharge)
	header = append(header, encoder.FeatureNames()...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := longWindow - 1; i < len(readings); i++ {
		r := readings[i]

		rain7 := trailingSum(readings, i, shortWindow, func(r reading) float64 { return r.rainfall })
		rain30 := trailingSum(readings, i, longWindow, func(r reading) float64 { return r.rainfall })
		pet30 := trailingSum(readings, i, longWindow, func(r reading) float64 { return r.pet })
		prevLevel := readings[i-1].waterLevel

		// Target_Recharge = level[i] − level[i+30], 0 past the series end.
		target := 0.0
		if i+longWindow < len(readings) {
			target = r.waterLevel - readings[i+longWindow].waterLevel
		}

		row := []string{
			r.date.Format("2006-01-02"),
			formatF(r.waterLevel), formatF(r.rainfall), formatF(r.avgTemp), formatF(r.pet),
			formatF(r.lat), formatF(r.lon), formatF(r.elevation),
			formatF(prevLevel), formatF(rain7), formatF(rain30), formatF(pet30),
			formatF(levelChangeRate(readings, i)),
			formatF(target),
		}
		block := encoder.Transform(map[string]string{
			schema.SoilType: r.soilType,
			schema.LULC:     r.lulc,
		})
		for _, v := range block {
			row = append(row, formatF(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func trailingSum(readings []reading, i, window int, field func(reading) float64) float64 {
	var sum float64
	for j := i - window + 1; j <= i; j++ {
		sum += field(readings[j])
	}
	return sum
}

// levelChangeRate is the first difference of the water level, 0 for the
// first row of the series. The serving-time reconstructor fixes this at 0.
func levelChangeRate(readings []reading, i int) float64 {
	if i == 0 {
		return 0
	}
	return readings[i].waterLevel - readings[i-1].waterLevel
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
