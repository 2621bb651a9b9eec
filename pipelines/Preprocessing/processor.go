package preprocessing

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/weatherops/raincast/pipelines"
	"github.com/weatherops/raincast/utils"
)

// Well-known columns of the raw weather dataset
const (
	DateColumn   = "Date"
	TargetColumn = "RainTomorrow"

	dateLayout = "2006-01-02"
)

// CategoricalColumns are the columns replaced by integer codes. The set
// matches the documented schema of the source file; columns absent from
// a particular file are skipped.
var CategoricalColumns = []string{
	"Location",
	"WindGustDir",
	"WindDir9am",
	"WindDir3pm",
	"RainToday",
	TargetColumn,
}

// Config holds the parameters of a preprocessing run
type Config struct {
	RandomSeed int64
	TestSize   float64 // fraction held out for evaluation, e.g. 0.2
}

// DefaultConfig returns the reproducible defaults used by the pipeline
func DefaultConfig() Config {
	return Config{RandomSeed: 42, TestSize: 0.2}
}

// DataProcessor runs the preprocessing stage: load, date expansion,
// label encoding, seeded split, train-mean imputation, persistence.
type DataProcessor struct {
	inputPath  string
	outputPath string
	config     Config
	logger     *utils.Logger

	ds       *Dataset
	encoders *EncoderSet
}

// NewDataProcessor creates a preprocessing stage for one raw file
func NewDataProcessor(inputPath, outputPath string, config Config) *DataProcessor {
	return &DataProcessor{
		inputPath:  inputPath,
		outputPath: outputPath,
		config:     config,
		logger:     utils.GetLogger(),
	}
}

// Run executes the stage end to end. Any failure aborts the run; there
// are no partial-success semantics.
func (dp *DataProcessor) Run(ctx context.Context) error {
	if err := dp.load(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dp.preprocess(); err != nil {
		return err
	}
	if err := dp.encode(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dp.split(); err != nil {
		return err
	}
	dp.logger.Info("Data processing completed",
		utils.Component("preprocessing"),
		utils.Int("rows", dp.ds.NumRows()),
		utils.Int("columns", len(dp.ds.Columns)))
	return nil
}

// EncoderSet returns the fitted mapping artifact after Run
func (dp *DataProcessor) EncoderSet() *EncoderSet {
	return dp.encoders
}

func (dp *DataProcessor) load() error {
	ds, err := LoadCSV(dp.inputPath)
	if err != nil {
		dp.logger.Error("Failed to load raw data", err, utils.Component("preprocessing"))
		return err
	}
	dp.ds = ds
	dp.logger.Info("Data loaded",
		utils.Component("preprocessing"),
		utils.String("path", dp.inputPath),
		utils.Int("rows", ds.NumRows()),
		utils.Int("columns", len(ds.Columns)))
	return nil
}

// preprocess expands Date into Year/Month/Day, drops rows without a
// usable target and drops rows whose categorical cells cannot be encoded
func (dp *DataProcessor) preprocess() error {
	ds := dp.ds

	dateIdx := ds.ColumnIndex(DateColumn)
	if dateIdx < 0 {
		return pipelines.NewTransformationError(DateColumn, "", "date column not found", nil)
	}
	if ds.ColumnIndex(TargetColumn) < 0 {
		return pipelines.NewTransformationError(TargetColumn, "", "target column not found", nil)
	}

	// Rows without a date cannot be expanded
	ds.FilterRows(func(row []string) bool {
		return !IsMissing(row[dateIdx])
	})

	years := make([]string, ds.NumRows())
	months := make([]string, ds.NumRows())
	days := make([]string, ds.NumRows())
	for i, row := range ds.Rows {
		parsed, err := time.Parse(dateLayout, row[dateIdx])
		if err != nil {
			return pipelines.NewTransformationError(DateColumn, row[dateIdx], "unparseable date", err)
		}
		years[i] = strconv.Itoa(parsed.Year())
		months[i] = strconv.Itoa(int(parsed.Month()))
		days[i] = strconv.Itoa(parsed.Day())
	}
	ds.AppendColumn("Year", years)
	ds.AppendColumn("Month", months)
	ds.AppendColumn("Day", days)
	ds.DropColumn(DateColumn)

	// Missing targets are dropped before the split, never imputed
	targetIdx := ds.ColumnIndex(TargetColumn)
	before := ds.NumRows()
	ds.FilterRows(func(row []string) bool {
		return !IsMissing(row[targetIdx])
	})

	// Categorical cells have no mean to impute with; rows missing one
	// are dropped as well
	catIndices := []int{}
	for _, col := range CategoricalColumns {
		if idx := ds.ColumnIndex(col); idx >= 0 {
			catIndices = append(catIndices, idx)
		}
	}
	ds.FilterRows(func(row []string) bool {
		for _, idx := range catIndices {
			if IsMissing(row[idx]) {
				return false
			}
		}
		return true
	})

	dp.logger.Info("Basic preprocessing completed",
		utils.Component("preprocessing"),
		utils.Int("dropped_rows", before-ds.NumRows()))
	return nil
}

// encode fits a deterministic label encoder per categorical column and
// replaces the cells with integer codes
func (dp *DataProcessor) encode() error {
	ds := dp.ds
	encoders := make(map[string]*LabelEncoder)

	for _, col := range CategoricalColumns {
		idx := ds.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		encoder := FitLabelEncoder(col, ds.Column(col))
		for _, row := range ds.Rows {
			code, err := encoder.Encode(row[idx])
			if err != nil {
				return err
			}
			row[idx] = strconv.Itoa(code)
		}
		encoders[col] = encoder
		dp.logger.Info("Label mapping fitted",
			utils.Component("preprocessing"),
			utils.String("column", col),
			utils.Int("classes", encoder.NumClasses()))
	}

	featureOrder := []string{}
	for _, col := range ds.Columns {
		if col != TargetColumn {
			featureOrder = append(featureOrder, col)
		}
	}

	// Everything feeding the matrix must now parse as a number
	for _, col := range featureOrder {
		if !ds.IsNumericColumn(col) {
			return pipelines.NewTransformationError(col, "",
				"column is neither numeric nor in the categorical set", nil)
		}
	}
	dp.encoders = &EncoderSet{
		Encoders:     encoders,
		FeatureOrder: featureOrder,
		TargetColumn: TargetColumn,
	}
	return nil
}

// split shuffles with the configured seed, partitions 80/20, imputes
// numeric gaps with the training-partition column mean and persists the
// four partitions plus the encoder set
func (dp *DataProcessor) split() error {
	ds := dp.ds
	targetIdx := ds.ColumnIndex(TargetColumn)
	features := dp.encoders.FeatureOrder

	featureIdx := make([]int, len(features))
	for i, col := range features {
		featureIdx[i] = ds.ColumnIndex(col)
	}

	n := ds.NumRows()
	X := make([][]float64, n)
	y := make([]float64, n)
	for i, row := range ds.Rows {
		X[i] = make([]float64, len(features))
		for j, idx := range featureIdx {
			cell := row[idx]
			if IsMissing(cell) {
				X[i][j] = math.NaN()
				continue
			}
			val, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return pipelines.NewTransformationError(features[j], cell, "non-numeric value in numeric column", err)
			}
			X[i][j] = val
		}
		val, err := strconv.ParseFloat(row[targetIdx], 64)
		if err != nil {
			return pipelines.NewTransformationError(TargetColumn, row[targetIdx], "unencoded target value", err)
		}
		y[i] = val
	}

	// Seeded shuffle keeps the partition assignment reproducible
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(dp.config.RandomSeed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testCount := int(math.Round(float64(n) * dp.config.TestSize))
	if testCount < 1 {
		testCount = 1
	}
	if testCount >= n {
		return pipelines.NewTransformationError(TargetColumn, "",
			"not enough rows to hold out a test partition", nil)
	}
	trainIdx := indices[:n-testCount]
	testIdx := indices[n-testCount:]

	trainX := selectRows(X, trainIdx)
	testX := selectRows(X, testIdx)
	trainY := selectValues(y, trainIdx)
	testY := selectValues(y, testIdx)

	// Impute with the training-partition mean so the held-out rows never
	// influence the fill values
	for j := range features {
		sum, count := 0.0, 0
		for _, row := range trainX {
			if !math.IsNaN(row[j]) {
				sum += row[j]
				count++
			}
		}
		if count == 0 {
			return pipelines.NewTransformationError(features[j], "",
				"column has no observed values in the training partition", nil)
		}
		mean := sum / float64(count)
		for _, rows := range [][][]float64{trainX, testX} {
			for _, row := range rows {
				if math.IsNaN(row[j]) {
					row[j] = mean
				}
			}
		}
	}

	if err := os.MkdirAll(dp.outputPath, 0755); err != nil {
		return pipelines.NewDataLoadError(dp.outputPath, "failed to create output directory", err)
	}

	saves := []struct {
		path string
		run  func(string) error
	}{
		{XTrainFile, func(p string) error { return SaveMatrix(p, &Matrix{Columns: features, Rows: trainX}) }},
		{XTestFile, func(p string) error { return SaveMatrix(p, &Matrix{Columns: features, Rows: testX}) }},
		{YTrainFile, func(p string) error { return SaveVector(p, &Vector{Name: TargetColumn, Values: trainY}) }},
		{YTestFile, func(p string) error { return SaveVector(p, &Vector{Name: TargetColumn, Values: testY}) }},
		{EncodersFile, func(p string) error { return dp.encoders.Save(p) }},
	}
	for _, s := range saves {
		if err := s.run(filepath.Join(dp.outputPath, s.path)); err != nil {
			return err
		}
	}

	dp.logger.Info("Data split and persisted",
		utils.Component("preprocessing"),
		utils.Int("train_rows", len(trainX)),
		utils.Int("test_rows", len(testX)),
		utils.Int("features", len(features)))
	return nil
}

func selectRows(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = X[idx]
	}
	return out
}

func selectValues(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}
