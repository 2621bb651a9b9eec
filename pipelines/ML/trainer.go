package ml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/weatherops/raincast/pipelines"
	preprocessing "github.com/weatherops/raincast/pipelines/Preprocessing"
	"github.com/weatherops/raincast/utils"
)

// ModelFile is the persisted model artifact name
const ModelFile = "model.json"

// TrainingResult holds the outcome of a training run
type TrainingResult struct {
	Model            *GradientBoostedClassifier `json:"-"`
	Metrics          *EvaluationMetrics         `json:"metrics"`
	TrainRows        int                        `json:"train_rows"`
	TestRows         int                        `json:"test_rows"`
	TrainingDuration time.Duration              `json:"training_duration"`
}

// ModelTrainer runs the training stage: load the four partitions, fit
// the boosted classifier, evaluate on the held-out partition, persist
// the model. Failures are fatal to the run; there are no retries.
type ModelTrainer struct {
	inputPath  string
	outputPath string
	config     BoostingConfig
	logger     *utils.Logger

	result *TrainingResult
}

// NewModelTrainer creates a training stage reading processed artifacts
// from inputPath and writing the model to outputPath
func NewModelTrainer(inputPath, outputPath string, config BoostingConfig) *ModelTrainer {
	return &ModelTrainer{
		inputPath:  inputPath,
		outputPath: outputPath,
		config:     config,
		logger:     utils.GetLogger(),
	}
}

// Run executes the stage end to end
func (mt *ModelTrainer) Run(ctx context.Context) error {
	trainX, testX, trainY, testY, err := mt.loadData()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := mt.train(trainX, trainY)
	if err != nil {
		return err
	}

	metrics, err := mt.evaluate(result.Model, testX, testY)
	if err != nil {
		return err
	}
	result.Metrics = metrics
	result.TestRows = len(testX.Rows)

	if err := mt.saveModel(result.Model); err != nil {
		return err
	}

	mt.result = result
	return nil
}

// Result returns the training outcome after Run
func (mt *ModelTrainer) Result() *TrainingResult {
	return mt.result
}

// loadData loads the four partitions and verifies their shapes agree
func (mt *ModelTrainer) loadData() (trainX, testX *preprocessing.Matrix, trainY, testY *preprocessing.Vector, err error) {
	trainX, err = preprocessing.LoadMatrix(filepath.Join(mt.inputPath, preprocessing.XTrainFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	testX, err = preprocessing.LoadMatrix(filepath.Join(mt.inputPath, preprocessing.XTestFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	trainY, err = preprocessing.LoadVector(filepath.Join(mt.inputPath, preprocessing.YTrainFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	testY, err = preprocessing.LoadVector(filepath.Join(mt.inputPath, preprocessing.YTestFile))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if len(trainX.Columns) != len(testX.Columns) {
		return nil, nil, nil, nil, pipelines.NewDataLoadError(mt.inputPath,
			fmt.Sprintf("train has %d feature columns, test has %d", len(trainX.Columns), len(testX.Columns)), nil)
	}
	for i, col := range trainX.Columns {
		if testX.Columns[i] != col {
			return nil, nil, nil, nil, pipelines.NewDataLoadError(mt.inputPath,
				fmt.Sprintf("feature column %d differs between partitions: %q vs %q", i, col, testX.Columns[i]), nil)
		}
	}
	if len(trainX.Rows) != len(trainY.Values) {
		return nil, nil, nil, nil, pipelines.NewDataLoadError(mt.inputPath,
			fmt.Sprintf("X_train has %d rows but y_train has %d values", len(trainX.Rows), len(trainY.Values)), nil)
	}
	if len(testX.Rows) != len(testY.Values) {
		return nil, nil, nil, nil, pipelines.NewDataLoadError(mt.inputPath,
			fmt.Sprintf("X_test has %d rows but y_test has %d values", len(testX.Rows), len(testY.Values)), nil)
	}

	mt.logger.Info("Preprocessed data loaded",
		utils.Component("training"),
		utils.Int("train_rows", len(trainX.Rows)),
		utils.Int("test_rows", len(testX.Rows)),
		utils.Int("features", len(trainX.Columns)))
	return trainX, testX, trainY, testY, nil
}

func (mt *ModelTrainer) train(trainX *preprocessing.Matrix, trainY *preprocessing.Vector) (*TrainingResult, error) {
	model := NewGradientBoostedClassifier(mt.config)

	start := time.Now()
	if err := model.Train(trainX.Rows, trainY.Values, trainX.Columns); err != nil {
		wrapped := pipelines.NewTrainingError("model fit failed", err)
		mt.logger.Error("Model training failed", wrapped, utils.Component("training"))
		return nil, wrapped
	}
	duration := time.Since(start)

	mt.logger.Info("Model trained",
		utils.Component("training"),
		utils.Int("rounds", len(model.Trees)),
		utils.Float("duration_seconds", duration.Seconds()))

	return &TrainingResult{
		Model:            model,
		TrainRows:        len(trainX.Rows),
		TrainingDuration: duration,
	}, nil
}

// evaluate computes test-partition metrics and reports them through the
// structured log; the log line is the contract surface for metrics
func (mt *ModelTrainer) evaluate(model *GradientBoostedClassifier, testX *preprocessing.Matrix, testY *preprocessing.Vector) (*EvaluationMetrics, error) {
	metrics, err := Evaluate(model, testX.Rows, testY.Values)
	if err != nil {
		return nil, pipelines.NewTrainingError("evaluation failed", err)
	}

	mt.logger.Info("Evaluation results",
		utils.Component("training"),
		utils.Float("accuracy", metrics.Accuracy),
		utils.Float("precision", metrics.Precision),
		utils.Float("recall", metrics.Recall),
		utils.Float("f1_score", metrics.F1Score))
	return metrics, nil
}

func (mt *ModelTrainer) saveModel(model *GradientBoostedClassifier) error {
	if err := os.MkdirAll(mt.outputPath, 0755); err != nil {
		return pipelines.NewTrainingError("failed to create model directory", err)
	}
	modelPath := filepath.Join(mt.outputPath, ModelFile)
	if err := model.Save(modelPath); err != nil {
		return pipelines.NewTrainingError("failed to persist model", err)
	}
	mt.logger.Info("Model saved",
		utils.Component("training"),
		utils.String("path", modelPath))
	return nil
}
