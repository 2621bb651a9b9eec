package main

import (
	"context"
	"time"

	ml "github.com/weatherops/raincast/pipelines/ML"
	preprocessing "github.com/weatherops/raincast/pipelines/Preprocessing"
	"github.com/weatherops/raincast/utils"
)

// PipelineRunner executes the two offline stages in order: the
// preprocessing stage must finish before training starts because
// training consumes its partition files. When a run store is
// configured every execution is recorded with its outcome.
type PipelineRunner struct {
	config   *utils.Config
	runStore *utils.RunStore
	logger   *utils.Logger
}

// NewPipelineRunner builds a runner from the loaded configuration. The
// run store may be nil when persistence is disabled.
func NewPipelineRunner(config *utils.Config, runStore *utils.RunStore) *PipelineRunner {
	return &PipelineRunner{
		config:   config,
		runStore: runStore,
		logger:   utils.GetLogger(),
	}
}

// Run executes preprocessing then training. The trigger label records
// what started the run in the history store.
func (pr *PipelineRunner) Run(ctx context.Context, trigger string) error {
	start := time.Now()

	runID := ""
	if pr.runStore != nil {
		id, err := pr.runStore.BeginRun(ctx, trigger)
		if err != nil {
			pr.logger.Warn("Failed to record run start",
				utils.Error(err), utils.Component("pipeline"))
		} else {
			runID = id
		}
	}

	result, err := pr.runStages(ctx)
	if err != nil {
		pr.logger.Error("Pipeline run failed", err,
			utils.String("trigger", trigger),
			utils.Float("duration_s", time.Since(start).Seconds()),
			utils.Component("pipeline"))
		if pr.runStore != nil && runID != "" {
			if storeErr := pr.runStore.FailRun(ctx, runID, err); storeErr != nil {
				pr.logger.Warn("Failed to record run failure",
					utils.Error(storeErr), utils.Component("pipeline"))
			}
		}
		return err
	}

	pr.logger.Info("Pipeline run completed",
		utils.String("trigger", trigger),
		utils.Int("train_rows", result.TrainRows),
		utils.Int("test_rows", result.TestRows),
		utils.Float("test_accuracy", result.Metrics.Accuracy),
		utils.Float("duration_s", time.Since(start).Seconds()),
		utils.Component("pipeline"))

	if pr.runStore != nil && runID != "" {
		if storeErr := pr.runStore.CompleteRun(ctx, runID,
			result.TrainRows, result.TestRows,
			result.Metrics.Accuracy, result.Metrics.F1Score); storeErr != nil {
			pr.logger.Warn("Failed to record run completion",
				utils.Error(storeErr), utils.Component("pipeline"))
		}
	}
	return nil
}

func (pr *PipelineRunner) runStages(ctx context.Context) (*ml.TrainingResult, error) {
	processor := preprocessing.NewDataProcessor(
		pr.config.Paths.RawData,
		pr.config.Paths.ProcessedDir,
		preprocessing.Config{
			RandomSeed: pr.config.Pipeline.RandomSeed,
			TestSize:   pr.config.Pipeline.TestSize,
		})
	if err := processor.Run(ctx); err != nil {
		return nil, err
	}

	trainer := ml.NewModelTrainer(
		pr.config.Paths.ProcessedDir,
		pr.config.Paths.ModelDir,
		ml.BoostingConfig{
			NumRounds:       pr.config.Pipeline.NumRounds,
			LearningRate:    pr.config.Pipeline.LearningRate,
			MaxDepth:        pr.config.Pipeline.MaxDepth,
			MinSamplesSplit: pr.config.Pipeline.MinSamplesSplit,
			MinSamplesLeaf:  pr.config.Pipeline.MinSamplesLeaf,
		})
	if err := trainer.Run(ctx); err != nil {
		return nil, err
	}
	return trainer.Result(), nil
}
