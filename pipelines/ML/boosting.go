package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// BoostingConfig holds the hyperparameters of the boosted ensemble
type BoostingConfig struct {
	NumRounds       int     `json:"num_rounds"`
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	MinSamplesSplit int     `json:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf"`
}

// DefaultBoostingConfig returns the hyperparameters the pipeline trains
// with unless the configuration overrides them
func DefaultBoostingConfig() BoostingConfig {
	return BoostingConfig{
		NumRounds:       100,
		LearningRate:    0.1,
		MaxDepth:        4,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// GradientBoostedClassifier is a binary classifier built from regression
// trees fit stagewise to the logistic-loss pseudo-residuals. Training is
// deterministic: no subsampling, no random feature selection, so the
// same partitions always produce the same model.
type GradientBoostedClassifier struct {
	Trees        []*RegressionTree `json:"trees"`
	InitialScore float64           `json:"initial_score"` // log-odds of the positive class prior
	Config       BoostingConfig    `json:"config"`
	FeatureNames []string          `json:"feature_names"`
	NumFeatures  int               `json:"num_features"`
}

// NewGradientBoostedClassifier creates an untrained ensemble
func NewGradientBoostedClassifier(config BoostingConfig) *GradientBoostedClassifier {
	if config.NumRounds <= 0 {
		config.NumRounds = 100
	}
	if config.LearningRate <= 0 {
		config.LearningRate = 0.1
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = 4
	}
	if config.MinSamplesSplit <= 0 {
		config.MinSamplesSplit = 2
	}
	if config.MinSamplesLeaf <= 0 {
		config.MinSamplesLeaf = 1
	}
	return &GradientBoostedClassifier{Config: config}
}

// Train fits the ensemble on binary targets (0 or 1)
func (gb *GradientBoostedClassifier) Train(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("target at index %d is %g, expected 0 or 1", i, v)
		}
	}

	gb.FeatureNames = featureNames
	gb.NumFeatures = len(X[0])

	// Start from the log-odds of the positive-class prior
	positives := 0.0
	for _, v := range y {
		positives += v
	}
	prior := positives / float64(len(y))
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	gb.InitialScore = math.Log(prior / (1 - prior))

	scores := make([]float64, len(y))
	for i := range scores {
		scores[i] = gb.InitialScore
	}

	gb.Trees = make([]*RegressionTree, 0, gb.Config.NumRounds)
	residuals := make([]float64, len(y))

	for round := 0; round < gb.Config.NumRounds; round++ {
		for i := range y {
			residuals[i] = y[i] - sigmoid(scores[i])
		}

		tree := NewRegressionTree(gb.Config.MaxDepth, gb.Config.MinSamplesSplit, gb.Config.MinSamplesLeaf)
		if err := tree.Fit(X, residuals, featureNames); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		gb.Trees = append(gb.Trees, tree)

		for i, x := range X {
			step, err := tree.Predict(x)
			if err != nil {
				return fmt.Errorf("round %d: %w", round, err)
			}
			scores[i] += gb.Config.LearningRate * step
		}
	}

	return nil
}

// PredictProba returns the probability of the positive class for a
// single sample
func (gb *GradientBoostedClassifier) PredictProba(x []float64) (float64, error) {
	if len(gb.Trees) == 0 {
		return 0, fmt.Errorf("model not trained")
	}
	if len(x) != gb.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", gb.NumFeatures, len(x))
	}

	score := gb.InitialScore
	for _, tree := range gb.Trees {
		step, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		score += gb.Config.LearningRate * step
	}
	return sigmoid(score), nil
}

// Predict returns the binary class (0 or 1) at the 0.5 threshold
func (gb *GradientBoostedClassifier) Predict(x []float64) (int, error) {
	proba, err := gb.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if proba >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Validate checks that the model is ready for predictions
func (gb *GradientBoostedClassifier) Validate() error {
	if len(gb.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	if len(gb.FeatureNames) == 0 {
		return fmt.Errorf("model has no feature names")
	}
	if gb.NumFeatures != len(gb.FeatureNames) {
		return fmt.Errorf("num_features mismatch")
	}
	return nil
}

// ModelInfo returns summary information about the model
func (gb *GradientBoostedClassifier) ModelInfo() map[string]any {
	numNodes := 0
	for _, tree := range gb.Trees {
		numNodes += tree.NumNodes()
	}
	return map[string]any{
		"algorithm":     "gradient_boosting",
		"num_rounds":    len(gb.Trees),
		"learning_rate": gb.Config.LearningRate,
		"max_depth":     gb.Config.MaxDepth,
		"num_features":  gb.NumFeatures,
		"feature_names": gb.FeatureNames,
		"num_nodes":     numNodes,
	}
}

// Save writes the model to a JSON file
func (gb *GradientBoostedClassifier) Save(path string) error {
	data, err := json.Marshal(gb)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// Load reads a model from a JSON file
func (gb *GradientBoostedClassifier) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model file: %w", err)
	}
	if err := json.Unmarshal(data, gb); err != nil {
		return fmt.Errorf("failed to unmarshal model: %w", err)
	}
	return gb.Validate()
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
