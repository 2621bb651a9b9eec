package ml

import "fmt"

// EvaluationMetrics holds binary classification metrics. Precision,
// recall and F1 use class 1 ("Yes", rain) as the positive class.
type EvaluationMetrics struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1Score        float64 `json:"f1_score"`
	TruePositives  int     `json:"true_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	TotalSamples   int     `json:"total_samples"`
}

// Evaluate runs the classifier over test data and computes metrics
func Evaluate(model *GradientBoostedClassifier, X [][]float64, yTrue []float64) (*EvaluationMetrics, error) {
	if len(X) == 0 || len(yTrue) == 0 {
		return nil, fmt.Errorf("empty test data")
	}
	if len(X) != len(yTrue) {
		return nil, fmt.Errorf("X and yTrue must have same length")
	}

	yPred := make([]int, len(X))
	for i, x := range X {
		pred, err := model.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("prediction failed at index %d: %w", i, err)
		}
		yPred[i] = pred
	}

	return CalculateMetrics(yTrue, yPred)
}

// CalculateMetrics computes binary metrics from true and predicted labels
func CalculateMetrics(yTrue []float64, yPred []int) (*EvaluationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("yTrue and yPred must have same length")
	}

	metrics := &EvaluationMetrics{TotalSamples: len(yTrue)}
	for i := range yTrue {
		actual := int(yTrue[i])
		switch {
		case actual == 1 && yPred[i] == 1:
			metrics.TruePositives++
		case actual == 0 && yPred[i] == 0:
			metrics.TrueNegatives++
		case actual == 0 && yPred[i] == 1:
			metrics.FalsePositives++
		default:
			metrics.FalseNegatives++
		}
	}

	correct := metrics.TruePositives + metrics.TrueNegatives
	metrics.Accuracy = float64(correct) / float64(metrics.TotalSamples)

	if metrics.TruePositives+metrics.FalsePositives > 0 {
		metrics.Precision = float64(metrics.TruePositives) /
			float64(metrics.TruePositives+metrics.FalsePositives)
	}
	if metrics.TruePositives+metrics.FalseNegatives > 0 {
		metrics.Recall = float64(metrics.TruePositives) /
			float64(metrics.TruePositives+metrics.FalseNegatives)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1Score = 2 * metrics.Precision * metrics.Recall /
			(metrics.Precision + metrics.Recall)
	}

	return metrics, nil
}
