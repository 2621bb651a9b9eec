package ml

import (
	"math"
	"testing"
)

func TestCalculateMetricsKnownConfusion(t *testing.T) {
	// TP=3 TN=2 FP=1 FN=2
	yTrue := []float64{1, 1, 1, 1, 1, 0, 0, 0}
	yPred := []int{1, 1, 1, 0, 0, 0, 0, 1}

	m, err := CalculateMetrics(yTrue, yPred)
	if err != nil {
		t.Fatalf("CalculateMetrics failed: %v", err)
	}

	if m.TruePositives != 3 || m.TrueNegatives != 2 || m.FalsePositives != 1 || m.FalseNegatives != 2 {
		t.Errorf("confusion matrix wrong: TP=%d TN=%d FP=%d FN=%d",
			m.TruePositives, m.TrueNegatives, m.FalsePositives, m.FalseNegatives)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"accuracy", m.Accuracy, 5.0 / 8.0},
		{"precision", m.Precision, 3.0 / 4.0},
		{"recall", m.Recall, 3.0 / 5.0},
		{"f1", m.F1Score, 2 * (0.75 * 0.6) / (0.75 + 0.6)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %g, want %g", c.name, c.got, c.want)
		}
	}
}

func TestCalculateMetricsNoPositivePredictions(t *testing.T) {
	yTrue := []float64{0, 0, 1}
	yPred := []int{0, 0, 0}

	m, err := CalculateMetrics(yTrue, yPred)
	if err != nil {
		t.Fatalf("CalculateMetrics failed: %v", err)
	}
	// Avoid division by zero: undefined ratios report as 0
	if m.Precision != 0 || m.F1Score != 0 {
		t.Errorf("expected zero precision and F1, got %g and %g", m.Precision, m.F1Score)
	}
}

func TestCalculateMetricsLengthMismatch(t *testing.T) {
	if _, err := CalculateMetrics([]float64{1}, []int{1, 0}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestEvaluateEndToEnd(t *testing.T) {
	X, y, names := separableData()

	gb := NewGradientBoostedClassifier(BoostingConfig{NumRounds: 20, LearningRate: 0.3, MaxDepth: 2})
	if err := gb.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	m, err := Evaluate(gb, X, y)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if m.Accuracy != 1.0 {
		t.Errorf("expected perfect training accuracy on separable data, got %g", m.Accuracy)
	}
	if m.TotalSamples != len(y) {
		t.Errorf("expected %d samples, got %d", len(y), m.TotalSamples)
	}
}
