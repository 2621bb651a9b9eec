package ml

import (
	"path/filepath"
	"testing"
)

// separableData builds a binary problem where the first feature fully
// determines the class
func separableData() ([][]float64, []float64, []string) {
	X := [][]float64{
		{1.0, 5.0}, {1.5, 3.0}, {2.0, 8.0}, {2.5, 1.0}, {3.0, 6.0},
		{10.0, 4.0}, {10.5, 7.0}, {11.0, 2.0}, {11.5, 9.0}, {12.0, 5.0},
	}
	y := []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	return X, y, []string{"f1", "f2"}
}

func TestGradientBoostingLearnsSeparableData(t *testing.T) {
	X, y, names := separableData()

	gb := NewGradientBoostedClassifier(BoostingConfig{
		NumRounds:    20,
		LearningRate: 0.3,
		MaxDepth:     2,
	})
	if err := gb.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for i, x := range X {
		pred, err := gb.Predict(x)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if float64(pred) != y[i] {
			t.Errorf("sample %d: predicted %d, want %g", i, pred, y[i])
		}
	}

	// Probabilities must respect the separation, not just the labels
	lowProba, _ := gb.PredictProba([]float64{2.0, 5.0})
	highProba, _ := gb.PredictProba([]float64{11.0, 5.0})
	if lowProba >= 0.5 {
		t.Errorf("negative-side probability %g should be below 0.5", lowProba)
	}
	if highProba < 0.5 {
		t.Errorf("positive-side probability %g should be at least 0.5", highProba)
	}
}

func TestGradientBoostingDeterministic(t *testing.T) {
	X, y, names := separableData()

	config := BoostingConfig{NumRounds: 10, LearningRate: 0.1, MaxDepth: 3}
	a := NewGradientBoostedClassifier(config)
	b := NewGradientBoostedClassifier(config)
	if err := a.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if err := b.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	probe := []float64{6.0, 4.0}
	pa, _ := a.PredictProba(probe)
	pb, _ := b.PredictProba(probe)
	if pa != pb {
		t.Errorf("two fits of the same data disagree: %g vs %g", pa, pb)
	}
}

func TestGradientBoostingRejectsNonBinaryTargets(t *testing.T) {
	X := [][]float64{{1}, {2}}
	y := []float64{0, 2}

	gb := NewGradientBoostedClassifier(DefaultBoostingConfig())
	if err := gb.Train(X, y, []string{"x"}); err == nil {
		t.Error("expected error for non-binary target")
	}
}

func TestGradientBoostingSaveLoad(t *testing.T) {
	X, y, names := separableData()

	gb := NewGradientBoostedClassifier(BoostingConfig{NumRounds: 5, LearningRate: 0.2, MaxDepth: 2})
	if err := gb.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := gb.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := &GradientBoostedClassifier{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	probe := []float64{11.0, 3.0}
	before, _ := gb.PredictProba(probe)
	after, err := loaded.PredictProba(probe)
	if err != nil {
		t.Fatalf("Predict after load failed: %v", err)
	}
	if before != after {
		t.Errorf("prediction drifted across save/load: %g vs %g", before, after)
	}
}

func TestGradientBoostingFeatureCountContract(t *testing.T) {
	X, y, names := separableData()

	gb := NewGradientBoostedClassifier(BoostingConfig{NumRounds: 3})
	if err := gb.Train(X, y, names); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if _, err := gb.PredictProba([]float64{1.0}); err == nil {
		t.Error("expected error for short feature vector")
	}
	if _, err := gb.PredictProba([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for long feature vector")
	}
}
