package ml

import (
	"math"
	"testing"
)

// TestRegressionTreeSplitsOnThreshold tests a clean two-cluster split
func TestRegressionTreeSplitsOnThreshold(t *testing.T) {
	X := [][]float64{
		{1.0}, {2.0}, {3.0},
		{10.0}, {11.0}, {12.0},
	}
	y := []float64{1.0, 1.0, 1.0, 5.0, 5.0, 5.0}

	tree := NewRegressionTree(3, 2, 1)
	if err := tree.Fit(X, y, []string{"x"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	tests := []struct {
		input    []float64
		expected float64
	}{
		{[]float64{2.0}, 1.0},
		{[]float64{11.0}, 5.0},
		{[]float64{-5.0}, 1.0},
		{[]float64{100.0}, 5.0},
	}
	for _, tt := range tests {
		got, err := tree.Predict(tt.input)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Predict(%v) = %g, want %g", tt.input, got, tt.expected)
		}
	}
}

// TestRegressionTreeConstantTarget tests that a zero-variance target
// produces a single leaf
func TestRegressionTreeConstantTarget(t *testing.T) {
	X := [][]float64{{1.0}, {2.0}, {3.0}, {4.0}}
	y := []float64{2.5, 2.5, 2.5, 2.5}

	tree := NewRegressionTree(4, 2, 1)
	if err := tree.Fit(X, y, []string{"x"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if tree.NumNodes() != 1 {
		t.Errorf("expected a single leaf, got %d nodes", tree.NumNodes())
	}
	got, err := tree.Predict([]float64{99.0})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if got != 2.5 {
		t.Errorf("expected constant prediction 2.5, got %g", got)
	}
}

// TestRegressionTreeDepthLimit tests that MaxDepth bounds the tree
func TestRegressionTreeDepthLimit(t *testing.T) {
	X := make([][]float64, 32)
	y := make([]float64, 32)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i)
	}

	tree := NewRegressionTree(2, 2, 1)
	if err := tree.Fit(X, y, []string{"x"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	// Depth 2 allows at most 4 leaves, 7 nodes total
	if tree.NumNodes() > 7 {
		t.Errorf("depth limit not honored: %d nodes", tree.NumNodes())
	}
}

func TestRegressionTreeInputValidation(t *testing.T) {
	tree := NewRegressionTree(3, 2, 1)

	if err := tree.Fit(nil, nil, nil); err == nil {
		t.Error("expected error for empty data")
	}
	if err := tree.Fit([][]float64{{1}}, []float64{1, 2}, []string{"x"}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if err := tree.Fit([][]float64{{1, 2}}, []float64{1}, []string{"x"}); err == nil {
		t.Error("expected error for feature name mismatch")
	}
	if _, err := tree.Predict([]float64{1}); err == nil {
		t.Error("expected error for unfitted tree")
	}
}
