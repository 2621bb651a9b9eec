package ml

import (
	"fmt"
	"sort"
)

// TreeNode represents a node in a regression tree
type TreeNode struct {
	IsLeaf       bool      `json:"is_leaf"`
	Value        float64   `json:"value,omitempty"` // leaf prediction (mean of targets)
	Feature      string    `json:"feature,omitempty"`
	FeatureIndex int       `json:"feature_index,omitempty"`
	Threshold    float64   `json:"threshold,omitempty"`
	Left         *TreeNode `json:"left,omitempty"`  // <= threshold
	Right        *TreeNode `json:"right,omitempty"` // > threshold
	SamplesCount int       `json:"samples_count"`
	Depth        int       `json:"depth"`
}

// RegressionTree is a CART-style variance-reduction tree. It serves as
// the base learner of the boosted ensemble, fit to pseudo-residuals.
type RegressionTree struct {
	Root            *TreeNode `json:"root"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	FeatureNames    []string  `json:"feature_names"`
	NumFeatures     int       `json:"num_features"`
}

// NewRegressionTree creates a regression tree with the given limits,
// falling back to defaults for non-positive values
func NewRegressionTree(maxDepth, minSamplesSplit, minSamplesLeaf int) *RegressionTree {
	if maxDepth <= 0 {
		maxDepth = 4
	}
	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}
	return &RegressionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit builds the tree from training data
// X: feature matrix (rows = samples, cols = features)
// y: numeric targets (one per sample)
func (rt *RegressionTree) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	rt.FeatureNames = featureNames
	rt.NumFeatures = len(X[0])

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	rt.Root = rt.buildTree(X, y, indices, 0)
	return nil
}

// buildTree recursively grows the tree
func (rt *RegressionTree) buildTree(X [][]float64, y []float64, indices []int, depth int) *TreeNode {
	node := &TreeNode{
		SamplesCount: len(indices),
		Depth:        depth,
	}

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	mean := calculateMean(values)
	variance := calculateVariance(values, mean)
	node.Value = mean

	if depth >= rt.MaxDepth || len(indices) < rt.MinSamplesSplit || variance < 1e-12 {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestGain := rt.findBestSplit(X, y, indices)
	if bestGain <= 0 {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := splitIndices(X, indices, bestFeature, bestThreshold)
	if len(leftIndices) < rt.MinSamplesLeaf || len(rightIndices) < rt.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.IsLeaf = false
	node.Feature = rt.FeatureNames[bestFeature]
	node.FeatureIndex = bestFeature
	node.Threshold = bestThreshold
	node.Left = rt.buildTree(X, y, leftIndices, depth+1)
	node.Right = rt.buildTree(X, y, rightIndices, depth+1)
	return node
}

// findBestSplit finds the feature and threshold with the largest
// weighted-variance reduction
func (rt *RegressionTree) findBestSplit(X [][]float64, y []float64, indices []int) (int, float64, float64) {
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	parentVariance := calculateVariance(values, calculateMean(values))

	for feature := 0; feature < rt.NumFeatures; feature++ {
		featureValues := make([]float64, len(indices))
		for i, idx := range indices {
			featureValues[i] = X[idx][feature]
		}

		for _, threshold := range candidateThresholds(featureValues) {
			leftIndices, rightIndices := splitIndices(X, indices, feature, threshold)
			if len(leftIndices) == 0 || len(rightIndices) == 0 {
				continue
			}

			leftValues := make([]float64, len(leftIndices))
			for i, idx := range leftIndices {
				leftValues[i] = y[idx]
			}
			rightValues := make([]float64, len(rightIndices))
			for i, idx := range rightIndices {
				rightValues[i] = y[idx]
			}

			leftVariance := calculateVariance(leftValues, calculateMean(leftValues))
			rightVariance := calculateVariance(rightValues, calculateMean(rightValues))

			n := float64(len(indices))
			nLeft := float64(len(leftIndices))
			nRight := float64(len(rightIndices))

			weighted := (nLeft/n)*leftVariance + (nRight/n)*rightVariance
			gain := parentVariance - weighted
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// Predict returns the tree's output for a single sample
func (rt *RegressionTree) Predict(x []float64) (float64, error) {
	if rt.Root == nil {
		return 0, fmt.Errorf("tree not fitted")
	}
	if len(x) != rt.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", rt.NumFeatures, len(x))
	}
	node := rt.Root
	for !node.IsLeaf {
		if x[node.FeatureIndex] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value, nil
}

// NumNodes returns the total number of nodes in the tree
func (rt *RegressionTree) NumNodes() int {
	return countNodes(rt.Root)
}

func countNodes(node *TreeNode) int {
	if node == nil {
		return 0
	}
	return 1 + countNodes(node.Left) + countNodes(node.Right)
}

// Helper functions

func splitIndices(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

func candidateThresholds(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	unique := make([]float64, 0, len(values))
	seen := make(map[float64]bool)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	if len(unique) == 1 {
		return nil
	}
	sort.Float64s(unique)

	// Midpoints between adjacent unique values
	thresholds := make([]float64, len(unique)-1)
	for i := 0; i < len(unique)-1; i++ {
		thresholds[i] = (unique[i] + unique[i+1]) / 2.0
	}
	return thresholds
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return variance / float64(len(values))
}
