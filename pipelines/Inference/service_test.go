package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ml "github.com/weatherops/raincast/pipelines/ML"
	preprocessing "github.com/weatherops/raincast/pipelines/Preprocessing"
)

var testFeatureOrder = []string{
	"Location", "MinTemp", "MaxTemp", "Rainfall", "RainToday",
	"Year", "Month", "Day",
}

func testEncoderSet() *preprocessing.EncoderSet {
	return &preprocessing.EncoderSet{
		Encoders: map[string]*preprocessing.LabelEncoder{
			"Location":  preprocessing.FitLabelEncoder("Location", []string{"Sydney", "Melbourne"}),
			"RainToday": preprocessing.FitLabelEncoder("RainToday", []string{"Yes", "No"}),
		},
		FeatureOrder: testFeatureOrder,
		TargetColumn: "RainTomorrow",
	}
}

// testModel trains a small ensemble where heavy rainfall today predicts
// rain tomorrow
func testModel(t *testing.T) *ml.GradientBoostedClassifier {
	t.Helper()

	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		rainfall := float64(i % 10)
		label := 0.0
		if rainfall > 5 {
			label = 1.0
		}
		X = append(X, []float64{
			float64(i % 2), 13, 23, rainfall, float64(i % 2),
			2024, 6, float64(i%28) + 1,
		})
		y = append(y, label)
	}

	model := ml.NewGradientBoostedClassifier(ml.BoostingConfig{
		NumRounds:    15,
		LearningRate: 0.3,
		MaxDepth:     2,
	})
	require.NoError(t, model.Train(X, y, testFeatureOrder))
	return model
}

func newTestService(t *testing.T) *PredictionService {
	t.Helper()
	ps, err := NewPredictionService(testModel(t), testEncoderSet(), testHeuristics())
	require.NoError(t, err)
	return ps
}

func TestPredictionServiceHappyPath(t *testing.T) {
	ps := newTestService(t)

	prediction, result, err := ps.Predict(validRequest())
	require.NoError(t, err)
	require.True(t, result.Valid(), "unexpected errors: %s", result.Message())
	require.NotNil(t, prediction)

	assert.Contains(t, []string{"Rain Tomorrow: Yes", "Rain Tomorrow: No"}, prediction.Display)
	assert.GreaterOrEqual(t, prediction.Probability, 0.0)
	assert.LessOrEqual(t, prediction.Probability, 1.0)
}

func TestPredictionServiceHeavyRainfall(t *testing.T) {
	ps := newTestService(t)

	req := validRequest()
	req.Rainfall = "9.0"
	prediction, result, err := ps.Predict(req)
	require.NoError(t, err)
	require.True(t, result.Valid())
	assert.Equal(t, "Rain Tomorrow: Yes", prediction.Display)
	assert.True(t, prediction.RainTomorrow)
}

func TestPredictionServiceRejectsInvalidInput(t *testing.T) {
	ps := newTestService(t)

	req := validRequest()
	req.Humidity3pm = "150"

	prediction, result, err := ps.Predict(req)
	require.NoError(t, err, "invalid input must not surface as an error")
	assert.Nil(t, prediction, "no prediction may be produced for invalid input")
	assert.False(t, result.Valid())
}

func TestPredictionServiceUnknownLocation(t *testing.T) {
	ps := newTestService(t)

	req := validRequest()
	req.Location = "Atlantis"

	prediction, result, err := ps.Predict(req)
	require.NoError(t, err)
	assert.Nil(t, prediction)
	require.False(t, result.Valid())
	assert.Contains(t, result.Message(), "Atlantis")
}

func TestPredictionServiceLocations(t *testing.T) {
	ps := newTestService(t)
	assert.Equal(t, []string{"Melbourne", "Sydney"}, ps.Locations())
}

func TestNewPredictionServiceShapeMismatch(t *testing.T) {
	encoders := testEncoderSet()
	encoders.FeatureOrder = encoders.FeatureOrder[:5]

	_, err := NewPredictionService(testModel(t), encoders, testHeuristics())
	assert.Error(t, err, "feature count mismatch must fail construction")
}

func TestPredictionServiceUnderivableFeature(t *testing.T) {
	encoders := testEncoderSet()
	order := make([]string, len(testFeatureOrder))
	copy(order, testFeatureOrder)
	order[7] = "Bogus"
	encoders.FeatureOrder = order

	ps, err := NewPredictionService(testModel(t), encoders, testHeuristics())
	require.NoError(t, err)

	_, result, err := ps.Predict(validRequest())
	require.True(t, result.Valid())
	assert.Error(t, err, "a feature with no derivation rule must fail inference")
}

func TestLoadPredictionServiceMissingArtifacts(t *testing.T) {
	_, err := LoadPredictionService(t.TempDir(), t.TempDir(), testHeuristics())
	assert.Error(t, err)
}
