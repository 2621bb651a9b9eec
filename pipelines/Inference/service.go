package inference

import (
	"fmt"
	"path/filepath"

	"github.com/weatherops/raincast/pipelines"
	preprocessing "github.com/weatherops/raincast/pipelines/Preprocessing"
	ml "github.com/weatherops/raincast/pipelines/ML"
	"github.com/weatherops/raincast/utils"
)

// Prediction is the user-facing outcome of one request
type Prediction struct {
	RainTomorrow bool    `json:"rain_tomorrow"`
	Probability  float64 `json:"probability"`
	Display      string  `json:"display"` // e.g. "Rain Tomorrow: Yes"
}

// PredictionService assembles feature vectors from partial user input
// and runs them through the trained model. It is immutable after
// construction and safe for concurrent use: the model and the encoder
// set are read-only, and requests share no state.
type PredictionService struct {
	model    *ml.GradientBoostedClassifier
	encoders *preprocessing.EncoderSet
	deriver  *FeatureDeriver
	logger   *utils.Logger
}

// NewPredictionService constructs a service from its collaborators. The
// encoder set must be the artifact produced by the preprocessing run the
// model was trained on; nothing is recomputed here.
func NewPredictionService(model *ml.GradientBoostedClassifier, encoders *preprocessing.EncoderSet, heuristics utils.HeuristicsConfig) (*PredictionService, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model is not usable: %w", err)
	}
	if encoders == nil {
		return nil, fmt.Errorf("encoder set is required")
	}
	if len(encoders.FeatureOrder) != model.NumFeatures {
		return nil, fmt.Errorf("encoder set records %d features but model expects %d",
			len(encoders.FeatureOrder), model.NumFeatures)
	}
	return &PredictionService{
		model:    model,
		encoders: encoders,
		deriver:  NewFeatureDeriver(heuristics),
		logger:   utils.GetLogger(),
	}, nil
}

// LoadPredictionService loads the model and encoder-set artifacts from
// disk and builds a service. Called once at process start; any failure
// here must prevent the process from serving traffic.
func LoadPredictionService(modelDir, processedDir string, heuristics utils.HeuristicsConfig) (*PredictionService, error) {
	model := &ml.GradientBoostedClassifier{}
	modelPath := filepath.Join(modelDir, ml.ModelFile)
	if err := model.Load(modelPath); err != nil {
		return nil, pipelines.NewDataLoadError(modelPath, "failed to load model", err)
	}
	encoders, err := preprocessing.LoadEncoderSet(filepath.Join(processedDir, preprocessing.EncodersFile))
	if err != nil {
		return nil, err
	}
	return NewPredictionService(model, encoders, heuristics)
}

// Locations returns the trained location categories for the form's
// enumerated choice, in mapping order
func (ps *PredictionService) Locations() []string {
	if enc := ps.encoders.Encoder("Location"); enc != nil {
		return enc.Classes
	}
	return nil
}

// ModelInfo returns summary information about the loaded model
func (ps *PredictionService) ModelInfo() map[string]any {
	return ps.model.ModelInfo()
}

// FeatureOrder returns the column order vectors are assembled in
func (ps *PredictionService) FeatureOrder() []string {
	return ps.encoders.FeatureOrder
}

// Predict validates a raw request, derives the full feature set, encodes
// it with the training-time mapping and invokes the model.
//
// A failed validation is reported through the ValidationResult, not an
// error; errors mean the request was valid but inference itself failed.
func (ps *PredictionService) Predict(req Request) (*Prediction, ValidationResult, error) {
	locations := ps.encoders.Encoder("Location")
	input, result := Validate(req, func(loc string) bool {
		return locations != nil && locations.Contains(loc)
	})
	if !result.Valid() {
		return nil, result, nil
	}

	derived := ps.deriver.Derive(input)
	vector, err := ps.assembleVector(derived)
	if err != nil {
		return nil, result, err
	}

	proba, err := ps.model.PredictProba(vector)
	if err != nil {
		return nil, result, pipelines.NewInferenceError("model rejected feature vector", err)
	}

	rain := proba >= 0.5
	display := "Rain Tomorrow: No"
	if rain {
		display = "Rain Tomorrow: Yes"
	}
	return &Prediction{
		RainTomorrow: rain,
		Probability:  proba,
		Display:      display,
	}, result, nil
}

// assembleVector encodes categoricals and packs every feature in the
// exact training column order recorded by preprocessing
func (ps *PredictionService) assembleVector(derived Derived) ([]float64, error) {
	categorical := map[string]string{
		"Location":    derived.Location,
		"WindGustDir": derived.WindGustDir,
		"WindDir9am":  derived.WindDir9am,
		"WindDir3pm":  derived.WindDir3pm,
		"RainToday":   derived.RainToday,
	}

	vector := make([]float64, len(ps.encoders.FeatureOrder))
	for i, name := range ps.encoders.FeatureOrder {
		if label, ok := categorical[name]; ok {
			encoder := ps.encoders.Encoder(name)
			if encoder == nil {
				return nil, pipelines.NewInferenceError(
					fmt.Sprintf("no encoder for categorical feature %q", name), nil)
			}
			code, err := encoder.Encode(label)
			if err != nil {
				return nil, pipelines.NewInferenceError(
					fmt.Sprintf("cannot encode feature %q", name), err)
			}
			vector[i] = float64(code)
			continue
		}
		value, ok := derived.Numeric[name]
		if !ok {
			return nil, pipelines.NewInferenceError(
				fmt.Sprintf("no derivation rule for feature %q", name), nil)
		}
		vector[i] = value
	}
	return vector, nil
}
