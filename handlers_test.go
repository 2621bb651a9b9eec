package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ml "github.com/weatherops/raincast/pipelines/ML"
	preprocessing "github.com/weatherops/raincast/pipelines/Preprocessing"
	"github.com/weatherops/raincast/utils"
)

var testFeatureOrder = []string{
	"Location", "MinTemp", "MaxTemp", "Rainfall", "RainToday",
	"Year", "Month", "Day",
}

const testTemplate = `<!DOCTYPE html>
<html><body>
{{if .Error}}<div class="banner-error">{{.Error}}</div>{{end}}
{{if .Result}}<div class="banner-result">{{.Result}}</div>{{end}}
<form method="POST">
<select name="location">{{range .Locations}}<option>{{.}}</option>{{end}}</select>
<input name="humidity_3pm" value="{{.Values.Humidity3pm}}">
<input name="rainfall" value="{{.Values.Rainfall}}">
</form>
</body></html>`

// writeTestArtifacts trains a tiny model and persists it with its
// encoder set in the layout the server loads at startup
func writeTestArtifacts(t *testing.T, modelDir, processedDir string) {
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
		NumRounds:    10,
		LearningRate: 0.3,
		MaxDepth:     2,
	})
	require.NoError(t, model.Train(X, y, testFeatureOrder))

	require.NoError(t, os.MkdirAll(modelDir, 0755))
	require.NoError(t, os.MkdirAll(processedDir, 0755))
	require.NoError(t, model.Save(filepath.Join(modelDir, ml.ModelFile)))

	encoders := &preprocessing.EncoderSet{
		Encoders: map[string]*preprocessing.LabelEncoder{
			"Location":  preprocessing.FitLabelEncoder("Location", []string{"Sydney", "Melbourne"}),
			"RainToday": preprocessing.FitLabelEncoder("RainToday", []string{"Yes", "No"}),
		},
		FeatureOrder: testFeatureOrder,
		TargetColumn: "RainTomorrow",
	}
	require.NoError(t, encoders.Save(filepath.Join(processedDir, preprocessing.EncodersFile)))
}

// createTestServer builds a server over freshly written test artifacts
func createTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models")
	processedDir := filepath.Join(dir, "processed")
	templateDir := filepath.Join(dir, "templates")
	writeTestArtifacts(t, modelDir, processedDir)

	require.NoError(t, os.MkdirAll(templateDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "index.html"), []byte(testTemplate), 0644))

	config := utils.NewConfigManager().GetConfig()
	config.Paths.ModelDir = modelDir
	config.Paths.ProcessedDir = processedDir
	config.Paths.TemplateDir = templateDir
	config.Paths.StaticDir = filepath.Join(dir, "static")

	server, err := NewServer(config)
	require.NoError(t, err, "failed to create server")
	t.Cleanup(server.Shutdown)
	return server
}

func validForm() url.Values {
	return url.Values{
		"location":       {"Sydney"},
		"date":           {"2024-06-15"},
		"min_temp":       {"13.0"},
		"max_temp":       {"23.0"},
		"humidity_3pm":   {"55"},
		"wind_speed_3pm": {"20"},
		"rainfall":       {"0.0"},
	}
}

func postForm(server *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)
	return rr
}

func TestHandleIndex(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Sydney", "the form should list trained locations")
	assert.NotContains(t, body, "banner-error")
}

func TestHandlePredictFormHappyPath(t *testing.T) {
	server := createTestServer(t)

	rr := postForm(server, validForm())

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Rain Tomorrow:")
}

func TestHandlePredictFormValidationError(t *testing.T) {
	server := createTestServer(t)

	form := validForm()
	form.Set("humidity_3pm", "150")
	rr := postForm(server, form)

	// A rejected form is still a rendered page, not an HTTP error
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "banner-error")
	assert.Contains(t, body, "Humidity3pm")
	assert.Contains(t, body, `value="150"`, "submitted values must be preserved")
	assert.NotContains(t, body, "Rain Tomorrow:")
}

func TestHandleHealth(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.NotNil(t, response["model"])
}

func TestHandlePredictAPI(t *testing.T) {
	server := createTestServer(t)

	t.Run("valid request", func(t *testing.T) {
		payload := `{"Location":"Sydney","Date":"2024-06-15","MinTemp":"13.0","MaxTemp":"23.0","Humidity3pm":"55","WindSpeed3pm":"20","Rainfall":"9.0"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		server.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, true, response["success"])
	})

	t.Run("invalid request", func(t *testing.T) {
		payload := `{"Location":"Atlantis","Date":"2024-06-15","MinTemp":"13.0","MaxTemp":"23.0","Humidity3pm":"55","WindSpeed3pm":"20"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		server.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader("{"))
		rr := httptest.NewRecorder()
		server.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleModelInfo(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/model", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	data := response["data"].(map[string]any)
	assert.NotNil(t, data["model"])
	assert.NotNil(t, data["feature_order"])
}

func TestHandleListRunsDisabled(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewServerFailsWithoutModel(t *testing.T) {
	dir := t.TempDir()
	config := utils.NewConfigManager().GetConfig()
	config.Paths.ModelDir = filepath.Join(dir, "models")
	config.Paths.ProcessedDir = filepath.Join(dir, "processed")
	config.Paths.TemplateDir = filepath.Join(dir, "templates")

	_, err := NewServer(config)
	assert.Error(t, err, "a server without a trained model must not start")
}
