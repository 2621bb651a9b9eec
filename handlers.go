package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	inference "github.com/weatherops/raincast/pipelines/Inference"
	"github.com/weatherops/raincast/utils"
)

// formPage is the data handed to the index template. Values holds the
// raw submitted strings so a rejected form comes back filled in.
type formPage struct {
	Locations []string
	Values    inference.Request
	Error     string
	Result    string
}

// defaultFormValues pre-fills the form for a first visit
func defaultFormValues() inference.Request {
	return inference.Request{
		Location:     "Sydney",
		Date:         time.Now().Format("2006-01-02"),
		MinTemp:      "13.0",
		MaxTemp:      "23.0",
		Humidity3pm:  "55",
		WindSpeed3pm: "20",
		Rainfall:     "0.0",
	}
}

// handleIndex renders the empty prediction form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, formPage{
		Locations: s.predictor.Locations(),
		Values:    defaultFormValues(),
	})
}

// handlePredictForm handles a form submission. Validation failures
// re-render the form with an error banner and the submitted values;
// the page itself is still a successful response.
func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequestResponse(w, "malformed form data")
		return
	}

	req := requestFromForm(r)
	page := formPage{
		Locations: s.predictor.Locations(),
		Values:    req,
	}

	prediction, result, err := s.predictor.Predict(req)
	if err != nil {
		utils.GetLogger().Error("Prediction failed", err,
			utils.RequestID(requestIDFromContext(r.Context())),
			utils.Component("handlers"))
		writeInternalServerErrorResponse(w, "")
		return
	}
	if !result.Valid() {
		page.Error = result.Message()
		s.renderForm(w, page)
		return
	}

	page.Result = prediction.Display
	s.renderForm(w, page)
}

func requestFromForm(r *http.Request) inference.Request {
	return inference.Request{
		Location:     r.FormValue("location"),
		Date:         r.FormValue("date"),
		MinTemp:      r.FormValue("min_temp"),
		MaxTemp:      r.FormValue("max_temp"),
		Humidity3pm:  r.FormValue("humidity_3pm"),
		WindSpeed3pm: r.FormValue("wind_speed_3pm"),
		Rainfall:     r.FormValue("rainfall"),
	}
}

func (s *Server) renderForm(w http.ResponseWriter, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		utils.GetLogger().Error("Template rendering failed", err,
			utils.Component("handlers"))
	}
}

// handleHealth returns liveness and component status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   raincastVersion,
		"model":     s.predictor.ModelInfo(),
	}
	if s.scheduler != nil {
		health["scheduler"] = s.scheduler.Status()
	}
	writeJSONResponse(w, http.StatusOK, health)
}

// handlePredictAPI accepts the same fields as the form as JSON
func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var req inference.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, "invalid JSON body")
		return
	}

	prediction, result, err := s.predictor.Predict(req)
	if err != nil {
		utils.GetLogger().Error("Prediction failed", err,
			utils.RequestID(requestIDFromContext(r.Context())),
			utils.Component("handlers"))
		writeInternalServerErrorResponse(w, "")
		return
	}
	if !result.Valid() {
		writeJSONResponse(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"errors": result.Errors,
		})
		return
	}

	writeSuccessResponse(w, prediction)
}

// handleModelInfo returns summary information about the loaded model
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeSuccessResponse(w, map[string]any{
		"model":         s.predictor.ModelInfo(),
		"feature_order": s.predictor.FeatureOrder(),
		"locations":     s.predictor.Locations(),
	})
}

// handleListRuns returns recent pipeline runs from the history store
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runStore == nil {
		writeErrorResponse(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	runs, err := s.runStore.ListRuns(r.Context(), parseLimit(r, 50))
	if err != nil {
		writeInternalServerErrorResponse(w, "failed to list runs")
		return
	}
	writeSuccessResponse(w, runs)
}

// handleGetRun returns one pipeline run by ID
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runStore == nil {
		writeErrorResponse(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	id := mux.Vars(r)["id"]
	run, err := s.runStore.GetRun(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	writeSuccessResponse(w, run)
}
