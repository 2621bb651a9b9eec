package main

import (
	"context"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/gorilla/mux"
	inference "github.com/weatherops/raincast/pipelines/Inference"
	"github.com/weatherops/raincast/utils"
)

// Server serves the prediction form and the JSON API
type Server struct {
	router    *mux.Router
	predictor *inference.PredictionService
	templates *template.Template
	config    *utils.Config
	runStore  *utils.RunStore
	scheduler *utils.Scheduler
}

// NewServer loads the model artifacts and wires up routing. Artifact
// loading happens here, once, so a missing or corrupt model fails the
// process at startup instead of surfacing on the first request.
func NewServer(config *utils.Config) (*Server, error) {
	predictor, err := inference.LoadPredictionService(
		config.Paths.ModelDir, config.Paths.ProcessedDir, config.Heuristics)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction service: %w", err)
	}

	templates, err := template.ParseGlob(filepath.Join(config.Paths.TemplateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    mux.NewRouter(),
		predictor: predictor,
		templates: templates,
		config:    config,
		runStore:  openRunStore(config),
	}

	if config.Scheduler.Enabled {
		runner := NewPipelineRunner(config, s.runStore)
		s.scheduler = utils.NewScheduler(config.Scheduler.CronExpr, func(ctx context.Context) error {
			return runner.Run(ctx, "scheduled")
		})
		if err := s.scheduler.Start(); err != nil {
			return nil, fmt.Errorf("failed to start retraining scheduler: %w", err)
		}
	}

	s.setupRoutes()
	return s, nil
}

// Shutdown stops background components. The HTTP listener itself is
// shut down by the caller.
func (s *Server) Shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.runStore != nil {
		s.runStore.Close()
	}
}
