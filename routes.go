package main

import (
	"net/http"
)

// setupRoutes sets up the HTTP routes with API versioning
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)

	// Form UI
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/", s.handlePredictForm).Methods("POST")

	// Health check (no version)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// JSON API
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/predict", s.handlePredictAPI).Methods("POST")
	v1.HandleFunc("/model", s.handleModelInfo).Methods("GET")
	v1.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	v1.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")

	// Static assets
	s.router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.Paths.StaticDir))))
}
