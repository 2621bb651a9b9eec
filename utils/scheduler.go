package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetrainFunc runs one full preprocessing and training pass
type RetrainFunc func(ctx context.Context) error

// Scheduler triggers periodic model retraining on a cron expression.
// The run itself is injected so the scheduler stays free of pipeline
// dependencies.
type Scheduler struct {
	cron     *cron.Cron
	expr     string
	retrain  RetrainFunc
	logger   *Logger
	mutex    sync.Mutex
	running  bool
	lastRun  *time.Time
	lastErr  error
	runCount int
}

// NewScheduler creates a scheduler for the given cron expression
func NewScheduler(expr string, retrain RetrainFunc) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		expr:    expr,
		retrain: retrain,
		logger:  GetLogger(),
	}
}

// Start registers the retraining job and begins the cron loop
func (s *Scheduler) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if s.retrain == nil {
		return fmt.Errorf("no retrain function configured")
	}

	if _, err := s.cron.AddFunc(s.expr, s.runOnce); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.expr, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("Retraining scheduler started",
		String("cron_expr", s.expr),
		Component("scheduler"))
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.running = false
	s.mutex.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Retraining scheduler stopped", Component("scheduler"))
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	s.logger.Info("Scheduled retraining started", Component("scheduler"))

	err := s.retrain(context.Background())

	s.mutex.Lock()
	s.lastRun = &start
	s.lastErr = err
	s.runCount++
	s.mutex.Unlock()

	if err != nil {
		s.logger.Error("Scheduled retraining failed", err,
			Float("duration_s", time.Since(start).Seconds()),
			Component("scheduler"))
		return
	}
	s.logger.Info("Scheduled retraining completed",
		Float("duration_s", time.Since(start).Seconds()),
		Component("scheduler"))
}

// Status reports the scheduler state for the health endpoint
func (s *Scheduler) Status() map[string]any {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	status := map[string]any{
		"running":   s.running,
		"cron_expr": s.expr,
		"run_count": s.runCount,
	}
	if s.lastRun != nil {
		status["last_run"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}
