package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SchedulerConfig sets the periodic job intervals.
type SchedulerConfig struct {
	SummarizeInterval time.Duration
	SuggestInterval   time.Duration

	// AgentType is recorded as the producer of scheduled suggestions.
	AgentType string
}

// Scheduler runs summarization and suggestion generation periodically over
// the workspaces with recent activity.
type Scheduler struct {
	engine    *Engine
	scheduler gocron.Scheduler
	config    SchedulerConfig
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler. Jobs start with Start.
func NewScheduler(e *Engine, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.SummarizeInterval <= 0 || cfg.SuggestInterval <= 0 {
		return nil, fmt.Errorf("scheduler intervals must be positive")
	}
	if cfg.AgentType == "" {
		cfg.AgentType = "proactive"
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		engine:    e,
		scheduler: s,
		config:    cfg,
		logger:    e.Logger().With("component", "scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(s.config.SummarizeInterval),
		gocron.NewTask(s.runSummaries),
		gocron.WithName("summarize-active"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to register summarize job: %w", err)
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(s.config.SuggestInterval),
		gocron.NewTask(s.runSuggestions),
		gocron.WithName("suggest-active"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to register suggest job: %w", err)
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started",
		"summarize_every", s.config.SummarizeInterval, "suggest_every", s.config.SuggestInterval)
	return nil
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSummaries() {
	started := s.engine.now()
	n, err := s.engine.SummarizeActive(s.ctx)
	if err != nil {
		s.logger.Error("summarize job failed", "error", err)
		return
	}
	s.logger.Info("summarize job finished", "created", n, "started_at", started)
}

func (s *Scheduler) runSuggestions() {
	started := s.engine.now()
	n, err := s.engine.SuggestActive(s.ctx, s.config.AgentType)
	if err != nil {
		s.logger.Error("suggest job failed", "error", err)
		return
	}
	s.logger.Info("suggest job finished", "created", n, "started_at", started)
}
