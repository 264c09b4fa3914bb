package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bizdash/internal/log"
)

// Job is one run of a periodic task.
type Job func(ctx context.Context, now time.Time) error

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// Interval is how often the job runs (default: 1h)
	Interval time.Duration

	// Name identifies the job in logs
	Name string
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: time.Hour,
		Name:     "billing",
	}
}

// Scheduler runs a job immediately on start and then on every tick until stopped.
type Scheduler struct {
	job    Job
	config SchedulerConfig
	logger *log.Logger
	now    func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(job Job, config SchedulerConfig, logger *log.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		job:    job,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// BillingJob adapts a BillingProcessor to a Job.
func BillingJob(p *BillingProcessor) Job {
	return func(ctx context.Context, now time.Time) error {
		_, err := p.ProcessDue(ctx, now)
		return err
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler %s is already running", s.config.Name)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Scheduler started",
		"job", s.config.Name,
		"interval", s.config.Interval)

	return nil
}

// Stop gracefully stops the scheduler and waits for the running job.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully", "job", s.config.Name)
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out", "job", s.config.Name)
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.job(ctx, s.now()); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled job failed",
			"job", s.config.Name,
			log.FieldError, err)
		return
	}
	s.logger.DebugContext(ctx, "Scheduled job finished",
		"job", s.config.Name,
		log.FieldDuration, time.Since(start).Milliseconds())
}
