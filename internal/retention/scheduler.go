package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is anything that performs one retention run
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Scheduler triggers retention runs on a cron schedule
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler validates the standard five-field schedule and registers the
// runner with it. The scheduler is idle until Start.
func NewScheduler(schedule string, runner Runner, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("cron invalid: %w", err)
	}

	s := &Scheduler{cron: cron.New(), log: log}
	_, err := s.cron.AddFunc(schedule, func() {
		report, err := runner.Run(context.Background())
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			// already logged by the job
		case err != nil:
			log.Error("Scheduled retention run finished with errors", zap.Error(err))
		default:
			log.Info("Scheduled retention run finished", zap.Int("policies", len(report.Policies)))
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Retention scheduler started")
}

// Stop stops scheduling and waits for a running job until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Retention run still in progress at shutdown")
	}
}

// Entries returns the number of registered schedules
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
