// Package schedule runs periodic background jobs, such as refreshing the
// day-count card, on standard cron specs.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "medcalc/internal/log"
)

// Job is a unit of scheduled work. The context is canceled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner so every job run is logged with its outcome.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a scheduler that evaluates specs in loc (time.Local if nil).
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name to run on the 5-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if job == nil {
		return errors.New("schedule: nil job")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule %s: invalid spec %q: %w", name, spec, err)
	}
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	appLog.Info("job scheduled", "name", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		appLog.Error("scheduled job failed", err, "name", name, "elapsed", time.Since(start).Round(time.Millisecond))
		return
	}
	appLog.Info("scheduled job finished", "name", name, "elapsed", time.Since(start).Round(time.Millisecond))
}

// Next returns the next activation time of each registered job.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Next)
	}
	return out
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish or for ctx to
// expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
