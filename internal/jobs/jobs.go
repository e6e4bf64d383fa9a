// Package jobs runs periodic housekeeping: expiring abandoned pack drafts,
// stale removal tokens and cooldown entries.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs every five minutes. The first field is seconds.
const DefaultSchedule = "0 */5 * * * *"

// Sweep removes expired entries and returns how many it removed.
type Sweep func() int

type task struct {
	name  string
	sweep Sweep
}

// Scheduler runs registered sweeps on one cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	tasks    []task
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithSchedule overrides DefaultSchedule.
func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// New creates a scheduler. Nothing runs until Start.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		schedule: DefaultSchedule,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	l := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	return s
}

// Add registers a sweep. Call before Start.
func (s *Scheduler) Add(name string, sweep Sweep) {
	s.tasks = append(s.tasks, task{name: name, sweep: sweep})
}

// Start validates the schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("packbot/jobs: schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("housekeeping scheduled", "schedule", s.schedule, "tasks", len(s.tasks))
	return nil
}

// Stop stops the schedule and waits for a running sweep, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs every sweep now.
func (s *Scheduler) RunOnce() {
	for _, t := range s.tasks {
		if n := t.sweep(); n > 0 {
			s.logger.Debug("sweep removed entries", "task", t.name, "removed", n)
		}
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
