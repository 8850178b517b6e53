// Package scheduler fires registered alerts, delivers them and keeps the
// alert registry in step with stored reminders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
	"github.com/notexe/plant-care/internal/reminder"
)

// AlertSource hands out alerts whose trigger has fired.
type AlertSource interface {
	Due(ctx context.Context, now time.Time) ([]notify.Alert, error)
}

// Reminders is the part of the reminder service the scheduler drives.
type Reminders interface {
	Due(ctx context.Context) ([]reminder.Record, error)
	Renotify(ctx context.Context, id string) (*reminder.Record, error)
	Reconcile(ctx context.Context) (reminder.ReconcileResult, error)
}

// Scheduler polls for fired alerts and sends them.
type Scheduler struct {
	alerts    AlertSource
	sender    notify.Sender
	reminders Reminders
	logger    *logging.Logger
	interval  time.Duration
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock; its location decides when repeating alerts fire.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// New creates a Scheduler that polls once a minute by default.
func New(alerts AlertSource, sender notify.Sender, reminders Reminders, logger *logging.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		alerts:    alerts,
		sender:    sender,
		reminders: reminders,
		logger:    logger.WithComponent("scheduler"),
		interval:  time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks and runs Tick on interval + immediately on start.
// It exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	s.logger.Infow("Scheduler started", "interval", s.interval.String())

	// Run immediately on start
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick sends every fired alert, re-issues one-shot alerts for reminders that
// are still not done, and then reconciles the registry.
func (s *Scheduler) Tick(ctx context.Context) {
	start := time.Now()
	defer func() { TickDuration.Observe(time.Since(start).Seconds()) }()

	fired, err := s.alerts.Due(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to collect fired alerts")
	}

	for _, alert := range fired {
		AlertsFired.WithLabelValues(string(alert.Trigger.Kind)).Inc()
		log := s.logger.WithReminder(alert.ReminderID)

		if err := s.sender.Send(ctx, alert); err != nil {
			AlertSendFailures.Inc()
			log.WithError(err).Warnw("Failed to send alert", "handle", alert.Handle)
		} else {
			log.Infow("Alert sent", "title", alert.Title, "trigger", alert.Trigger.String())
		}

		if alert.Trigger.Repeating() {
			continue
		}
		if _, err := s.reminders.Renotify(ctx, alert.ReminderID); err != nil && !errors.Is(err, reminder.ErrNotFound) {
			log.WithError(err).Warn("Failed to re-issue alert")
		}
	}

	res, err := s.reminders.Reconcile(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Reconcile finished with errors")
	}
	AlertsReconciled.WithLabelValues("registered").Add(float64(res.Registered))
	AlertsReconciled.WithLabelValues("cancelled").Add(float64(res.Cancelled))

	due, err := s.reminders.Due(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count due reminders")
		return
	}
	RemindersDue.Set(float64(len(due)))
	s.logger.Debugw("Tick finished", "fired", len(fired), "due", len(due))
}
