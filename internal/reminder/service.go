package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
)

// Service owns the reminder lifecycle: it keeps stored reminders and their
// registered alerts in step.
type Service struct {
	store       *Store
	registrar   notify.Registrar
	logger      *logging.Logger
	now         func() time.Time
	defaultTime string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the clock. Its location is the zone of alert wall-clock
// times and of "today".
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithDefaultTime sets the preferred time given to reminders created without
// one.
func WithDefaultTime(preferred string) ServiceOption {
	return func(s *Service) {
		s.defaultTime = preferred
	}
}

func NewService(store *Store, registrar notify.Registrar, logger *logging.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		registrar: registrar,
		logger:    logger.WithComponent("reminder"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() care.Date {
	return care.DateOf(s.now())
}

// Create validates the input, computes the first due date, stores the
// reminder and registers its alert if it is enabled.
func (s *Service) Create(ctx context.Context, in Input) (*Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := in.reminder()
	if err != nil {
		return nil, err
	}
	if r.PreferredTime == "" {
		r.PreferredTime = s.defaultTime
	}

	r.ID = uuid.NewString()
	r = care.Reschedule(r)

	rec, err := s.store.Add(ctx, Record{Reminder: r})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Reminder created",
		"reminder_id", rec.ID,
		"type", rec.Type,
		"frequency", rec.Frequency,
		"next_due", rec.NextDue.String(),
	)

	s.arm(ctx, rec)
	return rec, nil
}

// Get returns a reminder by id or unique id prefix.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// List returns reminders filtered by status.
func (s *Service) List(ctx context.Context, status string) ([]Record, error) {
	return s.store.List(ctx, status)
}

// Due returns enabled reminders due today or overdue.
func (s *Service) Due(ctx context.Context) ([]Record, error) {
	return s.store.ListDue(ctx, s.today())
}

// Edit replaces every field of a reminder except its id and completion
// history, then recomputes the due date from the (possibly new) start date
// and frequency. A nil in.Enabled keeps the current value.
func (s *Service) Edit(ctx context.Context, id string, in Input) (*Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r, err := in.reminder()
	if err != nil {
		return nil, err
	}
	if r.PreferredTime == "" {
		r.PreferredTime = s.defaultTime
	}
	if in.Enabled == nil {
		r.Enabled = rec.Enabled
	}
	r.ID = rec.ID
	r.LastCompleted = rec.LastCompleted
	r = care.Reschedule(r)

	s.disarm(ctx, rec)
	rec.Reminder = r
	updated, err := s.store.Save(ctx, *rec)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Reminder edited", "reminder_id", updated.ID, "next_due", updated.NextDue.String())

	s.arm(ctx, updated)
	return updated, nil
}

// SetEnabled turns alerting on or off without changing the due date.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !enabled {
		s.disarm(ctx, rec)
	}
	rec.Reminder = care.SetEnabled(rec.Reminder, enabled)
	updated, err := s.store.Save(ctx, *rec)
	if err != nil {
		return nil, err
	}
	if enabled && updated.AlertHandle == "" {
		s.arm(ctx, updated)
	}

	s.logger.Infow("Reminder alerting changed", "reminder_id", updated.ID, "enabled", enabled)
	return updated, nil
}

// Toggle flips the enabled flag.
func (s *Service) Toggle(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetEnabled(ctx, rec.ID, !rec.Enabled)
}

// MarkCompleted records a completion on the given date (today when zero),
// advances the due date and registers the alert for the next occurrence if
// the reminder is enabled.
func (s *Service) MarkCompleted(ctx context.Context, id string, on care.Date) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.today()
	if on.IsZero() {
		on = today
	}
	if on.After(today) {
		return nil, fmt.Errorf("completion date %s is in the future", on)
	}

	from := rec.State(today)

	// Cancel before writing so a crash between the steps leaves no orphaned
	// alert; a missing alert is re-derived by Reconcile.
	s.disarm(ctx, rec)
	rec.Reminder = care.Complete(rec.Reminder, on, today)
	updated, err := s.store.Save(ctx, *rec)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Reminder completed",
		"reminder_id", updated.ID,
		"from", from,
		"via", care.StateCompleted,
		"to", updated.State(today),
		"completed_on", on.String(),
		"next_due", updated.NextDue.String(),
	)

	s.arm(ctx, updated)
	return updated, nil
}

// Delete cancels the reminder's alert and removes it.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.registrar.Cancel(ctx, rec.AlertHandle); err != nil {
		return fmt.Errorf("failed to cancel alert of reminder %s: %w", rec.ID, err)
	}
	if err := s.store.Delete(ctx, rec.ID); err != nil {
		return err
	}

	s.logger.Infow("Reminder deleted", "reminder_id", rec.ID)
	return nil
}

// PreviewTrigger returns the trigger the reminder would register now.
func (s *Service) PreviewTrigger(ctx context.Context, id string) (care.Trigger, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return care.Trigger{}, err
	}
	return care.BuildAlertTrigger(rec.Reminder, s.now()), nil
}

// Renotify re-issues the alert of a reminder whose one-shot alert just fired.
// The reminder has already been notified for its due date, so the next
// notification is tomorrow at its preferred time until it is completed.
func (s *Service) Renotify(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Enabled {
		return rec, nil
	}

	today := s.today()
	nag := rec.Reminder
	if !nag.NextDue.After(today) {
		nag.NextDue = today.AddDays(-1)
	}

	s.disarm(ctx, rec)
	s.register(ctx, rec, care.BuildAlertTrigger(nag, s.now()))
	return rec, nil
}

// ReconcileResult counts what a reconciliation pass changed.
type ReconcileResult struct {
	Registered int
	Cancelled  int
}

// Reconcile re-derives alerts from stored due dates: every enabled reminder
// without an active alert gets one, and disabled reminders that still hold
// an alert lose it. It repairs the gap left when a process stops between a
// state write and the alert registration. Alerts no reminder points at are
// cancelled last.
func (s *Service) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	recs, err := s.store.List(ctx, StatusAll)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, listed := range recs {
		// Another process may have completed, edited or deleted the reminder
		// since the list was read.
		rec, err := s.store.Get(ctx, listed.ID)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !rec.Enabled {
			if rec.AlertHandle != "" {
				s.disarm(ctx, rec)
				res.Cancelled++
			}
			continue
		}

		active, err := s.registrar.Active(ctx, rec.AlertHandle)
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %s: %w", rec.ID, err))
			continue
		}
		if active {
			continue
		}

		rec.AlertHandle = ""
		if s.arm(ctx, rec) {
			res.Registered++
		}
	}

	swept, err := s.sweep(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	res.Cancelled += swept

	if res.Registered > 0 || res.Cancelled > 0 {
		s.logger.Infow("Alerts reconciled", "registered", res.Registered, "cancelled", res.Cancelled)
	}
	return res, errors.Join(errs...)
}

// sweep cancels registered alerts whose handle is not the current handle of
// their reminder, including alerts of deleted reminders. Alerts are listed
// before reminders, so an alert registered by another process whose handle
// is not stored yet may be cancelled; the next pass registers it again.
func (s *Service) sweep(ctx context.Context) (int, error) {
	alerts, err := s.registrar.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	recs, err := s.store.List(ctx, StatusAll)
	if err != nil {
		return 0, err
	}
	current := make(map[string]string, len(recs))
	for _, rec := range recs {
		current[rec.ID] = rec.AlertHandle
	}

	var (
		swept int
		errs  []error
	)
	for _, alert := range alerts {
		if handle, ok := current[alert.ReminderID]; ok && handle == alert.Handle {
			continue
		}
		if err := s.registrar.Cancel(ctx, alert.Handle); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.WithReminder(alert.ReminderID).Infow("Cancelled orphaned alert", "handle", alert.Handle)
		swept++
	}
	return swept, errors.Join(errs...)
}

// arm registers the alert for an enabled reminder and stores the handle.
// Failures are logged; Reconcile retries them.
func (s *Service) arm(ctx context.Context, rec *Record) bool {
	if !rec.Enabled {
		return false
	}
	return s.register(ctx, rec, care.BuildAlertTrigger(rec.Reminder, s.now()))
}

func (s *Service) register(ctx context.Context, rec *Record, trigger care.Trigger) bool {
	log := s.logger.WithReminder(rec.ID)

	alert := notify.Alert{
		ReminderID: rec.ID,
		Title:      care.AlertTitle(rec.Reminder),
		Body:       care.AlertBody(rec.Reminder),
		Payload: map[string]string{
			"reminder_id": rec.ID,
			"plant_id":    rec.PlantID,
			"type":        string(rec.Type),
			"next_due":    rec.NextDue.String(),
		},
		Trigger: trigger,
	}

	handle, err := s.registrar.Register(ctx, alert)
	if err != nil {
		log.WithError(err).Warnw("Failed to register alert")
		return false
	}
	if err := s.store.SetAlertHandle(ctx, rec.ID, handle); err != nil {
		log.WithError(err).Warnw("Failed to store alert handle")
		_ = s.registrar.Cancel(ctx, handle)
		return false
	}

	rec.AlertHandle = handle
	log.Debugw("Alert registered", "handle", handle, "trigger", trigger.String())
	return true
}

// disarm cancels the registered alert, if any, and clears the stored handle.
func (s *Service) disarm(ctx context.Context, rec *Record) {
	if rec.AlertHandle == "" {
		return
	}
	log := s.logger.WithReminder(rec.ID)

	if err := s.registrar.Cancel(ctx, rec.AlertHandle); err != nil {
		log.WithError(err).Warnw("Failed to cancel alert", "handle", rec.AlertHandle)
	}
	if err := s.store.SetAlertHandle(ctx, rec.ID, ""); err != nil {
		log.WithError(err).Warnw("Failed to clear alert handle")
	}
	rec.AlertHandle = ""
}
