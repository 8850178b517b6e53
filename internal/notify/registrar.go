package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/storage"
)

// SQLRegistrar keeps registered alerts in the alerts table. It behaves like a
// device notification scheduler: repeating triggers re-arm themselves after
// firing, one-shot triggers are dropped and must be registered again.
type SQLRegistrar struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a SQLRegistrar.
type Option func(*SQLRegistrar)

// WithClock sets the clock used to compute the first fire time of repeating
// triggers. Its location decides the wall-clock zone of those triggers.
func WithClock(now func() time.Time) Option {
	return func(r *SQLRegistrar) {
		r.now = now
	}
}

func NewSQLRegistrar(db *sql.DB, opts ...Option) *SQLRegistrar {
	r := &SQLRegistrar{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores the alert and returns its handle.
func (r *SQLRegistrar) Register(ctx context.Context, alert Alert) (string, error) {
	alert.FireAt = alert.Trigger.NextAfter(r.now())
	if alert.Trigger.Kind == care.TriggerOnce && alert.Trigger.At.IsZero() {
		return "", fmt.Errorf("one-shot trigger has no timestamp")
	}

	trigger, err := json.Marshal(alert.Trigger)
	if err != nil {
		return "", fmt.Errorf("failed to encode trigger: %w", err)
	}
	payload, err := json.Marshal(alert.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	handle := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alerts (handle, reminder_id, trigger_json, title, body, payload, fire_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, handle, alert.ReminderID, string(trigger), alert.Title, alert.Body, string(payload),
		formatTime(alert.FireAt), formatTime(r.now()))
	if err != nil {
		return "", fmt.Errorf("failed to register alert: %w", err)
	}

	return handle, nil
}

// Cancel removes a registered alert. Unknown or empty handles are ignored.
func (r *SQLRegistrar) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE handle = ?`, handle); err != nil {
		return fmt.Errorf("failed to cancel alert: %w", err)
	}
	return nil
}

// Active reports whether handle is still registered.
func (r *SQLRegistrar) Active(ctx context.Context, handle string) (bool, error) {
	if handle == "" {
		return false, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE handle = ?`, handle).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up alert: %w", err)
	}
	return n > 0, nil
}

// Pending returns every registered alert ordered by fire time.
func (r *SQLRegistrar) Pending(ctx context.Context) ([]Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT handle, reminder_id, trigger_json, title, body, payload, fire_at
		FROM alerts ORDER BY fire_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// Due returns the alerts whose fire time is at or before now. Repeating
// alerts are re-armed to their next occurrence after now; one-shot alerts are
// removed.
func (r *SQLRegistrar) Due(ctx context.Context, now time.Time) ([]Alert, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT handle, reminder_id, trigger_json, title, body, payload, fire_at
		FROM alerts WHERE fire_at <= ? ORDER BY fire_at ASC
	`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query due alerts: %w", err)
	}
	due, err := scanAlerts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, a := range due {
		if a.Trigger.Repeating() {
			next := a.Trigger.NextAfter(now)
			_, err = tx.ExecContext(ctx, `UPDATE alerts SET fire_at = ? WHERE handle = ?`, formatTime(next), a.Handle)
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM alerts WHERE handle = ?`, a.Handle)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update fired alert %s: %w", a.Handle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fired alerts: %w", err)
	}
	return due, nil
}

func scanAlerts(rows *sql.Rows) ([]Alert, error) {
	var alerts []Alert
	for rows.Next() {
		var a Alert
		var trigger, payload, fireAt string

		if err := rows.Scan(&a.Handle, &a.ReminderID, &trigger, &a.Title, &a.Body, &payload, &fireAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if err := json.Unmarshal([]byte(trigger), &a.Trigger); err != nil {
			return nil, fmt.Errorf("failed to decode trigger of alert %s: %w", a.Handle, err)
		}
		if err := json.Unmarshal([]byte(payload), &a.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of alert %s: %w", a.Handle, err)
		}
		fired, err := time.Parse(storage.TimeLayout, fireAt)
		if err != nil {
			return nil, fmt.Errorf("invalid fire time of alert %s: %w", a.Handle, err)
		}
		a.FireAt = fired

		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storage.TimeLayout)
}
