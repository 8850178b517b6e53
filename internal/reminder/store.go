package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/storage"
)

const selectColumns = `
	SELECT id, plant_id, plant_name, type, frequency, start_date, preferred_day,
	       preferred_time, next_due, last_completed, enabled, alert_handle,
	       created_at, updated_at
	FROM reminders`

// Store provides SQLite-backed storage for reminders.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database opened with storage.Open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new reminder. rec.ID must already be assigned.
func (s *Store) Add(ctx context.Context, rec Record) (*Record, error) {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, plant_id, plant_name, type, frequency, start_date,
			preferred_day, preferred_time, next_due, last_completed, enabled, alert_handle,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.PlantID, rec.PlantName, string(rec.Type), string(rec.Frequency),
		rec.StartDate.String(), string(rec.PreferredDay), rec.PreferredTime,
		rec.NextDue.String(), nullDate(rec.LastCompleted), rec.Enabled, rec.AlertHandle,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}

	return &rec, nil
}

// Get returns a reminder by its full id or by a unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	id = strings.TrimSpace(id)
	if stripLikeWildcards(id) == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripLikeWildcards(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	switch {
	case len(recs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(recs) == 1:
		return &recs[0], nil
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
}

// List returns all reminders ordered by next due date, optionally filtered
// by StatusEnabled or StatusDisabled.
func (s *Store) List(ctx context.Context, status string) ([]Record, error) {
	query := selectColumns
	var args []interface{}

	switch status {
	case StatusAll:
	case StatusEnabled:
		query += ` WHERE enabled = ?`
		args = append(args, true)
	case StatusDisabled:
		query += ` WHERE enabled = ?`
		args = append(args, false)
	default:
		return nil, fmt.Errorf("unknown status filter: %s (use enabled, disabled or empty)", status)
	}
	query += ` ORDER BY next_due ASC, plant_name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListDue returns enabled reminders whose next due date is on or before today.
func (s *Store) ListDue(ctx context.Context, today care.Date) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE enabled = ? AND next_due <= ? ORDER BY next_due ASC, plant_name ASC
	`, true, today.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Save replaces every stored field of rec except id and created_at.
func (s *Store) Save(ctx context.Context, rec Record) (*Record, error) {
	rec.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET plant_id = ?, plant_name = ?, type = ?, frequency = ?,
			start_date = ?, preferred_day = ?, preferred_time = ?, next_due = ?,
			last_completed = ?, enabled = ?, alert_handle = ?, updated_at = ?
		WHERE id = ?
	`, rec.PlantID, rec.PlantName, string(rec.Type), string(rec.Frequency),
		rec.StartDate.String(), string(rec.PreferredDay), rec.PreferredTime,
		rec.NextDue.String(), nullDate(rec.LastCompleted), rec.Enabled, rec.AlertHandle,
		formatTime(rec.UpdatedAt), rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return &rec, nil
}

// SetAlertHandle records the alert registered for a reminder.
func (s *Store) SetAlertHandle(ctx context.Context, id, handle string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE reminders SET alert_handle = ? WHERE id = ?`, handle, id)
	if err != nil {
		return fmt.Errorf("failed to set alert handle: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a reminder by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// scanRecords reads multiple rows into a slice of Record.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var r Record
		var typ, freq, preferredDay, startDate, nextDue, createdAt, updatedAt string
		var lastCompleted sql.NullString

		if err := rows.Scan(&r.ID, &r.PlantID, &r.PlantName, &typ, &freq,
			&startDate, &preferredDay, &r.PreferredTime, &nextDue, &lastCompleted,
			&r.Enabled, &r.AlertHandle, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		r.Type = care.CareType(typ)
		r.Frequency = care.Frequency(freq)
		r.PreferredDay = care.Weekday(preferredDay)

		var err error
		if r.StartDate, err = care.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
		}
		if r.NextDue, err = care.ParseDate(nextDue); err != nil {
			return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
		}
		if lastCompleted.Valid && lastCompleted.String != "" {
			d, err := care.ParseDate(lastCompleted.String)
			if err != nil {
				return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
			}
			r.LastCompleted = &d
		}

		if r.CreatedAt, err = time.Parse(storage.TimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid created_at: %w", r.ID, err)
		}
		if r.UpdatedAt, err = time.Parse(storage.TimeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("reminder %s: invalid updated_at: %w", r.ID, err)
		}

		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func nullDate(d *care.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storage.TimeLayout)
}

func stripLikeWildcards(s string) string {
	r := strings.NewReplacer(`%`, ``, `_`, ``)
	return r.Replace(s)
}

// IsNotFound reports whether err means the reminder does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
