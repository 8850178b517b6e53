package reminder

import (
	"errors"
	"time"

	"github.com/notexe/plant-care/internal/care"
)

// Status filters for listing reminders.
const (
	StatusAll      = ""
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound    = errors.New("reminder not found")
	ErrAmbiguousID = errors.New("reminder id prefix is ambiguous")
)

// Record is a stored reminder.
type Record struct {
	care.Reminder
	// AlertHandle identifies the alert currently registered for the
	// reminder; empty when none is.
	AlertHandle string    `json:"alert_handle,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
