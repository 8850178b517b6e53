// Package notify registers timed alerts for reminders and delivers them when
// they fire.
package notify

import (
	"context"
	"time"

	"github.com/notexe/plant-care/internal/care"
)

// Alert is a notification to deliver when its trigger fires.
type Alert struct {
	Handle     string            `json:"handle,omitempty"`
	ReminderID string            `json:"reminder_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Payload    map[string]string `json:"payload,omitempty"`
	Trigger    care.Trigger      `json:"trigger"`
	// FireAt is the next instant the registrar will fire the alert.
	FireAt time.Time `json:"fire_at"`
}

// Registrar schedules alerts and hands back opaque handles for cancellation.
type Registrar interface {
	Register(ctx context.Context, alert Alert) (string, error)
	Cancel(ctx context.Context, handle string) error
	Active(ctx context.Context, handle string) (bool, error)
	// Pending lists every registered alert.
	Pending(ctx context.Context) ([]Alert, error)
}

// Sender delivers a fired alert to the user.
type Sender interface {
	Send(ctx context.Context, alert Alert) error
}
