package care

// Reminder holds the fields of a recurring care reminder that scheduling
// reads and writes.
type Reminder struct {
	ID            string    `json:"id"`
	PlantID       string    `json:"plant_id"`
	PlantName     string    `json:"plant_name,omitempty"`
	Type          CareType  `json:"type"`
	Frequency     Frequency `json:"frequency"`
	StartDate     Date      `json:"start_date"`
	PreferredDay  Weekday   `json:"preferred_day,omitempty"`
	PreferredTime string    `json:"preferred_time,omitempty"`
	NextDue       Date      `json:"next_due"`
	LastCompleted *Date     `json:"last_completed,omitempty"`
	Enabled       bool      `json:"enabled"`
}

// State is where a reminder sits in its scheduling lifecycle.
type State string

const (
	StateScheduled State = "scheduled"
	StateDue       State = "due"
	// StateCompleted is transient: Complete passes through it on the way
	// back to StateScheduled.
	StateCompleted State = "completed"
	StateDisabled  State = "disabled"
)

// State returns the state of r on the given day. Overdue reminders are Due.
func (r Reminder) State(today Date) State {
	switch {
	case !r.Enabled:
		return StateDisabled
	case !r.NextDue.After(today):
		return StateDue
	default:
		return StateScheduled
	}
}

// Complete marks r done on completedOn and advances NextDue. If a
// back-dated completion would leave NextDue before today, NextDue keeps
// advancing by the same interval until it reaches today. Enabled is not
// changed.
func Complete(r Reminder, completedOn, today Date) Reminder {
	next := AdvanceDueDate(completedOn, r.Frequency)
	for next.Before(today) {
		next = AdvanceDueDate(next, r.Frequency)
	}

	done := completedOn
	r.LastCompleted = &done
	r.NextDue = next
	return r
}

// SetEnabled toggles alerting for r without touching NextDue.
func SetEnabled(r Reminder, enabled bool) Reminder {
	r.Enabled = enabled
	return r
}

// Reschedule recomputes NextDue from StartDate after an edit.
func Reschedule(r Reminder) Reminder {
	r.NextDue = ComputeInitialDueDate(r.StartDate, r.Frequency, r.PreferredDay)
	return r
}
