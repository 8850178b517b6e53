package care

import (
	"encoding/json"
	"fmt"
	"time"
)

// TriggerKind is the shape of an alert trigger.
type TriggerKind string

const (
	// TriggerDaily repeats every day at a wall-clock time.
	TriggerDaily TriggerKind = "daily"
	// TriggerWeekly repeats every week on a weekday at a wall-clock time.
	TriggerWeekly TriggerKind = "weekly"
	// TriggerOnce fires once at an absolute instant and must be re-issued by
	// the caller for the next occurrence.
	TriggerOnce TriggerKind = "once"
)

// MinLeadTime is the smallest delay between now and a one-shot trigger.
const MinLeadTime = 60 * time.Second

// Trigger describes when a notification registrar should fire an alert.
// Only the fields of its Kind are meaningful.
type Trigger struct {
	Kind    TriggerKind
	Time    TimeOfDay // daily, weekly
	Weekday Weekday   // weekly
	At      time.Time // once
}

// Repeating reports whether the registrar re-arms the trigger by itself.
func (t Trigger) Repeating() bool {
	return t.Kind == TriggerDaily || t.Kind == TriggerWeekly
}

// BuildAlertTrigger returns the trigger to register for r. Daily reminders
// and weekly reminders with a preferred weekday get natively repeating
// triggers; everything else gets a one-shot trigger at r.NextDue and the
// resolved time of day in now's location, corrected so it is never in the
// past and never less than MinLeadTime after now.
func BuildAlertTrigger(r Reminder, now time.Time) Trigger {
	tod := ResolveTime(r.PreferredTime)

	switch {
	case r.Frequency == Daily:
		return Trigger{Kind: TriggerDaily, Time: tod}
	case r.Frequency == Weekly && r.PreferredDay != "":
		if _, ok := r.PreferredDay.Time(); ok {
			return Trigger{Kind: TriggerWeekly, Time: tod, Weekday: r.PreferredDay}
		}
	}

	return Trigger{Kind: TriggerOnce, At: oneShotAt(r.NextDue, tod, now)}
}

func oneShotAt(due Date, tod TimeOfDay, now time.Time) time.Time {
	now = now.Round(0)
	today := DateOf(now)
	if due.Before(today) {
		due = today.AddDays(1)
	}

	at := due.At(tod, now.Location())
	if earliest := now.Add(MinLeadTime); at.Before(earliest) {
		at = earliest
	}
	return at
}

// NextAfter returns the first instant strictly after t at which the trigger
// fires, evaluated in t's location. A one-shot trigger always returns At.
func (t Trigger) NextAfter(after time.Time) time.Time {
	day := DateOf(after)
	loc := after.Location()

	switch t.Kind {
	case TriggerDaily:
		next := day.At(t.Time, loc)
		if !next.After(after) {
			next = day.AddDays(1).At(t.Time, loc)
		}
		return next
	case TriggerWeekly:
		want, _ := t.Weekday.Time()
		offset := (int(want) - int(after.Weekday()) + 7) % 7
		next := day.AddDays(offset).At(t.Time, loc)
		if !next.After(after) {
			next = day.AddDays(offset + 7).At(t.Time, loc)
		}
		return next
	default:
		return t.At
	}
}

func (t Trigger) String() string {
	switch t.Kind {
	case TriggerDaily:
		return "daily at " + t.Time.String()
	case TriggerWeekly:
		return fmt.Sprintf("every %s at %s", t.Weekday.Label(), t.Time)
	case TriggerOnce:
		return "once at " + t.At.Format("2006-01-02 15:04")
	default:
		return string(t.Kind)
	}
}

type dailyJSON struct {
	Kind   TriggerKind `json:"kind"`
	Hour   int         `json:"hour"`
	Minute int         `json:"minute"`
}

type weeklyJSON struct {
	Kind    TriggerKind `json:"kind"`
	Weekday Weekday     `json:"weekday"`
	Hour    int         `json:"hour"`
	Minute  int         `json:"minute"`
}

type onceJSON struct {
	Kind TriggerKind `json:"kind"`
	At   time.Time   `json:"at"`
}

// MarshalJSON emits exactly the fields of the trigger's shape.
func (t Trigger) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TriggerDaily:
		return json.Marshal(dailyJSON{Kind: t.Kind, Hour: t.Time.Hour, Minute: t.Time.Minute})
	case TriggerWeekly:
		return json.Marshal(weeklyJSON{Kind: t.Kind, Weekday: t.Weekday, Hour: t.Time.Hour, Minute: t.Time.Minute})
	case TriggerOnce:
		return json.Marshal(onceJSON{Kind: t.Kind, At: t.At})
	default:
		return nil, fmt.Errorf("unknown trigger kind %q", t.Kind)
	}
}

func (t *Trigger) UnmarshalJSON(b []byte) error {
	var raw struct {
		Kind    TriggerKind `json:"kind"`
		Weekday Weekday     `json:"weekday"`
		Hour    int         `json:"hour"`
		Minute  int         `json:"minute"`
		At      time.Time   `json:"at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case TriggerDaily:
		*t = Trigger{Kind: raw.Kind, Time: TimeOfDay{Hour: raw.Hour, Minute: raw.Minute}}
	case TriggerWeekly:
		*t = Trigger{Kind: raw.Kind, Weekday: raw.Weekday, Time: TimeOfDay{Hour: raw.Hour, Minute: raw.Minute}}
	case TriggerOnce:
		*t = Trigger{Kind: raw.Kind, At: raw.At}
	default:
		return fmt.Errorf("unknown trigger kind %q", raw.Kind)
	}
	return nil
}
