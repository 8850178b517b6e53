package care

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the named recurrence interval of a reminder.
type Frequency string

const (
	Daily      Frequency = "daily"
	Every3Days Frequency = "every3days"
	Weekly     Frequency = "weekly"
	Biweekly   Frequency = "biweekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	SixMonthly Frequency = "sixmonthly"
	Yearly     Frequency = "yearly"
	Biannually Frequency = "biannually"
)

// Frequencies lists every supported frequency, shortest interval first.
var Frequencies = []Frequency{
	Daily, Every3Days, Weekly, Biweekly, Monthly, Quarterly, SixMonthly, Yearly, Biannually,
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	_, ok := frequencyText[f]
	return ok
}

// UsesWeekday reports whether a preferred day of week applies to f.
func (f Frequency) UsesWeekday() bool {
	return f == Weekly || f == Biweekly
}

// CareType is the kind of care a reminder is about. It only affects text.
type CareType string

const (
	Watering    CareType = "watering"
	Fertilizing CareType = "fertilizing"
	Pruning     CareType = "pruning"
	Rotation    CareType = "rotation"
	Repotting   CareType = "repotting"
	Other       CareType = "other"
)

var CareTypes = []CareType{Watering, Fertilizing, Pruning, Rotation, Repotting, Other}

func (c CareType) Valid() bool {
	_, ok := careTypeText[c]
	return ok
}

// Weekday is a named day of the week. The empty Weekday means "no preference".
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays is indexed by time.Weekday.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseWeekday accepts a full or three-letter weekday name in any case.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, wd := range Weekdays {
		if name == string(wd) || (len(name) == 3 && strings.HasPrefix(string(wd), name)) {
			return wd, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf converts a time.Weekday.
func WeekdayOf(wd time.Weekday) Weekday {
	return Weekdays[wd]
}

// Time returns the time.Weekday for w. ok is false for the empty or an
// unknown weekday.
func (w Weekday) Time() (wd time.Weekday, ok bool) {
	for i, candidate := range Weekdays {
		if candidate == w {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Named preferred-time slots.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

var timeSlots = map[string]TimeOfDay{
	Morning:   {Hour: 8},
	Afternoon: {Hour: 13},
	Evening:   {Hour: 19},
}

// DefaultTime is used when a reminder has no preferred time.
var DefaultTime = timeSlots[Morning]

// ParseTimeOfDay resolves a named slot (morning, afternoon, evening) or an
// explicit HH:MM string. The empty string resolves to DefaultTime.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultTime, nil
	}
	if tod, ok := timeSlots[s]; ok {
		return tod, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid preferred time %q: want morning, afternoon, evening or HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ResolveTime is ParseTimeOfDay for values already validated at the
// creation boundary; anything unparseable resolves to DefaultTime.
func ResolveTime(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		return DefaultTime
	}
	return tod
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
