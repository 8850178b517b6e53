package care

import "fmt"

// Display text lives next to the enums used for scheduling so the two cannot
// drift apart. Frequency and care type validity are defined by these tables.

var frequencyText = map[Frequency]string{
	Daily:      "Every day",
	Every3Days: "Every 3 days",
	Weekly:     "Every week",
	Biweekly:   "Every 2 weeks",
	Monthly:    "Every month",
	Quarterly:  "Every 3 months",
	SixMonthly: "Every 6 months",
	Yearly:     "Every year",
	Biannually: "Every 2 years",
}

type careText struct {
	label  string
	action string // imperative phrase, completed with the plant name
	emoji  string
}

var careTypeText = map[CareType]careText{
	Watering:    {label: "Watering", action: "water", emoji: "💧"},
	Fertilizing: {label: "Fertilizing", action: "fertilize", emoji: "🌱"},
	Pruning:     {label: "Pruning", action: "prune", emoji: "✂️"},
	Rotation:    {label: "Rotation", action: "rotate", emoji: "🔄"},
	Repotting:   {label: "Repotting", action: "repot", emoji: "🪴"},
	Other:       {label: "Plant care", action: "take care of", emoji: "🌿"},
}

// Label returns the human-readable frequency, or the raw value if unknown.
func (f Frequency) Label() string {
	if text, ok := frequencyText[f]; ok {
		return text
	}
	return string(f)
}

func (c CareType) Label() string {
	if text, ok := careTypeText[c]; ok {
		return text.label
	}
	return string(c)
}

func (c CareType) Emoji() string {
	if text, ok := careTypeText[c]; ok {
		return text.emoji
	}
	return careTypeText[Other].emoji
}

func (c CareType) action() string {
	if text, ok := careTypeText[c]; ok {
		return text.action
	}
	return careTypeText[Other].action
}

// Label returns the capitalized weekday name.
func (w Weekday) Label() string {
	if wd, ok := w.Time(); ok {
		return wd.String()
	}
	return string(w)
}

// AlertTitle is the notification title for r.
func AlertTitle(r Reminder) string {
	return fmt.Sprintf("%s %s reminder", r.Type.Emoji(), r.Type.Label())
}

// AlertBody is the notification body for r.
func AlertBody(r Reminder) string {
	plant := r.PlantName
	if plant == "" {
		plant = "your plant"
	}
	return fmt.Sprintf("Time to %s %s. %s.", r.Type.action(), plant, r.Frequency.Label())
}

// Describe summarizes the schedule of r, e.g. "Every week on Monday at 08:00".
func Describe(r Reminder) string {
	s := r.Frequency.Label()
	if r.Frequency.UsesWeekday() && r.PreferredDay != "" {
		s += " on " + r.PreferredDay.Label()
	}
	return s + " at " + ResolveTime(r.PreferredTime).String()
}
