package reminder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/notexe/plant-care/internal/care"
)

// Input carries the user-editable fields of a reminder. It is validated
// before any scheduling happens.
type Input struct {
	PlantID       string `json:"plant_id" validate:"required,max=128"`
	PlantName     string `json:"plant_name" validate:"max=128"`
	Type          string `json:"type" validate:"required,care_type"`
	Frequency     string `json:"frequency" validate:"required,frequency"`
	StartDate     string `json:"start_date" validate:"required,datetime=2006-01-02"`
	PreferredDay  string `json:"preferred_day" validate:"omitempty,weekday"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,preferred_time"`
	// Enabled defaults to true on create and to the current value on edit.
	Enabled *bool `json:"enabled,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("care_type", func(fl validator.FieldLevel) bool {
		return care.CareType(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return care.Frequency(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := care.ParseWeekday(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("preferred_time", func(fl validator.FieldLevel) bool {
		_, err := care.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the input against the supported enumerations and formats.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid reminder: %s: %w", strings.Join(msgs, "; "), err)
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "care_type":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(care.CareTypes))
	case "frequency":
		return fmt.Sprintf("%s must be one of %s", field, joinEnum(care.Frequencies))
	case "weekday":
		return field + " must be a weekday name"
	case "preferred_time":
		return field + " must be morning, afternoon, evening or HH:MM"
	case "datetime":
		return field + " must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func jsonName(field string) string {
	switch field {
	case "PlantID":
		return "plant_id"
	case "PlantName":
		return "plant_name"
	case "StartDate":
		return "start_date"
	case "PreferredDay":
		return "preferred_day"
	case "PreferredTime":
		return "preferred_time"
	default:
		return strings.ToLower(field)
	}
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// reminder converts validated input into the schedulable fields.
func (in Input) reminder() (care.Reminder, error) {
	start, err := care.ParseDate(in.StartDate)
	if err != nil {
		return care.Reminder{}, err
	}

	r := care.Reminder{
		PlantID:       in.PlantID,
		PlantName:     in.PlantName,
		Type:          care.CareType(strings.ToLower(in.Type)),
		Frequency:     care.Frequency(strings.ToLower(in.Frequency)),
		StartDate:     start,
		PreferredTime: strings.ToLower(strings.TrimSpace(in.PreferredTime)),
		Enabled:       true,
	}
	if in.PreferredDay != "" {
		if r.PreferredDay, err = care.ParseWeekday(in.PreferredDay); err != nil {
			return care.Reminder{}, err
		}
	}
	if in.Enabled != nil {
		r.Enabled = *in.Enabled
	}
	return r, nil
}

// InputFrom returns the editable fields of an existing record, for partial
// edits that start from the current values.
func InputFrom(rec Record) Input {
	enabled := rec.Enabled
	return Input{
		PlantID:       rec.PlantID,
		PlantName:     rec.PlantName,
		Type:          string(rec.Type),
		Frequency:     string(rec.Frequency),
		StartDate:     rec.StartDate.String(),
		PreferredDay:  string(rec.PreferredDay),
		PreferredTime: rec.PreferredTime,
		Enabled:       &enabled,
	}
}
