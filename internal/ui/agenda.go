package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/reminder"
)

// DefaultAgendaDays is how far ahead the agenda looks by default.
const DefaultAgendaDays = 7

// Agenda builds a markdown overview of reminders: what is due now, what
// comes up within the next days, and what is switched off.
func Agenda(recs []reminder.Record, today care.Date, days int) string {
	if days <= 0 {
		days = DefaultAgendaDays
	}
	horizon := today.AddDays(days)

	var due, upcoming, disabled []reminder.Record
	for _, rec := range recs {
		switch rec.State(today) {
		case care.StateDue:
			due = append(due, rec)
		case care.StateDisabled:
			disabled = append(disabled, rec)
		default:
			if !rec.NextDue.After(horizon) {
				upcoming = append(upcoming, rec)
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Plant care agenda for %s\n\n", today)

	writeSection(&sb, "Due now", due, today, "Nothing to do today.")
	writeSection(&sb, fmt.Sprintf("Next %d days", days), upcoming, today, "Nothing scheduled.")
	if len(disabled) > 0 {
		writeSection(&sb, "Disabled", disabled, today, "")
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, recs []reminder.Record, today care.Date, empty string) {
	fmt.Fprintf(sb, "## %s\n\n", title)
	if len(recs) == 0 {
		fmt.Fprintf(sb, "_%s_\n\n", empty)
		return
	}

	sb.WriteString("| | Care | Plant | Due | Schedule | ID |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, rec := range recs {
		plant := rec.PlantName
		if plant == "" {
			plant = rec.PlantID
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s (%s) | %s | `%s` |\n",
			rec.Type.Emoji(),
			rec.Type.Label(),
			escapeCell(plant),
			rec.NextDue,
			RelativeDue(today, rec.NextDue),
			care.Describe(rec.Reminder),
			ShortID(rec.ID),
		)
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderMarkdown renders markdown for the terminal. Without color the
// markdown is returned unchanged.
func RenderMarkdown(md string, colored bool) string {
	if !colored {
		return md
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(rendered)
}
