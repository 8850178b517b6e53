package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/reminder"
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Medium gray
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Green
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")). // Yellow
			Bold(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147")) // Light purple

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")). // Soft blue border
			Padding(0, 1)
)

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if f.colored {
		return style.Render(s)
	}
	return s
}

func (f *Formatter) FormatError(err error) string {
	return f.render(ErrorStyle, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	return f.render(InfoStyle, info)
}

func (f *Formatter) FormatSuccess(msg string) string {
	return f.render(SuccessStyle, msg)
}

func (f *Formatter) FormatStatus(msg string) string {
	return f.render(StatusStyle, msg)
}

// ShortID is the id prefix shown in listings; commands accept it back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RelativeDue describes due relative to today, e.g. "in 3 days".
func RelativeDue(today, due care.Date) string {
	n := today.DaysUntil(due)
	switch {
	case n == 0:
		return "today"
	case n == 1:
		return "tomorrow"
	case n == -1:
		return "overdue by 1 day"
	case n < 0:
		return fmt.Sprintf("overdue by %d days", -n)
	default:
		return fmt.Sprintf("in %d days", n)
	}
}

// FormatReminder renders one reminder as a single line.
func (f *Formatter) FormatReminder(rec reminder.Record, today care.Date) string {
	state := rec.State(today)

	marker := "○"
	markerStyle := DimStyle
	switch state {
	case care.StateDue:
		marker, markerStyle = "●", WarningStyle
	case care.StateScheduled:
		marker, markerStyle = "●", SuccessStyle
	}

	plant := rec.PlantName
	if plant == "" {
		plant = rec.PlantID
	}

	due := rec.NextDue.String() + " (" + RelativeDue(today, rec.NextDue) + ")"
	if state == care.StateDisabled {
		due = "disabled"
	}

	return strings.Join([]string{
		f.render(markerStyle, marker),
		f.render(DimStyle, ShortID(rec.ID)),
		rec.Type.Emoji() + " " + f.render(HeaderStyle, rec.Type.Label()),
		plant,
		f.render(AccentStyle, care.Describe(rec.Reminder)),
		f.render(StatusStyle, due),
	}, "  ")
}

// FormatReminderList renders reminders one per line.
func (f *Formatter) FormatReminderList(recs []reminder.Record, today care.Date) string {
	if len(recs) == 0 {
		return f.FormatStatus("No reminders.")
	}
	lines := make([]string, len(recs))
	for i, rec := range recs {
		lines[i] = f.FormatReminder(rec, today)
	}
	return strings.Join(lines, "\n")
}

// FormatReminderDetail renders every field of a reminder in a box.
func (f *Formatter) FormatReminderDetail(rec reminder.Record, today care.Date) string {
	last := "never"
	if rec.LastCompleted != nil {
		last = rec.LastCompleted.String()
	}

	rows := [][2]string{
		{"ID", rec.ID},
		{"Plant", strings.TrimSpace(rec.PlantName + " (" + rec.PlantID + ")")},
		{"Care", rec.Type.Emoji() + " " + rec.Type.Label()},
		{"Schedule", care.Describe(rec.Reminder)},
		{"Started", rec.StartDate.String()},
		{"Next due", rec.NextDue.String() + " (" + RelativeDue(today, rec.NextDue) + ")"},
		{"Last done", last},
		{"State", string(rec.State(today))},
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = f.render(DimStyle, fmt.Sprintf("%-10s", row[0])) + row[1]
	}
	return f.FormatBox(care.AlertTitle(rec.Reminder), strings.Join(lines, "\n"))
}

func (f *Formatter) FormatTrigger(t care.Trigger) string {
	return f.render(AccentStyle, t.String())
}

func (f *Formatter) FormatWelcome(dbPath string) string {
	title := "Plant Care • reminders"
	dbLine := "Database: " + dbPath
	helpLine := "Type /help for commands"

	if !f.colored {
		return strings.Join([]string{"", title, dbLine, helpLine, ""}, "\n")
	}

	body := strings.Join([]string{
		HeaderStyle.Render(title),
		DimStyle.Render("Database: ") + SuccessStyle.Render(dbPath),
		"",
		StatusStyle.Render(helpLine),
	}, "\n")
	return "\n" + BoxStyle.Render(body) + "\n"
}

type helpEntry struct {
	cmd  string
	desc string
}

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Reminders", []helpEntry{
		{"/list [enabled|disabled]", "List reminders"},
		{"/due", "Reminders due today or overdue"},
		{"/show <id>", "Show one reminder"},
		{"/agenda [days]", "Due, upcoming and disabled reminders"},
	}},
	{"Actions", []helpEntry{
		{"/done [id] [YYYY-MM-DD]", "Mark as done (picks from due when no id)"},
		{"/toggle <id>", "Enable or disable alerts"},
		{"/trigger <id>", "Preview the alert trigger"},
		{"/delete <id>", "Delete a reminder"},
	}},
	{"General", []helpEntry{
		{"/help", "Show this help"},
		{"/quit", "Exit"},
	}},
}

func (f *Formatter) FormatHelp() string {
	lines := []string{"", f.render(HeaderStyle, "Commands"), ""}
	for _, section := range helpSections {
		lines = append(lines, f.render(AccentStyle, section.title))
		for _, e := range section.entries {
			if f.colored {
				lines = append(lines, "  "+SuccessStyle.Render(e.cmd)+" "+e.desc)
			} else {
				lines = append(lines, fmt.Sprintf("  %-26s - %s", e.cmd, e.desc))
			}
		}
		lines = append(lines, "")
	}
	lines = append(lines, f.render(DimStyle, "  Ids may be shortened to any unique prefix. Ctrl+D exits."), "")
	return strings.Join(lines, "\n")
}

// FormatPrompt returns a styled input prompt
func (f *Formatter) FormatPrompt() string {
	if f.colored {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("plants") +
			lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true).Render(" > ")
	}
	return "plants > "
}

// FormatBox wraps content in a styled box
func (f *Formatter) FormatBox(title, content string) string {
	if f.colored {
		return HeaderStyle.Render(title) + "\n" + BoxStyle.Render(content)
	}
	return title + "\n" + content
}
