package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/reminder"
)

// ErrSelectionCancelled is returned when the user aborts a selection.
var ErrSelectionCancelled = errors.New("selection cancelled")

// SelectorOption represents a single option in the selector
type SelectorOption struct {
	Label  string
	Detail string
	Value  string
}

// ReminderOptions turns reminders into selector options whose value is the
// reminder id.
func ReminderOptions(recs []reminder.Record, today care.Date) []SelectorOption {
	opts := make([]SelectorOption, len(recs))
	for i, rec := range recs {
		plant := rec.PlantName
		if plant == "" {
			plant = rec.PlantID
		}
		opts[i] = SelectorOption{
			Label:  fmt.Sprintf("%s %s %s", rec.Type.Emoji(), rec.Type.Label(), plant),
			Detail: RelativeDue(today, rec.NextDue),
			Value:  rec.ID,
		}
	}
	return opts
}

// Selector provides an arrow-key navigable menu. On a terminal it runs in
// raw mode; otherwise it falls back to a numbered prompt.
type Selector struct {
	question string
	options  []SelectorOption
	selected int
	colored  bool

	in  io.Reader
	out io.Writer

	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	optionStyle   lipgloss.Style
	dimStyle      lipgloss.Style
	questionStyle lipgloss.Style
}

// NewSelector creates a selector reading from stdin and drawing on stdout.
func NewSelector(question string, options []SelectorOption, colored bool) *Selector {
	return &Selector{
		question: question,
		options:  options,
		colored:  colored,
		in:       os.Stdin,
		out:      os.Stdout,

		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true),
		optionStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		dimStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		questionStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
	}
}

// WithIO replaces stdin and stdout; the selector then always uses the
// numbered prompt.
func (s *Selector) WithIO(in io.Reader, out io.Writer) *Selector {
	s.in = in
	s.out = out
	return s
}

// Run displays the selector and returns the chosen option.
func (s *Selector) Run() (SelectorOption, error) {
	if len(s.options) == 0 {
		return SelectorOption{}, fmt.Errorf("nothing to choose from")
	}

	f, ok := s.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s.runSimple()
	}
	fd := int(f.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return s.runSimple()
	}
	defer func() {
		term.Restore(fd, oldState)
		fmt.Fprint(s.out, "\033[?25h") // Show cursor
	}()

	// Hide cursor
	fmt.Fprint(s.out, "\033[?25l")

	totalLines := len(s.options) + 3
	s.printMenu()

	reader := bufio.NewReader(f)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return SelectorOption{}, err
		}

		switch b {
		case 13, 10: // Enter
			s.clearMenu(totalLines)
			return s.options[s.selected], nil
		case 3, 'q': // Ctrl+C
			s.clearMenu(totalLines)
			return SelectorOption{}, ErrSelectionCancelled
		case 'j':
			s.moveDown()
		case 'k':
			s.moveUp()
		case 27: // Escape sequence
			b2, _ := reader.ReadByte()
			if b2 == '[' {
				b3, _ := reader.ReadByte()
				switch b3 {
				case 'A':
					s.moveUp()
				case 'B':
					s.moveDown()
				}
			}
		default:
			if b >= '1' && b <= '9' {
				if idx := int(b - '1'); idx < len(s.options) {
					s.clearMenu(totalLines)
					return s.options[idx], nil
				}
			}
		}

		s.clearMenu(totalLines)
		s.printMenu()
	}
}

func (s *Selector) printMenu() {
	var sb strings.Builder

	sb.WriteString(s.style(s.questionStyle, s.question))
	sb.WriteString("\r\n")
	sb.WriteString(s.style(s.dimStyle, "[j/k or arrows] move  [enter] select  [q] cancel"))
	sb.WriteString("\r\n\r\n")

	for i, opt := range s.options {
		cursor, style := "  ", s.optionStyle
		if i == s.selected {
			cursor, style = "> ", s.selectedStyle
		}
		sb.WriteString(s.style(s.cursorStyle, cursor))
		sb.WriteString(s.style(style, opt.Label))
		if opt.Detail != "" {
			sb.WriteString(s.style(s.dimStyle, "  "+opt.Detail))
		}
		sb.WriteString("\r\n")
	}

	fmt.Fprint(s.out, sb.String())
}

func (s *Selector) style(st lipgloss.Style, text string) string {
	if s.colored {
		return st.Render(text)
	}
	return text
}

func (s *Selector) clearMenu(lines int) {
	for i := 0; i < lines; i++ {
		fmt.Fprint(s.out, "\033[A\033[2K\r")
	}
}

func (s *Selector) runSimple() (SelectorOption, error) {
	fmt.Fprintln(s.out, s.question)
	for i, opt := range s.options {
		line := opt.Label
		if opt.Detail != "" {
			line += " - " + opt.Detail
		}
		fmt.Fprintf(s.out, "  [%d] %s\n", i+1, line)
	}
	fmt.Fprint(s.out, "Enter number: ")

	input, _ := bufio.NewReader(s.in).ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return SelectorOption{}, ErrSelectionCancelled
	}

	n, convErr := strconv.Atoi(input)
	if convErr != nil || n < 1 || n > len(s.options) {
		return SelectorOption{}, fmt.Errorf("invalid choice %q", input)
	}
	return s.options[n-1], nil
}

func (s *Selector) moveUp() {
	if s.selected > 0 {
		s.selected--
	} else {
		s.selected = len(s.options) - 1
	}
}

func (s *Selector) moveDown() {
	if s.selected < len(s.options)-1 {
		s.selected++
	} else {
		s.selected = 0
	}
}
