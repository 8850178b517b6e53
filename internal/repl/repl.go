// Package repl is the interactive plant care shell.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/reminder"
	"github.com/notexe/plant-care/internal/ui"
)

// Reminders is the reminder service surface the shell drives.
type Reminders interface {
	List(ctx context.Context, status string) ([]reminder.Record, error)
	Due(ctx context.Context) ([]reminder.Record, error)
	Get(ctx context.Context, id string) (*reminder.Record, error)
	MarkCompleted(ctx context.Context, id string, on care.Date) (*reminder.Record, error)
	Toggle(ctx context.Context, id string) (*reminder.Record, error)
	PreviewTrigger(ctx context.Context, id string) (care.Trigger, error)
	Delete(ctx context.Context, id string) error
}

type REPL struct {
	reminders Reminders
	rl        *readline.Instance
	formatter *ui.Formatter
	colored   bool
	dbPath    string
	out       io.Writer
	now       func() time.Time
	// pick chooses one of the given reminders when a command needs an id
	// and none was typed.
	pick func(question string, recs []reminder.Record) (string, error)
}

func NewREPL(reminders Reminders, colored bool, dbPath string, now func() time.Time) (*REPL, error) {
	rl, err := setupReadline(historyPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}

	r := newREPL(reminders, colored, os.Stdout, now)
	r.rl = rl
	r.dbPath = dbPath
	rl.SetPrompt(r.formatter.FormatPrompt())
	return r, nil
}

func newREPL(reminders Reminders, colored bool, out io.Writer, now func() time.Time) *REPL {
	if now == nil {
		now = time.Now
	}
	r := &REPL{
		reminders: reminders,
		formatter: ui.NewFormatter(colored),
		colored:   colored,
		out:       out,
		now:       now,
	}
	r.pick = r.pickInteractive
	return r
}

func (r *REPL) Start(ctx context.Context) error {
	defer r.rl.Close()

	r.displayWelcome()

	for {
		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if input == "" {
			continue
		}

		isCommand, command, args := r.parseCommand(input)
		if !isCommand {
			r.displayError(fmt.Errorf("unknown input %q (type /help for available commands)", input))
			continue
		}

		if err := r.handleCommand(ctx, command, args); err != nil {
			r.displayError(err)
		}

		if command == "/quit" || command == "/exit" || command == "/q" {
			return nil
		}
	}
}

func (r *REPL) Stop() {
	r.rl.Close()
}

func (r *REPL) today() care.Date {
	return care.DateOf(r.now())
}

func (r *REPL) handleCommand(ctx context.Context, command, args string) error {
	fields := strings.Fields(args)

	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/quit", "/exit", "/q":
		fmt.Fprintln(r.out, "\nGoodbye!")
		return nil

	case "/list", "/ls":
		status := ""
		if len(fields) > 0 {
			status = strings.ToLower(fields[0])
		}
		recs, err := r.reminders.List(ctx, status)
		if err != nil {
			return err
		}
		r.displayReminders(recs)
		return nil

	case "/due":
		recs, err := r.reminders.Due(ctx)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			r.displayInfo("Nothing is due. 🌿")
			return nil
		}
		r.displayReminders(recs)
		return nil

	case "/show":
		if len(fields) == 0 {
			return fmt.Errorf("usage: /show <id>")
		}
		rec, err := r.reminders.Get(ctx, fields[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.formatter.FormatReminderDetail(*rec, r.today()))
		fmt.Fprintln(r.out)
		return nil

	case "/agenda":
		return r.handleAgenda(ctx, fields)

	case "/done", "/d":
		return r.handleDone(ctx, fields)

	case "/toggle":
		if len(fields) == 0 {
			return fmt.Errorf("usage: /toggle <id>")
		}
		rec, err := r.reminders.Toggle(ctx, fields[0])
		if err != nil {
			return err
		}
		state := "disabled"
		if rec.Enabled {
			state = "enabled"
		}
		r.displaySuccess(fmt.Sprintf("Alerts %s for %s %s.", state, rec.Type.Label(), plantName(*rec)))
		return nil

	case "/trigger":
		if len(fields) == 0 {
			return fmt.Errorf("usage: /trigger <id>")
		}
		trigger, err := r.reminders.PreviewTrigger(ctx, fields[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.formatter.FormatTrigger(trigger))
		fmt.Fprintln(r.out)
		return nil

	case "/delete", "/rm":
		if len(fields) == 0 {
			return fmt.Errorf("usage: /delete <id>")
		}
		rec, err := r.reminders.Get(ctx, fields[0])
		if err != nil {
			return err
		}
		if err := r.reminders.Delete(ctx, rec.ID); err != nil {
			return err
		}
		r.displaySuccess(fmt.Sprintf("Deleted %s reminder for %s.", strings.ToLower(rec.Type.Label()), plantName(*rec)))
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type /help for available commands)", command)
	}
}

func (r *REPL) handleAgenda(ctx context.Context, fields []string) error {
	days := ui.DefaultAgendaDays
	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: /agenda [days]")
		}
		days = n
	}

	recs, err := r.reminders.List(ctx, reminder.StatusAll)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, ui.RenderMarkdown(ui.Agenda(recs, r.today(), days), r.colored))
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) handleDone(ctx context.Context, fields []string) error {
	var id string
	var on care.Date

	for _, f := range fields {
		if d, err := care.ParseDate(f); err == nil {
			on = d
			continue
		}
		if id != "" {
			return fmt.Errorf("usage: /done [id] [YYYY-MM-DD]")
		}
		id = f
	}

	if id == "" {
		due, err := r.reminders.Due(ctx)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			r.displayInfo("Nothing is due. 🌿")
			return nil
		}
		if id, err = r.pick("Which reminder is done?", due); err != nil {
			return err
		}
	}

	rec, err := r.reminders.MarkCompleted(ctx, id, on)
	if err != nil {
		return err
	}
	r.displaySuccess(fmt.Sprintf("✓ %s %s done. Next due %s (%s).",
		rec.Type.Label(), plantName(*rec), rec.NextDue, ui.RelativeDue(r.today(), rec.NextDue)))
	return nil
}

func (r *REPL) pickInteractive(question string, recs []reminder.Record) (string, error) {
	opt, err := ui.NewSelector(question, ui.ReminderOptions(recs, r.today()), r.colored).Run()
	if err != nil {
		return "", err
	}
	return opt.Value, nil
}

func plantName(rec reminder.Record) string {
	if rec.PlantName != "" {
		return rec.PlantName
	}
	return rec.PlantID
}
