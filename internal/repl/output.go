package repl

import (
	"fmt"

	"github.com/notexe/plant-care/internal/reminder"
)

func (r *REPL) displayReminders(recs []reminder.Record) {
	fmt.Fprintln(r.out, r.formatter.FormatReminderList(recs, r.today()))
	fmt.Fprintln(r.out)
}

func (r *REPL) displayError(err error) {
	fmt.Fprintln(r.out, r.formatter.FormatError(err))
	fmt.Fprintln(r.out)
}

func (r *REPL) displayWelcome() {
	fmt.Fprint(r.out, r.formatter.FormatWelcome(r.dbPath))
}

func (r *REPL) displayHelp() {
	fmt.Fprint(r.out, r.formatter.FormatHelp())
}

func (r *REPL) displayInfo(msg string) {
	fmt.Fprintln(r.out, r.formatter.FormatInfo(msg))
	fmt.Fprintln(r.out)
}

func (r *REPL) displaySuccess(msg string) {
	fmt.Fprintln(r.out, r.formatter.FormatSuccess(msg))
	fmt.Fprintln(r.out)
}
