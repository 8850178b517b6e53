package repl

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
	"github.com/notexe/plant-care/internal/reminder"
	"github.com/notexe/plant-care/internal/storage"
)

func TestParseCommand(t *testing.T) {
	r := &REPL{}

	tests := []struct {
		input     string
		isCommand bool
		command   string
		args      string
	}{
		{"/help", true, "/help", ""},
		{"/DONE abc 2024-03-01", true, "/done", "abc 2024-03-01"},
		{"/list   enabled ", true, "/list", "enabled"},
		{"due", true, "/due", ""},
		{"Show abc", true, "/show", "abc"},
		{"water the fern", false, "", ""},
	}

	for _, tt := range tests {
		isCommand, command, args := r.parseCommand(tt.input)
		if isCommand != tt.isCommand || command != tt.command || args != tt.args {
			t.Errorf("parseCommand(%q) = %v, %q, %q", tt.input, isCommand, command, args)
		}
	}
}

func TestHistoryPath(t *testing.T) {
	if got := historyPath(""); got != "" {
		t.Errorf("historyPath(\"\") = %q", got)
	}
	want := filepath.Join("/data", "shell_history")
	if got := historyPath(filepath.Join("/data", "plants.db")); got != want {
		t.Errorf("historyPath = %q, want %q", got, want)
	}
}

type shell struct {
	repl *REPL
	svc  *reminder.Service
	out  *bytes.Buffer
}

func newShell(t *testing.T) *shell {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "plants.db"))
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	reg := notify.NewSQLRegistrar(db, notify.WithClock(now))
	svc := reminder.NewService(reminder.NewStore(db), reg, logging.Nop(), reminder.WithClock(now))

	out := &bytes.Buffer{}
	return &shell{repl: newREPL(svc, false, out, now), svc: svc, out: out}
}

func (s *shell) run(t *testing.T, input string) (string, error) {
	t.Helper()
	s.out.Reset()
	_, command, args := s.repl.parseCommand(input)
	err := s.repl.handleCommand(context.Background(), command, args)
	return s.out.String(), err
}

func (s *shell) add(t *testing.T, in reminder.Input) *reminder.Record {
	t.Helper()
	rec, err := s.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return rec
}

func TestShellListAndDue(t *testing.T) {
	s := newShell(t)
	s.add(t, reminder.Input{PlantID: "pilea", PlantName: "Pilea", Type: "watering", Frequency: "every3days", StartDate: "2024-03-02"})
	s.add(t, reminder.Input{PlantID: "fern", PlantName: "Fern", Type: "fertilizing", Frequency: "monthly", StartDate: "2024-03-20"})

	out, err := s.run(t, "/list")
	if err != nil {
		t.Fatalf("/list failed: %v", err)
	}
	if !strings.Contains(out, "Pilea") || !strings.Contains(out, "Fern") {
		t.Errorf("/list output:\n%s", out)
	}

	out, _ = s.run(t, "/due")
	if !strings.Contains(out, "Pilea") || strings.Contains(out, "Fern") {
		t.Errorf("/due output:\n%s", out)
	}

	out, _ = s.run(t, "/agenda 30")
	if !strings.Contains(out, "## Due now") || !strings.Contains(out, "## Next 30 days") {
		t.Errorf("/agenda output:\n%s", out)
	}

	if _, err := s.run(t, "/list pending"); err == nil {
		t.Error("expected error for unknown list filter")
	}
	if _, err := s.run(t, "/agenda soon"); err == nil {
		t.Error("expected usage error for /agenda soon")
	}
}

func TestShellDone(t *testing.T) {
	s := newShell(t)
	rec := s.add(t, reminder.Input{PlantID: "pilea", PlantName: "Pilea", Type: "watering", Frequency: "weekly", StartDate: "2024-03-01"})

	out, err := s.run(t, "/done "+rec.ID[:8]+" 2024-03-03")
	if err != nil {
		t.Fatalf("/done failed: %v", err)
	}
	if !strings.Contains(out, "Next due 2024-03-10 (in 6 days)") {
		t.Errorf("/done output:\n%s", out)
	}

	out, err = s.run(t, "/done")
	if err != nil || !strings.Contains(out, "Nothing is due") {
		t.Errorf("/done with nothing due = %q, %v", out, err)
	}
}

func TestShellDonePicksFromDue(t *testing.T) {
	s := newShell(t)
	rec := s.add(t, reminder.Input{PlantID: "fern", Type: "pruning", Frequency: "quarterly", StartDate: "2024-03-04"})

	var offered int
	s.repl.pick = func(_ string, recs []reminder.Record) (string, error) {
		offered = len(recs)
		return recs[0].ID, nil
	}

	out, err := s.run(t, "/done")
	if err != nil {
		t.Fatalf("/done failed: %v", err)
	}
	if offered != 1 || !strings.Contains(out, "Next due 2024-06-04") {
		t.Errorf("offered %d, output:\n%s", offered, out)
	}

	got, _ := s.svc.Get(context.Background(), rec.ID)
	if got.LastCompleted == nil {
		t.Error("reminder not completed")
	}
}

func TestShellToggleTriggerDelete(t *testing.T) {
	s := newShell(t)
	rec := s.add(t, reminder.Input{PlantID: "fern", PlantName: "Fern", Type: "rotation", Frequency: "daily", StartDate: "2024-03-04", PreferredTime: "evening"})

	out, err := s.run(t, "/trigger "+rec.ID)
	if err != nil || !strings.Contains(out, "daily at 19:00") {
		t.Errorf("/trigger = %q, %v", out, err)
	}

	out, err = s.run(t, "/toggle "+rec.ID)
	if err != nil || !strings.Contains(out, "Alerts disabled for Rotation Fern") {
		t.Errorf("/toggle = %q, %v", out, err)
	}

	out, err = s.run(t, "/show "+rec.ID)
	if err != nil || !strings.Contains(out, "disabled") {
		t.Errorf("/show = %q, %v", out, err)
	}

	out, err = s.run(t, "/delete "+rec.ID)
	if err != nil || !strings.Contains(out, "Deleted rotation reminder for Fern") {
		t.Errorf("/delete = %q, %v", out, err)
	}
	if _, err := s.run(t, "/show "+rec.ID); !reminder.IsNotFound(err) {
		t.Errorf("/show after delete error = %v", err)
	}
}

func TestShellUsageErrors(t *testing.T) {
	s := newShell(t)

	for _, input := range []string{"/toggle", "/trigger", "/delete", "/show", "/frobnicate"} {
		if _, err := s.run(t, input); err == nil {
			t.Errorf("%s: expected error", input)
		}
	}

	out, err := s.run(t, "/help")
	if err != nil || !strings.Contains(out, "/done [id] [YYYY-MM-DD]") {
		t.Errorf("/help = %q, %v", out, err)
	}
}
