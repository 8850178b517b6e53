package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
	"github.com/notexe/plant-care/internal/reminder"
	"github.com/notexe/plant-care/internal/storage"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Alert
	err  error
}

func (r *recordingSender) Send(_ context.Context, alert notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, alert)
	return r.err
}

type fixture struct {
	now    time.Time
	reg    *notify.SQLRegistrar
	svc    *reminder.Service
	sender *recordingSender
	sched  *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "plants.db"))
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{now: time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.reg = notify.NewSQLRegistrar(db, notify.WithClock(clock))
	f.svc = reminder.NewService(reminder.NewStore(db), f.reg, logging.Nop(), reminder.WithClock(clock))
	f.sender = &recordingSender{}
	f.sched = New(f.reg, f.sender, f.svc, logging.Nop(), WithClock(clock))
	return f
}

func TestTickSendsFiredAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	daily, err := f.svc.Create(ctx, reminder.Input{PlantID: "fern", Type: "watering", Frequency: "daily", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	monthly, err := f.svc.Create(ctx, reminder.Input{PlantID: "ficus", Type: "fertilizing", Frequency: "monthly", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f.sched.Tick(ctx)
	if len(f.sender.sent) != 0 {
		t.Fatalf("sent %d alerts before 08:00", len(f.sender.sent))
	}

	f.now = time.Date(2024, 3, 4, 8, 0, 30, 0, time.UTC)
	f.sched.Tick(ctx)
	if len(f.sender.sent) != 2 {
		t.Fatalf("expected 2 alerts at 08:00, got %d", len(f.sender.sent))
	}

	pending, err := f.reg.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending alerts after tick, got %d", len(pending))
	}
	tomorrow := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	for _, a := range pending {
		if !a.FireAt.Equal(tomorrow) {
			t.Errorf("alert for %s fires at %s, want %s", a.ReminderID, a.FireAt, tomorrow)
		}
	}

	// A second tick in the same minute sends nothing new.
	f.sched.Tick(ctx)
	if len(f.sender.sent) != 2 {
		t.Errorf("duplicate send: %d alerts", len(f.sender.sent))
	}

	// Completing the one-shot reminder moves its alert to the next month.
	done, err := f.svc.MarkCompleted(ctx, monthly.ID, care.Date{})
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	pending, _ = f.reg.Pending(ctx)
	for _, a := range pending {
		want := tomorrow
		if a.ReminderID == done.ID {
			want = time.Date(2024, 4, 4, 8, 0, 0, 0, time.UTC)
		} else if a.ReminderID != daily.ID {
			t.Errorf("unexpected alert for %s", a.ReminderID)
		}
		if !a.FireAt.Equal(want) {
			t.Errorf("alert for %s fires at %s, want %s", a.ReminderID, a.FireAt, want)
		}
	}
}

func TestTickRenotifiesAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sender.err = errors.New("telegram down")

	rec, err := f.svc.Create(ctx, reminder.Input{PlantID: "fern", Type: "repotting", Frequency: "yearly", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	f.now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	f.sched.Tick(ctx)
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one send attempt, got %d", len(f.sender.sent))
	}

	stored, err := f.svc.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	active, _ := f.reg.Active(ctx, stored.AlertHandle)
	if !active {
		t.Error("reminder left without an alert after failed send")
	}
}

func TestTickIgnoresDeletedReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.reg.Register(ctx, notify.Alert{
		ReminderID: "gone",
		Title:      "Orphan",
		Trigger:    care.Trigger{Kind: care.TriggerOnce, At: f.now.Add(-time.Minute)},
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	f.sched.Tick(ctx)
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected orphan alert to be sent once, got %d", len(f.sender.sent))
	}
	pending, _ := f.reg.Pending(ctx)
	if len(pending) != 0 {
		t.Errorf("orphan alert re-registered: %+v", pending)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.sched.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunRejectsBadInterval(t *testing.T) {
	f := newFixture(t)
	s := New(f.reg, f.sender, f.svc, logging.Nop(), WithInterval(0))
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error for zero interval")
	}
}
