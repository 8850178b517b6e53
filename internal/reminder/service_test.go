package reminder

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notexe/plant-care/internal/care"
	"github.com/notexe/plant-care/internal/logging"
	"github.com/notexe/plant-care/internal/notify"
	"github.com/notexe/plant-care/internal/storage"
)

type testEnv struct {
	svc   *Service
	store *Store
	reg   *notify.SQLRegistrar
	now   time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

// newTestEnv wires a service to a real SQLite store and registrar. The clock
// starts on Monday 2024-03-04 10:00 UTC.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "plants.db"))
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{now: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	env.store = NewStore(db)
	env.reg = notify.NewSQLRegistrar(db, notify.WithClock(env.clock))
	env.svc = NewService(env.store, env.reg, logging.Nop(), WithClock(env.clock))
	return env
}

func (e *testEnv) pending(t *testing.T, reminderID string) []notify.Alert {
	t.Helper()
	all, err := e.reg.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	var out []notify.Alert
	for _, a := range all {
		if a.ReminderID == reminderID {
			out = append(out, a)
		}
	}
	return out
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestServiceCreateRegistersAlert(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{
		PlantID:      "pilea",
		PlantName:    "Pilea",
		Type:         "Watering",
		Frequency:    "biweekly",
		StartDate:    "2024-03-04",
		PreferredDay: "wed",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if rec.ID == "" || !rec.Enabled {
		t.Errorf("record = %+v", rec)
	}
	if rec.NextDue != care.MustParseDate("2024-03-06") {
		t.Errorf("NextDue = %s, want 2024-03-06", rec.NextDue)
	}
	if rec.Type != care.Watering || rec.PreferredDay != care.Wednesday {
		t.Errorf("normalised fields = %s / %s", rec.Type, rec.PreferredDay)
	}

	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Handle != rec.AlertHandle {
		t.Errorf("handle = %s, record has %s", a.Handle, rec.AlertHandle)
	}
	if a.Trigger.Kind != care.TriggerOnce || !a.FireAt.Equal(at("2024-03-06 08:00")) {
		t.Errorf("alert = %s at %s", a.Trigger, a.FireAt)
	}
	if a.Title != "💧 Watering reminder" || !strings.Contains(a.Body, "Pilea") {
		t.Errorf("alert text = %q / %q", a.Title, a.Body)
	}
	if a.Payload["next_due"] != "2024-03-06" {
		t.Errorf("payload = %v", a.Payload)
	}
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "singing", Frequency: "weekly", StartDate: "2024-03-04"})
	if err == nil || !strings.Contains(err.Error(), "type must be one of") {
		t.Fatalf("expected type validation error, got %v", err)
	}

	recs, _ := env.store.List(ctx, StatusAll)
	if len(recs) != 0 {
		t.Errorf("invalid input stored %d records", len(recs))
	}
}

func TestServiceDefaultTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.svc = NewService(env.store, env.reg, logging.Nop(), WithClock(env.clock), WithDefaultTime("evening"))

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "other", Frequency: "daily", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.PreferredTime != "evening" {
		t.Errorf("PreferredTime = %q, want evening", rec.PreferredTime)
	}

	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 || alerts[0].Trigger.Kind != care.TriggerDaily {
		t.Fatalf("alerts = %+v", alerts)
	}
	if !alerts[0].FireAt.Equal(at("2024-03-04 19:00")) {
		t.Errorf("FireAt = %s, want today 19:00", alerts[0].FireAt)
	}
}

func TestServiceMarkCompleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{
		PlantID:   "ficus",
		Type:      "fertilizing",
		Frequency: "biweekly",
		StartDate: "2024-03-04",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	oldHandle := rec.AlertHandle

	done, err := env.svc.MarkCompleted(ctx, rec.ID[:8], care.Date{})
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	if done.NextDue != care.MustParseDate("2024-03-18") {
		t.Errorf("NextDue = %s, want 2024-03-18", done.NextDue)
	}
	if done.LastCompleted == nil || *done.LastCompleted != care.MustParseDate("2024-03-04") {
		t.Errorf("LastCompleted = %v", done.LastCompleted)
	}
	if done.State(care.MustParseDate("2024-03-04")) != care.StateScheduled {
		t.Errorf("state after completion = %s", done.State(care.MustParseDate("2024-03-04")))
	}

	active, _ := env.reg.Active(ctx, oldHandle)
	if active {
		t.Error("old alert still active after completion")
	}
	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 || !alerts[0].FireAt.Equal(at("2024-03-18 08:00")) {
		t.Fatalf("alerts after completion = %+v", alerts)
	}

	stored, _ := env.store.Get(ctx, rec.ID)
	if stored.AlertHandle != alerts[0].Handle {
		t.Errorf("stored handle = %s, want %s", stored.AlertHandle, alerts[0].Handle)
	}
}

func TestServiceMarkCompletedBackdated(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "watering", Frequency: "every3days", StartDate: "2024-02-20"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	done, err := env.svc.MarkCompleted(ctx, rec.ID, care.MustParseDate("2024-02-25"))
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	// 02-28, 03-02 are still in the past; 03-05 is the first day not before today.
	if done.NextDue != care.MustParseDate("2024-03-05") {
		t.Errorf("NextDue = %s, want 2024-03-05", done.NextDue)
	}

	if _, err := env.svc.MarkCompleted(ctx, rec.ID, care.MustParseDate("2024-03-05")); err == nil {
		t.Error("expected error for completion in the future")
	}
}

func TestServiceSetEnabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "rotation", Frequency: "weekly", StartDate: "2024-03-04", PreferredDay: "friday"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	due := rec.NextDue

	off, err := env.svc.Toggle(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if off.Enabled || off.AlertHandle != "" || off.NextDue != due {
		t.Errorf("after disable = %+v", off)
	}
	if n := len(env.pending(t, rec.ID)); n != 0 {
		t.Errorf("disabled reminder has %d alerts", n)
	}

	on, err := env.svc.SetEnabled(ctx, rec.ID, true)
	if err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if !on.Enabled || on.NextDue != due {
		t.Errorf("after enable = %+v", on)
	}
	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 || alerts[0].Trigger.Kind != care.TriggerWeekly {
		t.Fatalf("alerts after enable = %+v", alerts)
	}
	if !alerts[0].FireAt.Equal(at("2024-03-08 08:00")) {
		t.Errorf("weekly FireAt = %s", alerts[0].FireAt)
	}

	// Enabling twice keeps a single alert.
	if _, err := env.svc.SetEnabled(ctx, rec.ID, true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if n := len(env.pending(t, rec.ID)); n != 1 {
		t.Errorf("expected 1 alert, got %d", n)
	}
}

func TestServiceEdit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	enabled := false
	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "pruning", Frequency: "monthly", StartDate: "2024-01-31", Enabled: &enabled})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.AlertHandle != "" {
		t.Error("disabled reminder registered an alert")
	}
	rec, err = env.svc.MarkCompleted(ctx, rec.ID, care.MustParseDate("2024-03-01"))
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	in := InputFrom(*rec)
	in.Frequency = "weekly"
	in.PreferredDay = "sunday"
	in.PreferredTime = "18:30"
	in.Enabled = nil

	edited, err := env.svc.Edit(ctx, rec.ID, in)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if edited.ID != rec.ID || edited.Enabled {
		t.Errorf("edit changed identity or enabled: %+v", edited)
	}
	if edited.NextDue != care.MustParseDate("2024-02-04") {
		t.Errorf("NextDue = %s, want first sunday from start date", edited.NextDue)
	}
	if edited.LastCompleted == nil || *edited.LastCompleted != care.MustParseDate("2024-03-01") {
		t.Errorf("LastCompleted lost: %v", edited.LastCompleted)
	}

	on := true
	in.Enabled = &on
	edited, err = env.svc.Edit(ctx, rec.ID, in)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	alerts := env.pending(t, rec.ID)
	want := care.Trigger{Kind: care.TriggerWeekly, Weekday: care.Sunday, Time: care.TimeOfDay{Hour: 18, Minute: 30}}
	if len(alerts) != 1 || alerts[0].Trigger != want {
		t.Fatalf("alerts after edit = %+v", alerts)
	}
	if edited.AlertHandle != alerts[0].Handle {
		t.Errorf("handle mismatch")
	}
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "repotting", Frequency: "yearly", StartDate: "2024-05-01"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := env.svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := env.svc.Get(ctx, rec.ID); !IsNotFound(err) {
		t.Errorf("Get after delete error = %v", err)
	}
	if n := len(env.pending(t, rec.ID)); n != 0 {
		t.Errorf("deleted reminder left %d alerts", n)
	}
	if err := env.svc.Delete(ctx, rec.ID); !IsNotFound(err) {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestServiceRenotify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "fertilizing", Frequency: "monthly", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 || !alerts[0].FireAt.Equal(env.now.Add(care.MinLeadTime)) {
		t.Fatalf("due-today alert = %+v, want now plus lead time", alerts)
	}

	env.now = env.now.Add(2 * time.Minute)
	fired, err := env.reg.Due(ctx, env.now)
	if err != nil || len(fired) != 1 {
		t.Fatalf("Due = %d alerts, %v", len(fired), err)
	}

	if _, err := env.svc.Renotify(ctx, rec.ID); err != nil {
		t.Fatalf("Renotify failed: %v", err)
	}
	alerts = env.pending(t, rec.ID)
	if len(alerts) != 1 || !alerts[0].FireAt.Equal(at("2024-03-05 08:00")) {
		t.Fatalf("renotified alert = %+v, want tomorrow morning", alerts)
	}

	stored, _ := env.store.Get(ctx, rec.ID)
	if stored.NextDue != care.MustParseDate("2024-03-04") {
		t.Errorf("Renotify changed NextDue to %s", stored.NextDue)
	}
}

func TestServiceReconcile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "watering", Frequency: "every3days", StartDate: "2024-03-06"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := env.svc.Create(ctx, Input{PlantID: "ficus", Type: "watering", Frequency: "daily", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Lose a's alert and leave a stale handle on a disabled b.
	if err := env.reg.Cancel(ctx, a.AlertHandle); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	b.Enabled = false
	if _, err := env.store.Save(ctx, *b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	res, err := env.svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Registered != 1 || res.Cancelled != 1 {
		t.Errorf("result = %+v, want 1 registered and 1 cancelled", res)
	}
	if n := len(env.pending(t, a.ID)); n != 1 {
		t.Errorf("a has %d alerts", n)
	}
	if n := len(env.pending(t, b.ID)); n != 0 {
		t.Errorf("b has %d alerts", n)
	}

	res, err = env.svc.Reconcile(ctx)
	if err != nil || res != (ReconcileResult{}) {
		t.Errorf("second Reconcile = %+v, %v", res, err)
	}
}

// interleavingRegistrar runs hook once, before the first Active lookup, so a
// second service can write between a reconcile pass's read and its checks.
type interleavingRegistrar struct {
	*notify.SQLRegistrar
	hook func()
}

func (r *interleavingRegistrar) Active(ctx context.Context, handle string) (bool, error) {
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook()
	}
	return r.SQLRegistrar.Active(ctx, handle)
}

func TestServiceReconcileConcurrentCompletion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// The dispatcher and the command line share one database.
	reg := &interleavingRegistrar{SQLRegistrar: env.reg}
	dispatcher := NewService(NewStore(env.store.db), reg, logging.Nop(), WithClock(env.clock))

	rec, err := env.svc.Create(ctx, Input{PlantID: "ficus", Type: "watering", Frequency: "daily", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	reg.hook = func() {
		if _, err := env.svc.MarkCompleted(ctx, rec.ID, care.Date{}); err != nil {
			t.Errorf("MarkCompleted failed: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		if _, err := dispatcher.Reconcile(ctx); err != nil {
			t.Fatalf("Reconcile %d failed: %v", i, err)
		}
	}

	stored, err := env.store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 {
		t.Fatalf("want exactly 1 alert, got %d: %+v", len(alerts), alerts)
	}
	if alerts[0].Handle != stored.AlertHandle {
		t.Errorf("alert handle = %s, reminder holds %s", alerts[0].Handle, stored.AlertHandle)
	}
	if stored.NextDue != care.MustParseDate("2024-03-05") {
		t.Errorf("NextDue = %s, want the completion to survive", stored.NextDue)
	}
}

func TestServiceReconcileSweepsOrphanedAlerts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "watering", Frequency: "daily", StartDate: "2024-03-04"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	daily := care.Trigger{Kind: care.TriggerDaily, Time: care.TimeOfDay{Hour: 8}}
	for _, id := range []string{rec.ID, "deleted-reminder"} {
		if _, err := env.reg.Register(ctx, notify.Alert{ReminderID: id, Trigger: daily}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	res, err := env.svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Registered != 0 || res.Cancelled != 2 {
		t.Errorf("result = %+v, want 2 cancelled", res)
	}

	alerts := env.pending(t, rec.ID)
	if len(alerts) != 1 || alerts[0].Handle != rec.AlertHandle {
		t.Errorf("alerts = %+v, want only %s", alerts, rec.AlertHandle)
	}
	if n := len(env.pending(t, "deleted-reminder")); n != 0 {
		t.Errorf("deleted reminder still has %d alerts", n)
	}
}

func TestServicePreviewTrigger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec, err := env.svc.Create(ctx, Input{PlantID: "fern", Type: "watering", Frequency: "quarterly", StartDate: "2024-01-01", PreferredTime: "afternoon"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	trigger, err := env.svc.PreviewTrigger(ctx, rec.ID)
	if err != nil {
		t.Fatalf("PreviewTrigger failed: %v", err)
	}
	// A past due date is moved to tomorrow.
	if trigger.Kind != care.TriggerOnce || !trigger.At.Equal(at("2024-03-05 13:00")) {
		t.Errorf("trigger = %s", trigger)
	}
}
