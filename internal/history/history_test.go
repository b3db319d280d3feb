package history

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-widget/internal/prayer"
)

func openDB(t *testing.T, keepDays int) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(path, keepDays, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func schedule(fajr string) prayer.Schedule {
	e, _ := prayer.NewEntry24h(fajr)
	return prayer.Schedule{prayer.Fajr: e}
}

var day = time.Date(2026, 2, 28, 0, 5, 0, 0, time.UTC)

func TestOpen_Reopen(t *testing.T) {
	db, path := openDB(t, 0)
	ctx := context.Background()
	if err := db.RecordSchedule(ctx, day, schedule("05:00"), "network"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	again, err := Open(path, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer again.Close()

	records, err := again.Schedules(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(records))
	}
}

func TestRecordSchedule_RoundTrip(t *testing.T) {
	db, _ := openDB(t, 0)
	ctx := context.Background()

	if err := db.RecordSchedule(ctx, day, schedule("05:00"), "network"); err != nil {
		t.Fatalf("RecordSchedule error: %v", err)
	}

	records, err := db.Schedules(ctx, 10)
	if err != nil {
		t.Fatalf("Schedules error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Date != "2026-02-28" || r.Origin != "network" {
		t.Errorf("record = %+v", r)
	}
	if r.Schedule[prayer.Fajr].H24 != "05:00" {
		t.Errorf("Fajr = %+v", r.Schedule[prayer.Fajr])
	}
	if r.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestRecordSchedule_ReplacesSameDay(t *testing.T) {
	db, _ := openDB(t, 0)
	ctx := context.Background()

	db.RecordSchedule(ctx, day, schedule("05:00"), "network")
	db.RecordSchedule(ctx, day, schedule("04:59"), "network")

	records, _ := db.Schedules(ctx, 0)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Schedule[prayer.Fajr].H24 != "04:59" {
		t.Errorf("Fajr = %q, want the latest copy", records[0].Schedule[prayer.Fajr].H24)
	}
}

func TestSchedules_NewestFirstAndLimit(t *testing.T) {
	db, _ := openDB(t, 30)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		db.RecordSchedule(ctx, day.AddDate(0, 0, i), schedule("05:00"), "network")
	}

	records, err := db.Schedules(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2026-03-04", "2026-03-03", "2026-03-02"}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		if records[i].Date != w {
			t.Errorf("records[%d].Date = %q, want %q", i, records[i].Date, w)
		}
	}
}

func TestRecordSchedule_PrunesOldDays(t *testing.T) {
	db, _ := openDB(t, 7)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := db.RecordSchedule(ctx, day.AddDate(0, 0, i), schedule("05:00"), "network"); err != nil {
			t.Fatal(err)
		}
	}

	records, _ := db.Schedules(ctx, 0)
	if len(records) != 7 {
		t.Fatalf("got %d records, want 7", len(records))
	}
	if oldest := records[len(records)-1].Date; oldest != "2026-03-03" {
		t.Errorf("oldest = %q, want 2026-03-03", oldest)
	}
}

func TestFired_RoundTrip(t *testing.T) {
	db, _ := openDB(t, 0)
	ctx := context.Background()

	if err := db.MarkFired(ctx, "2026-02-28", prayer.Fajr, day); err != nil {
		t.Fatalf("MarkFired error: %v", err)
	}
	if err := db.MarkFired(ctx, "2026-02-28", prayer.Dhuhr, day.Add(7*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkFired(ctx, "2026-02-28", prayer.Fajr, day.Add(time.Minute)); err != nil {
		t.Fatalf("duplicate MarkFired should be ignored, got %v", err)
	}
	db.MarkFired(ctx, "2026-02-27", prayer.Isha, day.Add(-time.Hour))

	got, err := db.Fired(ctx, "2026-02-28")
	if err != nil {
		t.Fatalf("Fired error: %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != prayer.Dhuhr || got[1] != prayer.Fajr {
		t.Errorf("Fired = %v, want [Dhuhr Fajr]", got)
	}

	none, _ := db.Fired(ctx, "2026-03-01")
	if len(none) != 0 {
		t.Errorf("Fired(unknown day) = %v, want empty", none)
	}
}

func TestPrune_Alarms(t *testing.T) {
	db, _ := openDB(t, 2)
	ctx := context.Background()

	db.MarkFired(ctx, "2026-02-26", prayer.Asr, day)
	db.MarkFired(ctx, "2026-02-27", prayer.Asr, day)

	if err := db.Prune(ctx, day); err != nil {
		t.Fatalf("Prune error: %v", err)
	}

	if old, _ := db.Fired(ctx, "2026-02-26"); len(old) != 0 {
		t.Errorf("alarms of 2026-02-26 survived pruning: %v", old)
	}
	if kept, _ := db.Fired(ctx, "2026-02-27"); len(kept) != 1 {
		t.Errorf("alarms of 2026-02-27 were pruned: %v", kept)
	}
}
