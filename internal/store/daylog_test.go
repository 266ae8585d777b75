package store

import (
	"context"
	"testing"
	"time"

	"murshid/internal/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTestHabits(t *testing.T, s *Store) {
	t.Helper()
	err := s.SeedHabits(context.Background(), []HabitDefinition{
		{ID: "quran", Name: "ورد القرآن", Slot: schedule.AfterFajr, RequiresJustification: true},
		{ID: "walk", Name: "مشي نص ساعة", Slot: schedule.AfterAsr},
	})
	if err != nil {
		t.Fatalf("SeedHabits: %v", err)
	}
}

func TestAddTask_SequentialIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddTask(ctx, "2026-02-16", TaskFields{Title: "اشتري خضار", Slot: schedule.AfterDhuhr})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if first.ID != "t-001" {
		t.Errorf("first ID = %q, want t-001", first.ID)
	}
	if first.Status != StatusPending {
		t.Errorf("status = %q, want pending", first.Status)
	}

	second, err := s.AddTask(ctx, "2026-02-16", TaskFields{Title: "اتصل بالدكتور", Slot: schedule.Morning})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if second.ID != "t-002" {
		t.Errorf("second ID = %q, want t-002", second.ID)
	}

	// The counter is per-day: a different day starts over at t-001.
	other, err := s.AddTask(ctx, "2026-02-17", TaskFields{Title: "راجع الملفات", Slot: schedule.AfterIsha})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if other.ID != "t-001" {
		t.Errorf("other-day ID = %q, want t-001", other.ID)
	}
}

func TestAddTask_IDNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := "2026-02-16"

	if _, err := s.AddTask(ctx, day, TaskFields{Title: "one", Slot: schedule.Morning}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	deleted, err := s.DeleteTask(ctx, day, "t-001")
	if err != nil || !deleted {
		t.Fatalf("DeleteTask = (%v, %v), want (true, nil)", deleted, err)
	}

	next, err := s.AddTask(ctx, day, TaskFields{Title: "two", Slot: schedule.Morning})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if next.ID != "t-002" {
		t.Errorf("ID after delete = %q, want t-002 (IDs are never reused)", next.ID)
	}
}

func TestGetTask_Missing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetTask(context.Background(), "2026-02-16", "t-099")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got != nil {
		t.Errorf("GetTask on empty day = %+v, want nil", got)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := "2026-02-16"

	if _, err := s.AddTask(ctx, day, TaskFields{Title: "اشتري خضار", Slot: schedule.AfterDhuhr}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	title := "اشتري خضار وفاكهة"
	status := StatusDone
	now := time.Now().UTC().Truncate(time.Second)
	updated, err := s.UpdateTask(ctx, day, "t-001", TaskPatch{
		Title:       &title,
		Status:      &status,
		CompletedAt: &now,
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated == nil {
		t.Fatal("UpdateTask returned nil for existing task")
	}
	if updated.Title != title || updated.Status != StatusDone {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Slot != schedule.AfterDhuhr {
		t.Errorf("slot changed unexpectedly: %q", updated.Slot)
	}

	reread, err := s.GetTask(ctx, day, "t-001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if reread.Status != StatusDone || reread.CompletedAt == nil {
		t.Errorf("persisted = %+v", reread)
	}

	reason := "مشغول طول اليوم"
	if _, err := s.UpdateTask(ctx, day, "t-001", TaskPatch{SkipReason: &reason}); err != nil {
		t.Fatalf("UpdateTask skip reason: %v", err)
	}
	reread, err = s.GetTask(ctx, day, "t-001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if reread.SkipReason != reason {
		t.Errorf("skip reason = %q, want it persisted verbatim", reread.SkipReason)
	}

	missing, err := s.UpdateTask(ctx, day, "t-099", TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask missing: %v", err)
	}
	if missing != nil {
		t.Errorf("UpdateTask on missing task = %+v, want nil", missing)
	}
}

func TestGetDay_HabitsDefaultPending(t *testing.T) {
	s := newTestStore(t)
	seedTestHabits(t, s)
	ctx := context.Background()
	day := "2026-02-16"

	rec, err := s.GetDay(ctx, day)
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(rec.Habits) != 2 {
		t.Fatalf("habits = %d, want 2", len(rec.Habits))
	}
	for _, h := range rec.Habits {
		if h.Status != StatusPending {
			t.Errorf("habit %s status = %q, want pending", h.ID, h.Status)
		}
	}
	if len(rec.Tasks) != 0 {
		t.Errorf("tasks = %d, want 0", len(rec.Tasks))
	}
}

func TestUpdateHabitStatus(t *testing.T) {
	s := newTestStore(t)
	seedTestHabits(t, s)
	ctx := context.Background()
	day := "2026-02-16"

	if err := s.UpdateHabitStatus(ctx, day, "quran", StatusSkipped, "كنت مسافر"); err != nil {
		t.Fatalf("UpdateHabitStatus: %v", err)
	}

	rec, err := s.GetDay(ctx, day)
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	var quran *HabitEntry
	for i := range rec.Habits {
		if rec.Habits[i].ID == "quran" {
			quran = &rec.Habits[i]
		}
	}
	if quran == nil {
		t.Fatal("quran habit missing from day record")
	}
	if quran.Status != StatusSkipped || quran.Justification != "كنت مسافر" {
		t.Errorf("quran = %+v", quran)
	}

	// A later correction overwrites the earlier status.
	if err := s.UpdateHabitStatus(ctx, day, "quran", StatusDone, ""); err != nil {
		t.Fatalf("UpdateHabitStatus: %v", err)
	}
	rec, _ = s.GetDay(ctx, day)
	for _, h := range rec.Habits {
		if h.ID == "quran" && h.Status != StatusDone {
			t.Errorf("after correction status = %q, want done", h.Status)
		}
	}

	if err := s.UpdateHabitStatus(ctx, day, "nope", StatusDone, ""); err == nil {
		t.Error("expected error for unknown habit")
	}
}

func TestSeedHabits_DeactivatesRemoved(t *testing.T) {
	s := newTestStore(t)
	seedTestHabits(t, s)
	ctx := context.Background()

	err := s.SeedHabits(ctx, []HabitDefinition{
		{ID: "quran", Name: "ورد القرآن", Slot: schedule.AfterFajr, RequiresJustification: true},
	})
	if err != nil {
		t.Fatalf("SeedHabits: %v", err)
	}

	rec, err := s.GetDay(ctx, "2026-02-16")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(rec.Habits) != 1 || rec.Habits[0].ID != "quran" {
		t.Errorf("habits after reseed = %+v", rec.Habits)
	}
}
