package schedule

import (
	"testing"
	"time"
)

func testTimetable() Timetable {
	return Timetable{
		Fajr:    "05:00",
		Dhuhr:   "12:00",
		Asr:     "15:30",
		Maghrib: "18:00",
		Isha:    "19:30",
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(testTimetable(), time.UTC); err != nil {
		t.Fatalf("valid timetable rejected: %v", err)
	}

	bad := testTimetable()
	bad.Asr = "xx:yy"
	if _, err := New(bad, time.UTC); err == nil {
		t.Error("expected error for malformed time")
	}

	unordered := testTimetable()
	unordered.Maghrib = "11:00"
	if _, err := New(unordered, time.UTC); err == nil {
		t.Error("expected error for non-increasing prayer times")
	}
}

func TestCurrentSlot(t *testing.T) {
	s, err := New(testTimetable(), time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		clock string
		want  Slot
	}{
		{"03:00", BeforeSleep}, // pre-dawn belongs to the previous evening
		{"05:00", AfterFajr},
		{"06:59", AfterFajr},
		{"07:00", Morning},
		{"11:00", BeforeDhuhr},
		{"12:30", AfterDhuhr},
		{"15:30", AfterAsr},
		{"17:15", BeforeMaghrib},
		{"18:10", AfterMaghrib},
		{"19:45", AfterIsha},
		{"21:30", BeforeSleep},
		{"23:59", BeforeSleep},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			parsed, err := time.Parse("15:04", tt.clock)
			if err != nil {
				t.Fatal(err)
			}
			now := time.Date(2026, 2, 16, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
			if got := s.CurrentSlot(now); got != tt.want {
				t.Errorf("CurrentSlot(%s) = %s, want %s", tt.clock, got, tt.want)
			}
		})
	}
}

func TestSlotBounds(t *testing.T) {
	s, err := New(testTimetable(), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)

	start, end, err := s.SlotBounds(day, AfterDhuhr)
	if err != nil {
		t.Fatal(err)
	}
	if start.Hour() != 12 || start.Minute() != 0 {
		t.Errorf("after_dhuhr start = %v, want 12:00", start)
	}
	if end.Hour() != 15 || end.Minute() != 30 {
		t.Errorf("after_dhuhr end = %v, want 15:30", end)
	}

	// before_sleep spills into the next day, ending at fajr.
	start, end, err = s.SlotBounds(day, BeforeSleep)
	if err != nil {
		t.Fatal(err)
	}
	if start.Hour() != 21 || start.Minute() != 30 {
		t.Errorf("before_sleep start = %v, want 21:30", start)
	}
	if end.Day() != 17 || end.Hour() != 5 {
		t.Errorf("before_sleep end = %v, want next-day 05:00", end)
	}

	if _, _, err := s.SlotBounds(day, Slot("midnight")); err == nil {
		t.Error("expected error for unknown slot")
	}
}

func TestSlotValid(t *testing.T) {
	for _, s := range All() {
		if !s.Valid() {
			t.Errorf("slot %s reported invalid", s)
		}
	}
	if Slot("after_lunch").Valid() {
		t.Error("after_lunch should not be valid")
	}
}
