package normalize

import (
	"testing"
	"time"
)

// ref is Monday 2026-02-16, used throughout the weekday tests.
var ref = time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

func TestResolveRelativeDate(t *testing.T) {
	tests := []struct {
		expr string
		want string
		ok   bool
	}{
		{"today", "2026-02-16", true},
		{"Today", "2026-02-16", true},
		{"النهارده", "2026-02-16", true},
		{"اليوم", "2026-02-16", true},

		{"tomorrow", "2026-02-17", true},
		{"بكرة", "2026-02-17", true},
		{"بكره", "2026-02-17", true},

		{"day after tomorrow", "2026-02-18", true},
		{"بعد بكرة", "2026-02-18", true},

		{"yesterday", "2026-02-15", true},
		{"امبارح", "2026-02-15", true},

		// Weekdays resolve strictly into the future.
		{"thursday", "2026-02-19", true},
		{"الخميس", "2026-02-19", true},
		{"monday", "2026-02-23", true}, // reference day is Monday: never today
		{"الاتنين", "2026-02-23", true},
		{"next friday", "2026-02-20", true},
		{"يوم الجمعة", "2026-02-20", true},

		// Literal dates.
		{"2026-03-01", "2026-03-01", true},
		{"01/03/2026", "2026-03-01", true}, // dd/MM wins over MM/dd
		{"01-03-2026", "2026-03-01", true},
		{"03/15/2026", "2026-03-15", true}, // MM/dd only when dd/MM is impossible

		{"gibberish", "", false},
		{"", "", false},
		{"someday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := ResolveRelativeDate(tt.expr, ref)
			if ok != tt.ok {
				t.Fatalf("ResolveRelativeDate(%q) ok = %v, want %v", tt.expr, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ResolveRelativeDate(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestResolveRelativeDate_WeekdayNeverToday(t *testing.T) {
	// For every weekday name, resolving on that same weekday must land
	// exactly seven days ahead.
	names := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	for i, name := range names {
		// 2026-02-15 is a Sunday.
		day := time.Date(2026, 2, 15+i, 0, 0, 0, 0, time.UTC)
		got, ok := ResolveRelativeDate(name, day)
		if !ok {
			t.Fatalf("%s did not resolve", name)
		}
		want := day.AddDate(0, 0, 7).Format(ISODate)
		if got != want {
			t.Errorf("ResolveRelativeDate(%q, %s) = %s, want %s", name, day.Format(ISODate), got, want)
		}
	}
}
