package normalize

import (
	"testing"

	"murshid/internal/schedule"
)

func TestTimeSlot(t *testing.T) {
	tests := []struct {
		raw  string
		want schedule.Slot
		ok   bool
	}{
		{"after_dhuhr", schedule.AfterDhuhr, true},
		{"After Dhuhr", schedule.AfterDhuhr, true},
		{"  before   sleep ", schedule.BeforeSleep, true},
		{"بعد الضهر", schedule.AfterDhuhr, true},
		{"بعد الظهر", schedule.AfterDhuhr, true}, // alternate spelling
		{"بعد العشاء", schedule.AfterIsha, true},
		{"قبل النوم", schedule.BeforeSleep, true},
		{"الصبح", schedule.Morning, true},
		{"after lunch", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := TimeSlot(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("TimeSlot(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTaskReference(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1", "t-001"},
		{"001", "t-001"},
		{"t-1", "t-001"},
		{"t1", "t-001"},
		{"T-001", "t-001"},
		{"t-042", "t-042"},
		{"12", "t-012"},
		{"اشتري خضار", "اشتري خضار"}, // non-numeric passes through
		{"t-abc", "t-abc"},
	}

	for _, tt := range tests {
		if got := TaskReference(tt.raw); got != tt.want {
			t.Errorf("TaskReference(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTaskReference_Idempotent(t *testing.T) {
	forms := []string{"1", "t-1", "t-001", "T-001"}
	for _, f := range forms {
		if got := TaskReference(f); got != "t-001" {
			t.Errorf("TaskReference(%q) = %q, want t-001", f, got)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical arabic", "اشتري خضار", "اشتري خضار", 1, 1},
		{"near duplicate", "اشتري خضار من السوق", "اشتري خضار", 0.5, 0.99},
		{"disjoint", "اشتري خضار", "اقرأ كتاب", 0, 0},
		{"identical english", "buy groceries", "buy groceries", 1, 1},
		{"punctuation ignored", "buy groceries!", "buy, groceries", 1, 1},
		{"case folded", "Buy Groceries", "buy groceries", 1, 1},
		{"empty left", "", "anything", 0, 0},
		{"single char tokens dropped", "a b c", "a b c", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %v, want within [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestSimilarity_DuplicateThreshold(t *testing.T) {
	// Titles sharing two of two tokens clear the 0.7 duplicate threshold;
	// a one-of-three overlap does not.
	if got := Similarity("اشتري خضار", "اشتري خضار"); got < 0.7 {
		t.Errorf("expected duplicate-level similarity, got %v", got)
	}
	if got := Similarity("اشتري خضار وفاكهة", "اشتري لحمة"); got >= 0.7 {
		t.Errorf("expected below-threshold similarity, got %v", got)
	}
}
