package normalize

import (
	"strings"

	"murshid/internal/schedule"
)

// arabicSlots maps literal Arabic phrases (after whitespace folding) to
// canonical slots. Both the ض and ظ spellings of Dhuhr appear because users
// type either.
var arabicSlots = map[string]schedule.Slot{
	"بعد_الفجر":  schedule.AfterFajr,
	"الفجر":      schedule.AfterFajr,
	"الصبح":      schedule.Morning,
	"صباحا":      schedule.Morning,
	"قبل_الضهر":  schedule.BeforeDhuhr,
	"قبل_الظهر":  schedule.BeforeDhuhr,
	"بعد_الضهر":  schedule.AfterDhuhr,
	"بعد_الظهر":  schedule.AfterDhuhr,
	"الضهر":      schedule.AfterDhuhr,
	"الظهر":      schedule.AfterDhuhr,
	"بعد_العصر":  schedule.AfterAsr,
	"العصر":      schedule.AfterAsr,
	"قبل_المغرب": schedule.BeforeMaghrib,
	"بعد_المغرب": schedule.AfterMaghrib,
	"المغرب":     schedule.AfterMaghrib,
	"بعد_العشا":  schedule.AfterIsha,
	"بعد_العشاء": schedule.AfterIsha,
	"العشا":      schedule.AfterIsha,
	"قبل_النوم":  schedule.BeforeSleep,
}

// TimeSlot canonicalises a raw slot expression: lowercase, whitespace runs
// replaced with underscores, then checked against the canonical slot enum and
// the Arabic phrase table. Returns ("", false) for anything unrecognised —
// never an error.
func TimeSlot(raw string) (schedule.Slot, bool) {
	folded := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), "_")
	if folded == "" {
		return "", false
	}

	if s := schedule.Slot(folded); s.Valid() {
		return s, true
	}
	if s, ok := arabicSlots[folded]; ok {
		return s, true
	}
	return "", false
}
