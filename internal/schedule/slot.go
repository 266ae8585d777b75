// Package schedule maps wall-clock time onto the nine prayer-anchored windows
// Murshid uses to place habits and tasks instead of clock times. The prayer
// timetable itself is configuration: Murshid does not compute prayer times.
package schedule

// Slot is one of the nine named windows of a day, anchored to the five daily
// prayers. Habits and tasks are scheduled into a Slot rather than a clock time.
type Slot string

const (
	AfterFajr     Slot = "after_fajr"
	Morning       Slot = "morning"
	BeforeDhuhr   Slot = "before_dhuhr"
	AfterDhuhr    Slot = "after_dhuhr"
	AfterAsr      Slot = "after_asr"
	BeforeMaghrib Slot = "before_maghrib"
	AfterMaghrib  Slot = "after_maghrib"
	AfterIsha     Slot = "after_isha"
	BeforeSleep   Slot = "before_sleep"
)

// All returns the nine slots in chronological order.
func All() []Slot {
	return []Slot{
		AfterFajr, Morning, BeforeDhuhr, AfterDhuhr, AfterAsr,
		BeforeMaghrib, AfterMaghrib, AfterIsha, BeforeSleep,
	}
}

// Valid reports whether s is one of the nine canonical slots.
func (s Slot) Valid() bool {
	switch s {
	case AfterFajr, Morning, BeforeDhuhr, AfterDhuhr, AfterAsr,
		BeforeMaghrib, AfterMaghrib, AfterIsha, BeforeSleep:
		return true
	}
	return false
}

// arabicNames maps each slot to its Arabic display name, used when composing
// replies to the user.
var arabicNames = map[Slot]string{
	AfterFajr:     "بعد الفجر",
	Morning:       "الصبح",
	BeforeDhuhr:   "قبل الضهر",
	AfterDhuhr:    "بعد الضهر",
	AfterAsr:      "بعد العصر",
	BeforeMaghrib: "قبل المغرب",
	AfterMaghrib:  "بعد المغرب",
	AfterIsha:     "بعد العشا",
	BeforeSleep:   "قبل النوم",
}

// ArabicName returns the Arabic display name for s, falling back to the raw
// slot value for anything unrecognised.
func (s Slot) ArabicName() string {
	if name, ok := arabicNames[s]; ok {
		return name
	}
	return string(s)
}
