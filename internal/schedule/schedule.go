package schedule

import (
	"fmt"
	"time"
)

// Timetable holds the five daily prayer times as "HH:MM" wall-clock strings.
// The values come from configuration (a local mosque timetable or any prayer
// time source the user prefers).
type Timetable struct {
	Fajr    string `yaml:"fajr"`
	Dhuhr   string `yaml:"dhuhr"`
	Asr     string `yaml:"asr"`
	Maghrib string `yaml:"maghrib"`
	Isha    string `yaml:"isha"`
}

// Schedule resolves the current slot and slot boundaries from a Timetable.
// It is immutable after construction and safe for concurrent use.
type Schedule struct {
	fajr, dhuhr, asr, maghrib, isha clockTime
	loc                             *time.Location
}

// clockTime is a time-of-day in minutes since midnight.
type clockTime int

func (c clockTime) at(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

// New builds a Schedule from a timetable. All five prayer times are required
// and must be strictly increasing within the day (fajr < dhuhr < asr <
// maghrib < isha).
func New(tt Timetable, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.Local
	}
	parse := func(name, v string) (clockTime, error) {
		t, err := time.Parse("15:04", v)
		if err != nil {
			return 0, fmt.Errorf("schedule: invalid %s time %q (want HH:MM)", name, v)
		}
		return clockTime(t.Hour()*60 + t.Minute()), nil
	}

	s := &Schedule{loc: loc}
	var err error
	if s.fajr, err = parse("fajr", tt.Fajr); err != nil {
		return nil, err
	}
	if s.dhuhr, err = parse("dhuhr", tt.Dhuhr); err != nil {
		return nil, err
	}
	if s.asr, err = parse("asr", tt.Asr); err != nil {
		return nil, err
	}
	if s.maghrib, err = parse("maghrib", tt.Maghrib); err != nil {
		return nil, err
	}
	if s.isha, err = parse("isha", tt.Isha); err != nil {
		return nil, err
	}

	if !(s.fajr < s.dhuhr && s.dhuhr < s.asr && s.asr < s.maghrib && s.maghrib < s.isha) {
		return nil, fmt.Errorf("schedule: prayer times must be strictly increasing within the day")
	}
	return s, nil
}

// transitionOffsets anchor the sub-windows that are not delimited by a prayer
// time directly: after_fajr runs for two hours past fajr, before_dhuhr and
// before_maghrib open one hour ahead of their prayer, after_isha runs for two
// hours past isha.
const (
	afterFajrSpan     = 2 * 60 // minutes
	beforeDhuhrLead   = 60
	beforeMaghribLead = 60
	afterIshaSpan     = 2 * 60
)

// boundaries returns the ordered slot start times (minutes since midnight)
// for the eight slots that begin after fajr. Everything earlier than fajr
// belongs to before_sleep of the previous evening.
func (s *Schedule) boundaries() [9]struct {
	start clockTime
	slot  Slot
} {
	return [9]struct {
		start clockTime
		slot  Slot
	}{
		{s.fajr, AfterFajr},
		{s.fajr + afterFajrSpan, Morning},
		{s.dhuhr - beforeDhuhrLead, BeforeDhuhr},
		{s.dhuhr, AfterDhuhr},
		{s.asr, AfterAsr},
		{s.maghrib - beforeMaghribLead, BeforeMaghrib},
		{s.maghrib, AfterMaghrib},
		{s.isha, AfterIsha},
		{s.isha + afterIshaSpan, BeforeSleep},
	}
}

// CurrentSlot returns the slot containing the given instant. Times before
// fajr fall into before_sleep (the tail of the previous evening).
func (s *Schedule) CurrentSlot(now time.Time) Slot {
	now = now.In(s.loc)
	minutes := clockTime(now.Hour()*60 + now.Minute())

	current := BeforeSleep
	for _, b := range s.boundaries() {
		if minutes >= b.start {
			current = b.slot
		}
	}
	return current
}

// SlotBounds returns the absolute start and end instants of the given slot on
// the given day. before_sleep ends at the next day's fajr.
func (s *Schedule) SlotBounds(day time.Time, slot Slot) (start, end time.Time, err error) {
	bs := s.boundaries()
	for i, b := range bs {
		if b.slot != slot {
			continue
		}
		start = b.start.at(day, s.loc)
		if i+1 < len(bs) {
			end = bs[i+1].start.at(day, s.loc)
		} else {
			end = s.fajr.at(day.AddDate(0, 0, 1), s.loc)
		}
		return start, end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("schedule: unknown slot %q", slot)
}
