// Package normalize canonicalises the entities extracted from user messages:
// relative date expressions, prayer-slot names, task references, and the
// lexical similarity measure used for duplicate detection. Everything here is
// a pure function of its inputs; the only notion of "now" is the reference
// date passed in by the caller.
package normalize

import (
	"strings"
	"time"
)

// ISODate is the canonical storage format for day keys.
const ISODate = "2006-01-02"

// relativeDays maps day expressions (Arabic and English, lowercased) to an
// offset from the reference date. Yesterday is recognised for completeness;
// shifting into the past is rejected later by the task lifecycle rules.
var relativeDays = map[string]int{
	"today":    0,
	"tonight":  0,
	"اليوم":    0,
	"النهارده": 0,
	"انهارده":  0,
	"النهاردة": 0,

	"tomorrow": 1,
	"بكرة":     1,
	"بكره":     1,
	"غدا":      1,
	"غداً":     1,

	"day after tomorrow": 2,
	"بعد بكرة":           2,
	"بعد بكره":           2,
	"بعد غد":             2,

	"yesterday": -1,
	"امبارح":    -1,
	"مبارح":     -1,
	"إمبارح":    -1,
	"أمس":       -1,
	"امس":       -1,
}

// weekdays maps weekday names (Arabic and English, lowercased) to a
// time.Weekday. Common Egyptian spellings are included alongside the formal
// ones.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,

	"الحد":     time.Sunday,
	"الأحد":    time.Sunday,
	"الاحد":    time.Sunday,
	"الاتنين":  time.Monday,
	"الإثنين":  time.Monday,
	"الاثنين":  time.Monday,
	"التلات":   time.Tuesday,
	"الثلاثاء": time.Tuesday,
	"الاربع":   time.Wednesday,
	"الأربعاء": time.Wednesday,
	"الاربعاء": time.Wednesday,
	"الخميس":   time.Thursday,
	"الجمعة":   time.Friday,
	"الجمعه":   time.Friday,
	"السبت":    time.Saturday,
}

// literalFormats are the literal date layouts accepted, tried in order.
// dd/MM comes before MM/dd so ambiguous dates resolve day-first; a date like
// 03/15/2026 fails day-first parsing and falls through to month-first.
var literalFormats = []string{
	ISODate,
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
}

// ResolveRelativeDate resolves a free-form date expression against a
// reference date and returns the resolved day in ISO format. The boolean is
// false when nothing matched; callers must not assume a value.
//
// Recognised forms, case-insensitively and in both Arabic and English:
// today/tomorrow/day-after/yesterday families, full weekday names (resolved
// to the next occurrence strictly after the reference date — "monday" on a
// Monday means next week), and literal dates in a small set of common
// layouts.
func ResolveRelativeDate(expr string, ref time.Time) (string, bool) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return "", false
	}

	// Strip leading qualifiers that do not change the meaning: "next monday"
	// and "يوم الخميس" resolve the same as the bare weekday.
	for _, prefix := range []string{"next ", "يوم ", "on "} {
		expr = strings.TrimPrefix(expr, prefix)
	}
	expr = strings.TrimSpace(expr)

	if offset, ok := relativeDays[expr]; ok {
		return ref.AddDate(0, 0, offset).Format(ISODate), true
	}

	if wd, ok := weekdays[expr]; ok {
		days := (int(wd) - int(ref.Weekday()) + 7) % 7
		if days == 0 {
			days = 7 // never resolve to the reference day itself
		}
		return ref.AddDate(0, 0, days).Format(ISODate), true
	}

	for _, layout := range literalFormats {
		if t, err := time.Parse(layout, expr); err == nil {
			return t.Format(ISODate), true
		}
	}

	return "", false
}
