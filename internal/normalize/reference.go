package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// taskRefPattern matches the accepted task reference shapes: a bare integer
// ("1", "007") or a t-prefixed integer with or without the dash ("t-1",
// "t1", "T-001").
var taskRefPattern = regexp.MustCompile(`^[tT]-?(\d+)$|^(\d+)$`)

// TaskReference canonicalises a task reference to the stored t-NNN form
// (three-digit zero pad). Non-numeric input passes through unchanged: it is
// either already canonical or unresolvable, and the caller's lookup will
// simply miss.
func TaskReference(raw string) string {
	raw = strings.TrimSpace(raw)
	m := taskRefPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("t-%03d", n)
}
