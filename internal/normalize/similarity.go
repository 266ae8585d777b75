package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Similarity computes the Jaccard overlap of the token sets of a and b,
// returning a value in [0,1]. Tokenisation strips everything except Arabic
// letters, Latin letters, digits and whitespace, lowercases, splits on
// whitespace, and discards single-character tokens. Returns 0 when either
// token set ends up empty.
//
// This is deliberately a cheap lexical measure, not a semantic one: two
// titles about the same errand phrased with disjoint words will not match.
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

// tokenSet produces the set of comparison tokens for a string.
func tokenSet(s string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.Is(unicode.Arabic, r),
			r >= 'a' && r <= 'z',
			unicode.IsDigit(r),
			unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	set := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}
