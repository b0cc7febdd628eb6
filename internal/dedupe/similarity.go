package dedupe

import (
	"regexp"
	"strings"
)

// Word tokens, Unicode-aware so non-Latin titles compare correctly.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// TokenSet lower-cases text and returns its set of word tokens.
func TokenSet(text string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard computes |a ∩ b| / |a ∪ b| over two token sets.
// Returns 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	intersection := 0
	for t := range small {
		if _, ok := large[t]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
