package processing

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	tags       = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
	sentences  = regexp.MustCompile(`[.!?]+`)
)

// StripHTML removes markup tags, decodes HTML entities, and squeezes
// whitespace. Feed summaries routinely arrive with embedded markup.
func StripHTML(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = tags.ReplaceAllString(decoded, " ")
	return CollapseWhitespace(decoded)
}

// CollapseWhitespace squeezes runs of whitespace into single spaces and
// trims the result.
func CollapseWhitespace(input string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(input, " "))
}

// SplitSentences splits text on sentence terminators and returns the
// trimmed non-empty pieces in original order.
func SplitSentences(text string) []string {
	parts := sentences.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// OccurrenceCount totals how many times each keyword appears in text.
// Matching is case-insensitive and counts repeated occurrences of the same
// keyword, not distinct keywords. Empty keywords are skipped.
func OccurrenceCount(text string, keywords []string) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	total := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		total += strings.Count(lower, kw)
	}
	return total
}

// ContainsAny reports whether any keyword appears in text,
// case-insensitively.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ContentHash digests title plus the raw summary. It is the secondary
// exact-duplicate key: it catches the same content re-published under a
// fresh URL.
func ContentHash(title, summary string) string {
	sum := sha256.Sum256([]byte(title + summary))
	return hex.EncodeToString(sum[:])
}

// DocumentID derives a deterministic store id from the article URL.
func DocumentID(url string) string {
	if url == "" {
		return ""
	}
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ParseTimestamp tries the timestamp formats seen in feed payloads.
// A zero time means the input was unparseable; callers substitute "now".
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
