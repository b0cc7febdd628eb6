package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"newsdigest/internal/processing"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain text", input: "hello world", want: "hello world"},
		{name: "tags removed", input: "<p>hello <b>world</b></p>", want: "hello world"},
		{name: "entities decoded", input: "fish &amp; chips", want: "fish & chips"},
		{name: "whitespace collapsed", input: "a\n\n  b\t c", want: "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.StripHTML(tt.input))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := processing.SplitSentences("First sentence. Second one! Third? ")
	require.Equal(t, []string{"First sentence", "Second one", "Third"}, got)

	require.Empty(t, processing.SplitSentences(""))
	require.Empty(t, processing.SplitSentences("..."))
}

func TestOccurrenceCount(t *testing.T) {
	keywords := []string{"breach", "confirmed"}

	require.Equal(t, 0, processing.OccurrenceCount("", keywords))
	require.Equal(t, 0, processing.OccurrenceCount("nothing to see", nil))
	require.Equal(t, 1, processing.OccurrenceCount("a breach happened", keywords))
	require.Equal(t, 3, processing.OccurrenceCount("Breach! The breach was confirmed.", keywords))
	require.Equal(t, 1, processing.OccurrenceCount("CONFIRMED", keywords))
}

func TestContainsAny(t *testing.T) {
	require.True(t, processing.ContainsAny("Major outage reported", []string{"major"}))
	require.False(t, processing.ContainsAny("quiet day", []string{"major", "critical"}))
	require.False(t, processing.ContainsAny("anything", []string{"", "  "}))
}

func TestContentHashDeterministic(t *testing.T) {
	h1 := processing.ContentHash("title", "summary")
	h2 := processing.ContentHash("title", "summary")
	require.NotEmpty(t, h1)
	require.Equal(t, h1, h2)

	require.NotEqual(t, h1, processing.ContentHash("title", "other summary"))
}

func TestDocumentID(t *testing.T) {
	id1 := processing.DocumentID("https://example.com/a")
	id2 := processing.DocumentID("https://example.com/a")
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)

	require.NotEqual(t, id1, processing.DocumentID("https://example.com/b"))
	require.Empty(t, processing.DocumentID(""))
}

func TestParseTimestamp(t *testing.T) {
	ts := processing.ParseTimestamp("2024-02-03T04:05:06Z")
	require.False(t, ts.IsZero())
	require.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), ts.UTC())

	legacy := processing.ParseTimestamp("2024-02-03 04:05:06")
	require.False(t, legacy.IsZero())
	require.Equal(t, 3, legacy.Day())

	rss := processing.ParseTimestamp("Mon, 02 Jan 2006 15:04:05 -0700")
	require.False(t, rss.IsZero())

	require.True(t, processing.ParseTimestamp("not a date").IsZero())
	require.True(t, processing.ParseTimestamp("").IsZero())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", processing.Truncate("short", 10))
	require.Equal(t, "abc...", processing.Truncate("abcdef", 3))
	require.Equal(t, "unlimited", processing.Truncate("unlimited", 0))
}
