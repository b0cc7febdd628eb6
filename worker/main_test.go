package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/classify"
	"newsdigest/internal/config"
	"newsdigest/internal/dedupe"
	"newsdigest/internal/models"
	"newsdigest/internal/processing"
	"newsdigest/internal/scoring"
)

type stubIngester struct {
	got      []*models.Article
	decision dedupe.Decision
	err      error
}

func (s *stubIngester) Ingest(_ context.Context, a *models.Article) (dedupe.Decision, error) {
	s.got = append(s.got, a)
	return s.decision, s.err
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestPipeline(ing articleIngester) *pipeline {
	kw := config.Keywords{
		Fact:        []string{"confirmed"},
		Speculation: []string{"allegedly"},
		Importance:  []string{"breaking"},
	}
	cfg := &config.Worker{
		SummaryMaxLength: 300,
		BoostCategory:    "cybersecurity",
	}
	return &pipeline{
		cfg:        cfg,
		classifier: classify.New(kw),
		scorer:     scoring.New(kw, cfg.BoostCategory),
		engine:     ing,
		seen:       dedupe.NewSeenCache(100, time.Hour),
		now:        func() time.Time { return testNow },
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessBuildsArticle(t *testing.T) {
	ing := &stubIngester{decision: dedupe.Decision{Status: dedupe.StatusStandalone}}
	p := newTestPipeline(ing)

	payload := `{
		"title": "  Breaking: Vendor Confirms Data Breach  ",
		"summary": "<p>The vendor confirmed the incident and confirmed remediation.</p>",
		"url": "https://example.com/breach",
		"published": "2025-03-10T11:00:00Z",
		"category": "cybersecurity",
		"source": "Example Wire",
		"author": "J. Doe",
		"priority": 5
	}`

	err := p.process(context.Background(), discardLogger(), kafka.Message{Value: []byte(payload)})
	require.NoError(t, err)
	require.Len(t, ing.got, 1)

	a := ing.got[0]
	require.Equal(t, "Breaking: Vendor Confirms Data Breach", a.Title)
	require.Equal(t, "The vendor confirmed the incident and confirmed remediation.", a.Summary)
	require.Equal(t, processing.DocumentID(a.URL), a.ID)
	require.Equal(t, "https://example.com/breach", a.URL)
	require.Equal(t, "cybersecurity", a.Category)
	require.Equal(t, "Example Wire", a.SourceName)
	require.Equal(t, "J. Doe", a.Author)
	require.Equal(t, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), a.Published.UTC())

	// Hash covers the pre-sanitization summary.
	rawSummary := "<p>The vendor confirmed the incident and confirmed remediation.</p>"
	require.Equal(t, processing.ContentHash(a.Title, rawSummary), a.ContentHash)

	// 25 priority seed + 20 ("breaking") + 15 (boost category) + 10 (fresh)
	require.Equal(t, 70, a.SeedScore)
	require.Equal(t, models.ClassFactual, a.Classified)
	require.NotEmpty(t, a.Highlights)

	require.True(t, p.seen.Seen(a.URL))
}

func TestProcessScoresFullSummaryBeforeTruncation(t *testing.T) {
	ing := &stubIngester{decision: dedupe.Decision{Status: dedupe.StatusStandalone}}
	p := newTestPipeline(ing)

	payload, err := json.Marshal(models.RawArticle{
		Title:     "A quiet day in the data center",
		Summary:   strings.Repeat("word ", 120), // 599 chars once trimmed
		URL:       "https://example.com/long",
		Published: testNow.Add(-24 * time.Hour).Format(time.RFC3339),
		Category:  "general",
	})
	require.NoError(t, err)

	err = p.process(context.Background(), discardLogger(), kafka.Message{Value: payload})
	require.NoError(t, err)
	require.Len(t, ing.got, 1)

	a := ing.got[0]
	// The long-summary bonus is earned on the full text even though the
	// stored copy is cut to SummaryMaxLength.
	require.Equal(t, 5, a.SeedScore)
	require.True(t, strings.HasSuffix(a.Summary, "..."))
	require.Len(t, []rune(a.Summary), p.cfg.SummaryMaxLength+3)
}

func TestProcessRejectsMalformedJSON(t *testing.T) {
	ing := &stubIngester{}
	p := newTestPipeline(ing)

	err := p.process(context.Background(), discardLogger(), kafka.Message{Value: []byte("{broken")})
	require.Error(t, err)
	require.Empty(t, ing.got)
}

func TestProcessRejectsEmptyPayload(t *testing.T) {
	ing := &stubIngester{}
	p := newTestPipeline(ing)

	err := p.process(context.Background(), discardLogger(), kafka.Message{
		Value: []byte(`{"title": "  ", "summary": ""}`),
	})
	require.Error(t, err)
	require.Empty(t, ing.got)
}

func TestProcessSkipsURLSeenInSession(t *testing.T) {
	ing := &stubIngester{}
	p := newTestPipeline(ing)
	p.seen.Mark("https://example.com/already")

	err := p.process(context.Background(), discardLogger(), kafka.Message{
		Value: []byte(`{"title": "Seen before", "url": "https://example.com/already"}`),
	})
	require.NoError(t, err)
	require.Empty(t, ing.got)
}

func TestProcessDefaultsMissingFields(t *testing.T) {
	ing := &stubIngester{decision: dedupe.Decision{Status: dedupe.StatusStandalone}}
	p := newTestPipeline(ing)

	err := p.process(context.Background(), discardLogger(), kafka.Message{
		Value: []byte(`{"title": "A headline with no metadata", "published": "garbage"}`),
	})
	require.NoError(t, err)
	require.Len(t, ing.got, 1)

	a := ing.got[0]
	require.Equal(t, "general", a.Category)
	require.Equal(t, "unknown", a.SourceName)
	require.Equal(t, testNow, a.Published)
	require.NotEmpty(t, a.ID) // random id when there is no url to derive it from
	require.NotEmpty(t, a.ContentHash)
}

func TestProcessPropagatesIngestError(t *testing.T) {
	ing := &stubIngester{err: errors.New("store unavailable")}
	p := newTestPipeline(ing)

	err := p.process(context.Background(), discardLogger(), kafka.Message{
		Value: []byte(`{"title": "Fine headline", "url": "https://example.com/x"}`),
	})
	require.Error(t, err)

	// A failed ingest must not poison the session cache.
	require.False(t, p.seen.Seen("https://example.com/x"))
}
