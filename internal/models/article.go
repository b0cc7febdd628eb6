package models

import (
	"errors"
	"time"
)

// ErrDuplicate is returned by a store when an insert hits a uniqueness key
// (url or content hash). Callers treat it as a benign rejection, not a failure.
var ErrDuplicate = errors.New("article already stored")

// Classification is a coarse label on the evidentiary language of an article.
type Classification string

const (
	ClassFactual     Classification = "FACTUAL"
	ClassSpeculation Classification = "SPECULATION"
	ClassMixed       Classification = "MIXED"
	ClassNeutral     Classification = "NEUTRAL"
)

// Article is the canonical document stored in Elasticsearch.
//
// SeedScore is written once by the scorer before ingestion; GroupBonus is
// written at most once by the dedup engine when the article joins a story
// group. Keeping the two phases separate avoids order-of-mutation bugs.
type Article struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Summary      string         `json:"summary"`
	URL          string         `json:"url"`
	ContentHash  string         `json:"content_hash"`
	Published    time.Time      `json:"published"`
	Category     string         `json:"category"`
	SourceName   string         `json:"source_name"`
	Author       string         `json:"author,omitempty"`
	SeedScore    int            `json:"seed_score"`
	GroupBonus   int            `json:"group_bonus"`
	Score        int            `json:"score"`
	Classified   Classification `json:"classification"`
	Highlights   []string       `json:"highlights,omitempty"`
	StoryGroupID int64          `json:"story_group,omitempty"`
}

// FinalScore combines the two score phases. Never negative: the seed is
// already clamped by the scorer and the group bonus is non-negative.
func (a *Article) FinalScore() int {
	return a.SeedScore + a.GroupBonus
}

// Grouped reports whether the article has been linked to a story group.
func (a *Article) Grouped() bool {
	return a.StoryGroupID > 0
}

// RawArticle is the wire shape published by the collector and consumed by
// the worker over Kafka. Summary may still contain feed markup.
type RawArticle struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Category  string `json:"category"`
	Source    string `json:"source"`
	Author    string `json:"author,omitempty"`
	Priority  int    `json:"priority"`
}
