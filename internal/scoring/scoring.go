// Package scoring computes an integer importance score and extracts up to
// three highlight sentences for an article.
package scoring

import (
	"time"

	"newsdigest/internal/config"
	"newsdigest/internal/models"
	"newsdigest/internal/processing"
)

const (
	importancePoints   = 20
	boostCategoryBonus = 15
	freshBonus         = 10
	recentBonus        = 5
	longSummaryBonus   = 5
	longSummaryChars   = 500

	minSentenceLen  = 20
	maxHighlightLen = 200
	minHighlightLen = 10
	highlightLimit  = 3
)

// Scorer is stateless and deterministic given a fixed "now".
type Scorer struct {
	importance    []string
	fact          []string
	boostCategory string
}

// New builds a Scorer. boostCategory receives a fixed domain bonus
// (the reader's primary beat).
func New(kw config.Keywords, boostCategory string) *Scorer {
	return &Scorer{
		importance:    kw.Importance,
		fact:          kw.Fact,
		boostCategory: boostCategory,
	}
}

// Score composes the seed score with keyword salience, category bias,
// recency, and content length. The result is clamped at zero.
func (s *Scorer) Score(a *models.Article, now time.Time) int {
	score := a.SeedScore

	text := a.Title + " " + a.Summary
	score += importancePoints * processing.OccurrenceCount(text, s.importance)

	if a.Category == s.boostCategory {
		score += boostCategoryBonus
	}

	age := now.Sub(a.Published)
	switch {
	case age < 6*time.Hour:
		score += freshBonus
	case age < 12*time.Hour:
		score += recentBonus
	}

	if len(a.Summary) > longSummaryChars {
		score += longSummaryBonus
	}

	if score < 0 {
		score = 0
	}
	return score
}

// Highlights extracts up to three sentences worth surfacing in a digest.
// Sentences carrying an importance or fact keyword are preferred, in
// original order; the remainder is filled from the leading sentences.
func (s *Scorer) Highlights(a *models.Article) []string {
	sentences := processing.SplitSentences(a.Title + ". " + a.Summary)

	eligible := make([]string, 0, len(sentences))
	for _, sent := range sentences {
		if len(sent) > minSentenceLen {
			eligible = append(eligible, sent)
		}
	}

	keywords := make([]string, 0, len(s.importance)+len(s.fact))
	keywords = append(keywords, s.importance...)
	keywords = append(keywords, s.fact...)

	picked := make([]string, 0, highlightLimit)
	chosen := make(map[string]bool, highlightLimit)
	for _, sent := range eligible {
		if len(picked) >= highlightLimit {
			break
		}
		if len(sent) < maxHighlightLen && processing.ContainsAny(sent, keywords) {
			picked = append(picked, sent)
			chosen[sent] = true
		}
	}

	// Top up from the leading sentences, keeping original order.
	for _, sent := range eligible {
		if len(picked) >= highlightLimit {
			break
		}
		if !chosen[sent] {
			picked = append(picked, sent)
			chosen[sent] = true
		}
	}

	out := make([]string, 0, len(picked))
	for _, h := range picked {
		h = processing.CollapseWhitespace(h)
		if len(h) >= minHighlightLen {
			out = append(out, h)
		}
	}
	if len(out) > highlightLimit {
		out = out[:highlightLimit]
	}
	return out
}
