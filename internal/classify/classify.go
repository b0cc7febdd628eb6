// Package classify assigns a fact-vs-speculation label to an article based
// on keyword evidence in its title and summary.
package classify

import (
	"newsdigest/internal/config"
	"newsdigest/internal/models"
	"newsdigest/internal/processing"
)

// Classifier labels articles from two keyword lists. Safe for concurrent
// use; it holds no mutable state.
type Classifier struct {
	fact        []string
	speculation []string
}

// New builds a Classifier from the configured keyword lists.
func New(kw config.Keywords) *Classifier {
	return &Classifier{
		fact:        kw.Fact,
		speculation: kw.Speculation,
	}
}

// Classify counts fact and speculation keyword occurrences in the
// lower-cased title plus summary. A keyword appearing twice counts twice.
// The margin of 1 keeps close calls labeled MIXED rather than flipping on
// a single extra match.
func (c *Classifier) Classify(title, summary string) models.Classification {
	text := title + " " + summary

	f := processing.OccurrenceCount(text, c.fact)
	s := processing.OccurrenceCount(text, c.speculation)

	switch {
	case s > f+1:
		return models.ClassSpeculation
	case f > s+1:
		return models.ClassFactual
	case f == 0 && s == 0:
		return models.ClassNeutral
	default:
		return models.ClassMixed
	}
}
