// Package dedupe decides whether an incoming article is an exact duplicate,
// a near-duplicate of stored articles, or a new standalone story, and
// assigns story-group ids accordingly.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsdigest/internal/models"
)

// Candidate is a stored article considered for similarity matching.
// StoryGroupID is zero when the candidate has not been grouped yet.
type Candidate struct {
	ID           string
	Title        string
	Summary      string
	StoryGroupID int64
	BaseScore    int
}

// Store is the persistence collaborator the engine runs against.
//
// FindCandidates must return same-category articles published after
// `since` in a deterministic order: ascending published time, ascending id
// on ties. The "first candidate with a group id wins" rule below depends
// on that order being stable across runs.
type Store interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByContentHash(ctx context.Context, hash string) (bool, error)
	FindCandidates(ctx context.Context, category string, since time.Time) ([]Candidate, error)
	MaxGroupID(ctx context.Context) (int64, error)
	UpdateGroup(ctx context.Context, ids []string, groupID int64) error
	// Insert persists the fully resolved article. It returns
	// models.ErrDuplicate when a uniqueness key is already present.
	Insert(ctx context.Context, a *models.Article) error
}

// Status is the terminal dedup state of one ingestion.
type Status string

const (
	// StatusRejected means the article was already stored (exact key hit).
	StatusRejected Status = "rejected"
	// StatusStandalone means no similar article was found.
	StatusStandalone Status = "standalone"
	// StatusGrouped means the article joined or established a story group.
	StatusGrouped Status = "grouped"
)

// Decision reports how an ingestion was resolved.
type Decision struct {
	Status       Status
	GroupID      int64
	SimilarCount int
}

const groupBonusPerMatch = 10

// Engine performs exact rejection, near-duplicate detection, and story
// grouping for one article at a time.
//
// Ingest is read-then-write and must not run concurrently for the same
// category: two parallel calls could allocate distinct group ids for the
// same story. The worker ingests sequentially, which satisfies this.
type Engine struct {
	store     Store
	threshold float64
	lookback  time.Duration
	now       func() time.Time
}

// NewEngine wires the engine to its store. threshold is the strict Jaccard
// similarity bound; lookback limits how far back candidates are fetched,
// measured from now (nil defaults to the wall clock).
func NewEngine(store Store, threshold float64, lookback time.Duration, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:     store,
		threshold: threshold,
		lookback:  lookback,
		now:       now,
	}
}

// Ingest resolves and persists one article. On return the article carries
// its final StoryGroupID and GroupBonus. Storage failures are propagated;
// duplicate-key races surface as a rejected decision, never as an error.
func (e *Engine) Ingest(ctx context.Context, a *models.Article) (Decision, error) {
	seen, err := e.store.ExistsByURL(ctx, a.URL)
	if err != nil {
		return Decision{}, fmt.Errorf("check url: %w", err)
	}
	if !seen {
		seen, err = e.store.ExistsByContentHash(ctx, a.ContentHash)
		if err != nil {
			return Decision{}, fmt.Errorf("check content hash: %w", err)
		}
	}
	if seen {
		return Decision{Status: StatusRejected}, nil
	}

	// The window is anchored to the clock, not the article's own timestamp,
	// so a lagging feed timestamp cannot widen it into expired stories.
	since := e.now().Add(-e.lookback)
	candidates, err := e.store.FindCandidates(ctx, a.Category, since)
	if err != nil {
		return Decision{}, fmt.Errorf("find candidates: %w", err)
	}

	tokens := TokenSet(a.Title + " " + a.Summary)
	var similar []Candidate
	for _, c := range candidates {
		if Jaccard(tokens, TokenSet(c.Title+" "+c.Summary)) > e.threshold {
			similar = append(similar, c)
		}
	}

	decision := Decision{Status: StatusStandalone}
	if len(similar) > 0 {
		groupID, err := e.resolveGroup(ctx, similar)
		if err != nil {
			return Decision{}, err
		}
		a.StoryGroupID = groupID
		a.GroupBonus = len(similar) * groupBonusPerMatch
		decision = Decision{
			Status:       StatusGrouped,
			GroupID:      groupID,
			SimilarCount: len(similar),
		}
	}

	a.Score = a.FinalScore()
	if err := e.store.Insert(ctx, a); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			// Another writer inserted the same url or hash first.
			return Decision{Status: StatusRejected}, nil
		}
		return Decision{}, fmt.Errorf("insert article: %w", err)
	}

	return decision, nil
}

// resolveGroup adopts the first existing group id among the similar
// candidates (in store order) or allocates a fresh one and assigns it to
// every similar candidate in a single batched update.
func (e *Engine) resolveGroup(ctx context.Context, similar []Candidate) (int64, error) {
	for _, c := range similar {
		if c.StoryGroupID > 0 {
			return c.StoryGroupID, nil
		}
	}

	maxID, err := e.store.MaxGroupID(ctx)
	if err != nil {
		return 0, fmt.Errorf("max group id: %w", err)
	}
	groupID := maxID + 1

	ids := make([]string, len(similar))
	for i, c := range similar {
		ids[i] = c.ID
	}
	if err := e.store.UpdateGroup(ctx, ids, groupID); err != nil {
		return 0, fmt.Errorf("assign group %d: %w", groupID, err)
	}

	return groupID, nil
}
