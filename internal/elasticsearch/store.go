package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"newsdigest/internal/dedupe"
	"newsdigest/internal/models"
)

// candidateLimit caps how many same-category articles one similarity pass
// compares against. The 7-day window keeps real sets far below this.
const candidateLimit = 1000

var _ dedupe.Store = (*Client)(nil)

// ExistsByURL checks the primary exact-duplicate key. Document ids derive
// from the URL, so this is a direct id lookup.
func (c *Client) ExistsByURL(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	return c.existsByTerm(ctx, "url", url)
}

// ExistsByContentHash checks the secondary exact-duplicate key, catching
// identical content re-published under a fresh URL.
func (c *Client) ExistsByContentHash(ctx context.Context, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}

	return c.existsByTerm(ctx, "content_hash", hash)
}

func (c *Client) existsByTerm(ctx context.Context, field, value string) (bool, error) {
	body := map[string]any{
		"size":             0,
		"track_total_hits": true,
		"query": map[string]any{
			"term": map[string]any{
				field: value,
			},
		},
	}

	result, err := c.search(ctx, body)
	if err != nil {
		return false, fmt.Errorf("exists by %s: %w", field, err)
	}
	return result.Hits.Total.Value > 0, nil
}

// FindCandidates returns same-category articles published after `since`,
// ordered by ascending published time with ascending id as tie-break. The
// engine's "first group id wins" rule relies on this order being stable.
func (c *Client) FindCandidates(ctx context.Context, category string, since time.Time) ([]dedupe.Candidate, error) {
	body := map[string]any{
		"size": candidateLimit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"category": category}},
					{"range": map[string]any{
						"published": map[string]any{
							"gt": since.UTC().Format(time.RFC3339),
						},
					}},
				},
			},
		},
		"sort": []map[string]any{
			{"published": map[string]any{"order": "asc"}},
			{"id": map[string]any{"order": "asc"}},
		},
	}

	result, err := c.search(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	candidates := make([]dedupe.Candidate, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		a := hit.Source
		candidates = append(candidates, dedupe.Candidate{
			ID:           a.ID,
			Title:        a.Title,
			Summary:      a.Summary,
			StoryGroupID: a.StoryGroupID,
			BaseScore:    a.Score,
		})
	}
	return candidates, nil
}

// MaxGroupID returns the highest story-group id ever allocated, or zero
// when no article has been grouped. The store owns the counter so ids stay
// monotonic across restarts.
func (c *Client) MaxGroupID(ctx context.Context) (int64, error) {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"max_group": map[string]any{
				"max": map[string]any{"field": "story_group"},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal max group body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return 0, fmt.Errorf("max group id: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("max group id failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Aggregations struct {
			MaxGroup struct {
				Value *float64 `json:"value"`
			} `json:"max_group"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode max group response: %w", err)
	}

	if parsed.Aggregations.MaxGroup.Value == nil {
		return 0, nil
	}
	return int64(*parsed.Aggregations.MaxGroup.Value), nil
}

// UpdateGroup assigns a story-group id to the given articles in a single
// bulk request with immediate refresh, so the assignment is visible to the
// very next ingestion.
func (c *Client) UpdateGroup(ctx context.Context, ids []string, groupID int64) error {
	if len(ids) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, id := range ids {
		meta := map[string]any{
			"update": map[string]any{"_index": c.index, "_id": id},
		}
		doc := map[string]any{
			"doc": map[string]any{"story_group": groupID},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("encode bulk doc: %w", err)
		}
	}

	res, err := c.es.Bulk(
		bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk group update: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk group update failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("bulk group update reported item errors")
	}

	return nil
}

// RecentArticles returns articles published after `since`, most important
// first (score desc, published desc), capped at limit.
func (c *Client) RecentArticles(ctx context.Context, since time.Time, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 20
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"range": map[string]any{
				"published": map[string]any{
					"gt": since.UTC().Format(time.RFC3339),
				},
			},
		},
		"sort": []map[string]any{
			{"score": map[string]any{"order": "desc"}},
			{"published": map[string]any{"order": "desc"}},
		},
	}

	result, err := c.search(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}

	return hitsToArticles(result), nil
}

// GroupMembers returns all articles in a story group ordered by score
// descending; the first member is the group's representative.
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]models.Article, error) {
	body := map[string]any{
		"size": candidateLimit,
		"query": map[string]any{
			"term": map[string]any{"story_group": groupID},
		},
		"sort": []map[string]any{
			{"score": map[string]any{"order": "desc"}},
			{"published": map[string]any{"order": "desc"}},
		},
	}

	result, err := c.search(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("group members: %w", err)
	}

	return hitsToArticles(result), nil
}

type searchResult struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Article `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) search(ctx context.Context, body map[string]any) (*searchResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed searchResult
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return &parsed, nil
}

func hitsToArticles(result *searchResult) []models.Article {
	items := make([]models.Article, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		items = append(items, hit.Source)
	}
	return items
}
