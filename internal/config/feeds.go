package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedSource is one syndicated feed inside a category.
type FeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Enabled  *bool  `yaml:"enabled"`
	Priority int    `yaml:"priority"`
	Note     string `yaml:"note"`
}

type feedsFile struct {
	Sources map[string][]FeedSource `yaml:"sources"`
}

// LoadFeeds reads the feed sources file and returns enabled sources keyed
// by category. Sources without an explicit enabled flag are enabled;
// priority defaults to 1 and is clamped to 1..5.
func LoadFeeds(path string) (map[string][]FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds file: %w", err)
	}
	defer f.Close()

	var file feedsFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode feeds file: %w", err)
	}

	out := make(map[string][]FeedSource, len(file.Sources))
	for category, sources := range file.Sources {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		enabled := make([]FeedSource, 0, len(sources))
		for _, src := range sources {
			if src.Enabled != nil && !*src.Enabled {
				continue
			}
			if strings.TrimSpace(src.URL) == "" {
				return nil, fmt.Errorf("feed source %q in category %q has no url", src.Name, category)
			}
			if src.Priority < 1 {
				src.Priority = 1
			}
			if src.Priority > 5 {
				src.Priority = 5
			}
			enabled = append(enabled, src)
		}
		if len(enabled) > 0 {
			out[category] = enabled
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("feeds file %s contains no enabled sources", path)
	}

	return out, nil
}
