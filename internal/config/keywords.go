package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keywords holds the analysis keyword lists. Loaded once at startup and
// passed into the classifier and scorer; never mutated afterwards.
type Keywords struct {
	Fact        []string `yaml:"fact_keywords"`
	Speculation []string `yaml:"speculation_keywords"`
	Importance  []string `yaml:"importance_keywords"`
}

// DefaultKeywords returns the built-in lists used when no keywords file is
// present.
func DefaultKeywords() Keywords {
	return Keywords{
		Fact: []string{
			"announced", "confirmed", "disclosed", "reported earnings",
			"filed", "released", "published", "data shows", "statistics",
			"according to", "statement", "press release", "official",
		},
		Speculation: []string{
			"allegedly", "reportedly", "sources say", "rumors", "speculation",
			"could", "might", "may", "possible", "potential", "unconfirmed",
			"according to sources", "insider claims", "expected", "likely",
		},
		Importance: []string{
			"breaking", "urgent", "critical", "major", "significant",
			"emergency", "alert", "exclusive", "developing",
		},
	}
}

// LoadKeywords reads keyword lists from a YAML file. A missing file falls
// back to the defaults; a malformed file is an error.
func LoadKeywords(path string) (Keywords, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultKeywords(), nil
		}
		return Keywords{}, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var kw Keywords
	if err := yaml.NewDecoder(f).Decode(&kw); err != nil {
		return Keywords{}, fmt.Errorf("decode keywords file: %w", err)
	}

	kw.Fact = normalizeList(kw.Fact)
	kw.Speculation = normalizeList(kw.Speculation)
	kw.Importance = normalizeList(kw.Importance)

	if len(kw.Fact) == 0 && len(kw.Speculation) == 0 && len(kw.Importance) == 0 {
		return Keywords{}, fmt.Errorf("keywords file %s contains no keywords", path)
	}

	return kw, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
