package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWorkerDefaults(t *testing.T) {
	cfg, err := LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "articles_raw", cfg.KafkaTopic)
	require.Equal(t, "digest-worker", cfg.KafkaConsumer)
	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "articles", cfg.ElasticsearchIndex)
	require.Equal(t, 0.8, cfg.SimilarityThreshold)
	require.Equal(t, 7, cfg.LookbackDays)
	require.Equal(t, "cybersecurity", cfg.BoostCategory)
	require.Equal(t, 300, cfg.SummaryMaxLength)
	require.Equal(t, 24*time.Hour, cfg.SeenTTL)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092")
	t.Setenv("WORKER_SIMILARITY_THRESHOLD", "0.65")
	t.Setenv("WORKER_LOOKBACK_DAYS", "3")
	t.Setenv("WORKER_SEEN_TTL", "90m")

	cfg, err := LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 0.65, cfg.SimilarityThreshold)
	require.Equal(t, 3, cfg.LookbackDays)
	require.Equal(t, 90*time.Minute, cfg.SeenTTL)
}

func TestLoadWorkerRejectsBadThreshold(t *testing.T) {
	for _, v := range []string{"0", "-0.5", "1.5"} {
		t.Setenv("WORKER_SIMILARITY_THRESHOLD", v)
		_, err := LoadWorker()
		require.Error(t, err)
		require.Contains(t, err.Error(), "WORKER_SIMILARITY_THRESHOLD")
	}
}

func TestLoadWorkerIgnoresUnparseableNumbers(t *testing.T) {
	t.Setenv("WORKER_LOOKBACK_DAYS", "not-a-number")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.LookbackDays)
}

func TestLoadCollectorDefaults(t *testing.T) {
	cfg, err := LoadCollector()
	require.NoError(t, err)

	require.Equal(t, "configs/feeds.yaml", cfg.FeedsPath)
	require.Equal(t, 48*time.Hour, cfg.AgeLimit)
	require.Equal(t, time.Second, cfg.FetchDelay)
	require.Equal(t, 30*time.Second, cfg.RequestTimeout)
	require.Equal(t, 50, cfg.MaxPerSource)
}

func TestLoadAPIRejectsPageOverMax(t *testing.T) {
	t.Setenv("API_PAGE_SIZE", "200")
	t.Setenv("API_MAX_PAGE_SIZE", "100")

	_, err := LoadAPI()
	require.Error(t, err)
	require.Contains(t, err.Error(), "API_PAGE_SIZE")
}

func TestLoadRetentionDefaults(t *testing.T) {
	cfg, err := LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 24*time.Hour, cfg.Interval)
	require.Equal(t, 720*time.Hour, cfg.MaxAge)
	require.Equal(t, 500, cfg.BatchSize)
}

func TestLoadKeywordsMissingFileFallsBack(t *testing.T) {
	kw, err := LoadKeywords(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultKeywords(), kw)
}

func TestLoadKeywordsFromFile(t *testing.T) {
	path := writeFile(t, "keywords.yaml", `
fact_keywords:
  - Confirmed
  - "  announced  "
speculation_keywords:
  - allegedly
importance_keywords:
  - breaking
`)

	kw, err := LoadKeywords(path)
	require.NoError(t, err)
	require.Equal(t, []string{"confirmed", "announced"}, kw.Fact)
	require.Equal(t, []string{"allegedly"}, kw.Speculation)
	require.Equal(t, []string{"breaking"}, kw.Importance)
}

func TestLoadKeywordsMalformed(t *testing.T) {
	path := writeFile(t, "keywords.yaml", "fact_keywords: {not: a list}")

	_, err := LoadKeywords(path)
	require.Error(t, err)
}

func TestLoadKeywordsEmptyLists(t *testing.T) {
	path := writeFile(t, "keywords.yaml", "fact_keywords: []\n")

	_, err := LoadKeywords(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no keywords")
}

func TestLoadFeeds(t *testing.T) {
	path := writeFile(t, "feeds.yaml", `
sources:
  cybersecurity:
    - name: Feed A
      url: https://a.example.com/rss
      priority: 9
    - name: Feed B
      url: https://b.example.com/rss
      enabled: false
  technology:
    - name: Feed C
      url: https://c.example.com/rss
`)

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	require.Len(t, feeds, 2)

	cyber := feeds["cybersecurity"]
	require.Len(t, cyber, 1)
	require.Equal(t, "Feed A", cyber[0].Name)
	require.Equal(t, 5, cyber[0].Priority) // clamped

	require.Equal(t, 1, feeds["technology"][0].Priority) // defaulted
}

func TestLoadFeedsRejectsMissingURL(t *testing.T) {
	path := writeFile(t, "feeds.yaml", `
sources:
  technology:
    - name: Broken Feed
`)

	_, err := LoadFeeds(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "has no url")
}

func TestLoadFeedsRejectsAllDisabled(t *testing.T) {
	path := writeFile(t, "feeds.yaml", `
sources:
  technology:
    - name: Feed A
      url: https://a.example.com/rss
      enabled: false
`)

	_, err := LoadFeeds(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no enabled sources")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
