package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Worker holds configuration for the Kafka -> Elasticsearch ingest worker.
type Worker struct {
	Common
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaConsumer string

	KeywordsPath        string
	SimilarityThreshold float64
	LookbackDays        int
	BoostCategory       string
	SummaryMaxLength    int

	SeenCapacity int
	SeenTTL      time.Duration
}

// Collector configures the RSS fetch -> Kafka publish pass.
type Collector struct {
	KafkaBrokers []string
	KafkaTopic   string

	FeedsPath      string
	AgeLimit       time.Duration
	FetchDelay     time.Duration
	RequestTimeout time.Duration
	MaxPerSource   int
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr    string
	DefaultPage int
	MaxPage     int
	DigestHours int
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:        loadCommon(),
		KafkaBrokers:  splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "articles_raw"),
		KafkaConsumer: getEnv("KAFKA_CONSUMER_GROUP", "digest-worker"),

		KeywordsPath:        getEnv("WORKER_KEYWORDS_PATH", "configs/keywords.yaml"),
		SimilarityThreshold: getFloat("WORKER_SIMILARITY_THRESHOLD", 0.8),
		LookbackDays:        getInt("WORKER_LOOKBACK_DAYS", 7),
		BoostCategory:       getEnv("WORKER_BOOST_CATEGORY", "cybersecurity"),
		SummaryMaxLength:    getInt("WORKER_SUMMARY_MAX_LEN", 300),

		SeenCapacity: getInt("WORKER_SEEN_CAPACITY", 20000),
		SeenTTL:      getDuration("WORKER_SEEN_TTL", "24h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("WORKER_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if c.LookbackDays <= 0 {
		return nil, fmt.Errorf("WORKER_LOOKBACK_DAYS must be positive")
	}
	if c.SummaryMaxLength <= 0 {
		return nil, fmt.Errorf("WORKER_SUMMARY_MAX_LEN must be positive")
	}
	if c.SeenCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_SEEN_CAPACITY must be positive")
	}

	return c, nil
}

// LoadCollector builds a Collector config from environment variables.
func LoadCollector() (*Collector, error) {
	c := &Collector{
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "articles_raw"),

		FeedsPath:      getEnv("COLLECTOR_FEEDS_PATH", "configs/feeds.yaml"),
		AgeLimit:       getDuration("COLLECTOR_AGE_LIMIT", "48h"),
		FetchDelay:     getDuration("COLLECTOR_FETCH_DELAY", "1s"),
		RequestTimeout: getDuration("COLLECTOR_REQUEST_TIMEOUT", "30s"),
		MaxPerSource:   getInt("COLLECTOR_MAX_PER_SOURCE", 50),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.AgeLimit <= 0 {
		return nil, fmt.Errorf("COLLECTOR_AGE_LIMIT must be positive")
	}
	if c.MaxPerSource <= 0 {
		return nil, fmt.Errorf("COLLECTOR_MAX_PER_SOURCE must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:      loadCommon(),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
		DigestHours: getInt("API_DIGEST_HOURS", 24),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.DigestHours <= 0 {
		return nil, fmt.Errorf("API_DIGEST_HOURS must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
