package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"newsdigest/internal/classify"
	"newsdigest/internal/config"
	"newsdigest/internal/dedupe"
	"newsdigest/internal/elasticsearch"
	"newsdigest/internal/logger"
	"newsdigest/internal/models"
	"newsdigest/internal/processing"
	"newsdigest/internal/scoring"
)

type articleIngester interface {
	Ingest(ctx context.Context, a *models.Article) (dedupe.Decision, error)
}

// pipeline carries everything one message needs: analysis components, the
// dedup engine, and the session seen-cache.
type pipeline struct {
	cfg        *config.Worker
	classifier *classify.Classifier
	scorer     *scoring.Scorer
	engine     articleIngester
	seen       *dedupe.SeenCache
	now        func() time.Time
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	keywords, err := config.LoadKeywords(cfg.KeywordsPath)
	if err != nil {
		log.Error("load keywords", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := esClient.EnsureIndex(ctx); err != nil {
		log.Error("ensure index", slog.Any("err", err))
		os.Exit(1)
	}

	p := &pipeline{
		cfg:        cfg,
		classifier: classify.New(keywords),
		scorer:     scoring.New(keywords, cfg.BoostCategory),
		engine: dedupe.NewEngine(
			esClient,
			cfg.SimilarityThreshold,
			time.Duration(cfg.LookbackDays)*24*time.Hour,
			time.Now,
		),
		seen: dedupe.NewSeenCache(cfg.SeenCapacity, cfg.SeenTTL),
		now:  time.Now,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.Float64("similarity_threshold", cfg.SimilarityThreshold),
	)

	// Messages are resolved strictly one at a time. The engine's
	// read-then-write group allocation is not safe to run concurrently for
	// a category, so the single consumer loop is a correctness requirement,
	// not just a simplification.
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := p.process(ctx, log, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if sendToDLQ(ctx, log, dlqWriter, msg, err) {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed message to dlq", slog.Any("err", err))
				}
			} else {
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// process turns one raw feed item into a classified, scored, dedup-resolved
// article. Returning an error routes the message to the DLQ.
func (p *pipeline) process(ctx context.Context, log *slog.Logger, msg kafka.Message) error {
	var raw models.RawArticle
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		return fmt.Errorf("decode raw article: %w", err)
	}

	title := strings.TrimSpace(raw.Title)
	rawSummary := strings.TrimSpace(raw.Summary)
	if title == "" && rawSummary == "" {
		return errors.New("empty payload")
	}

	url := strings.TrimSpace(raw.URL)
	if url != "" && p.seen.Seen(url) {
		log.Debug("duplicate url in session", slog.String("url", url))
		return nil
	}

	// The content hash covers the raw summary, so the same item re-published
	// under a new URL still collides even after sanitization.
	contentHash := processing.ContentHash(title, rawSummary)

	summary := processing.StripHTML(rawSummary)

	now := p.now()
	published := processing.ParseTimestamp(raw.Published)
	if published.IsZero() {
		// Lossy but deterministic fallback; logged as a quality signal.
		log.Warn("unparseable published timestamp, using now",
			slog.String("raw", raw.Published),
			slog.String("url", url),
		)
		published = now
	}

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		category = "general"
	}
	source := strings.TrimSpace(raw.Source)
	if source == "" {
		source = "unknown"
	}

	id := processing.DocumentID(url)
	if id == "" {
		id = uuid.NewString()
	}

	article := &models.Article{
		ID:          id,
		Title:       title,
		Summary:     summary,
		URL:         url,
		ContentHash: contentHash,
		Published:   published,
		Category:    category,
		SourceName:  source,
		Author:      strings.TrimSpace(raw.Author),
		SeedScore:   raw.Priority * 5,
	}

	article.Classified = p.classifier.Classify(article.Title, article.Summary)
	article.SeedScore = p.scorer.Score(article, now)
	article.Highlights = p.scorer.Highlights(article)

	// Analysis sees the full text; only the stored copy is cut down.
	article.Summary = processing.Truncate(article.Summary, p.cfg.SummaryMaxLength)

	decision, err := p.engine.Ingest(ctx, article)
	if err != nil {
		return fmt.Errorf("ingest article: %w", err)
	}

	if url != "" {
		p.seen.Mark(url)
	}

	switch decision.Status {
	case dedupe.StatusRejected:
		log.Debug("duplicate article rejected", slog.String("url", url))
	case dedupe.StatusGrouped:
		log.Info("article grouped",
			slog.String("title", article.Title),
			slog.Int64("group", decision.GroupID),
			slog.Int("similar", decision.SimilarCount),
			slog.Int("score", article.FinalScore()),
		)
	default:
		log.Info("article stored",
			slog.String("title", article.Title),
			slog.String("classification", string(article.Classified)),
			slog.Int("score", article.FinalScore()),
		)
	}

	return nil
}

// sendToDLQ forwards a failed message with error context, retrying with
// exponential backoff. Returns true when the write succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, w *kafka.Writer, msg kafka.Message, procErr error) bool {
	dlqMsg := kafka.Message{
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(procErr.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < 5; attempt++ {
		if err := w.WriteMessages(ctx, dlqMsg); err == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		} else {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Warn("DLQ write failed, retrying",
				slog.Any("err", err),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
				// Continue to next attempt
			case <-ctx.Done():
				log.Info("context canceled during DLQ retry")
				return false
			}
		}
	}

	return false
}
