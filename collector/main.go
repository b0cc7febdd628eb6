// Command collector runs one collection pass: it fetches every enabled
// feed, filters stale entries, and publishes raw articles to Kafka for the
// worker to analyze. Scheduling is external (cron or a systemd timer).
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/segmentio/kafka-go"

	"newsdigest/internal/config"
	"newsdigest/internal/logger"
	"newsdigest/internal/models"
)

func main() {
	log := logger.New("collector")
	cfg, err := config.LoadCollector()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	feeds, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		log.Error("load feeds", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		MaxAttempts: 3,
	})
	defer writer.Close()

	parser := gofeed.NewParser()
	published, skipped := 0, 0

	for category, sources := range feeds {
		// Higher-priority sources first, so their copy of a story lands
		// before lower-priority duplicates.
		sort.SliceStable(sources, func(i, j int) bool {
			return sources[i].Priority > sources[j].Priority
		})

		for _, src := range sources {
			n, err := collectFeed(ctx, log, parser, writer, cfg, category, src)
			if err != nil {
				if ctx.Err() != nil {
					log.Info("shutdown signal received")
					return
				}
				// One broken feed must not stop the pass.
				log.Warn("collect feed failed",
					slog.String("feed", src.URL),
					slog.Any("err", err),
				)
				skipped++
				continue
			}
			published += n

			select {
			case <-time.After(cfg.FetchDelay):
			case <-ctx.Done():
				log.Info("shutdown signal received")
				return
			}
		}
	}

	log.Info("collection pass finished",
		slog.Int("published", published),
		slog.Int("failed_feeds", skipped),
	)
}

func collectFeed(ctx context.Context, log *slog.Logger, parser *gofeed.Parser, writer *kafka.Writer, cfg *config.Collector, category string, src config.FeedSource) (int, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	feed, err := parser.ParseURLWithContext(src.URL, fetchCtx)
	if err != nil {
		return 0, err
	}

	sourceName := src.Name
	if sourceName == "" {
		sourceName = feed.Title
	}

	cutoff := time.Now().Add(-cfg.AgeLimit)
	var messages []kafka.Message

	for _, item := range feed.Items {
		if len(messages) >= cfg.MaxPerSource {
			break
		}

		published := time.Now()
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		if published.Before(cutoff) {
			continue
		}

		raw := models.RawArticle{
			Title:     strings.TrimSpace(item.Title),
			Summary:   itemSummary(item),
			URL:       strings.TrimSpace(item.Link),
			Published: published.UTC().Format(time.RFC3339),
			Category:  category,
			Source:    sourceName,
			Author:    itemAuthor(item),
			Priority:  src.Priority,
		}

		payload, err := json.Marshal(raw)
		if err != nil {
			return 0, err
		}
		messages = append(messages, kafka.Message{Value: payload})
	}

	if len(messages) == 0 {
		log.Debug("no fresh articles", slog.String("feed", src.URL))
		return 0, nil
	}

	if err := writer.WriteMessages(ctx, messages...); err != nil {
		return 0, err
	}

	log.Info("feed collected",
		slog.String("source", sourceName),
		slog.String("category", category),
		slog.Int("articles", len(messages)),
	)
	return len(messages), nil
}

// itemSummary prefers the feed's description and falls back to the text of
// the full content block, which many feeds ship as HTML.
func itemSummary(item *gofeed.Item) string {
	if desc := strings.TrimSpace(item.Description); desc != "" {
		return desc
	}
	if item.Content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Content))
	if err != nil {
		return strings.TrimSpace(item.Content)
	}
	return strings.TrimSpace(doc.Text())
}

func itemAuthor(item *gofeed.Item) string {
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}
