// Package rss pulls configured feeds and keeps the recent entries that
// mention the AI/ML vocabulary.
package rss

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
	"github.com/grumpiblogged/intelligence/internal/process/dedup"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultLookback = 24 * time.Hour

	logKeyFeed = "feed"
)

// Config holds the feed crawler settings.
type Config struct {
	Feeds    []string
	Timeout  time.Duration
	Lookback time.Duration
}

// Crawler parses RSS and Atom feeds. The dedup seen-set and topic
// graph are session-scoped and shared with the other crawlers.
type Crawler struct {
	cfg    Config
	parser *gofeed.Parser
	seen   *dedup.Set
	topics *graph.TopicGraph
	logger *zerolog.Logger

	now func() time.Time
}

func New(cfg Config, seen *dedup.Set, topics *graph.TopicGraph, logger *zerolog.Logger) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}

	parser := gofeed.NewParser()
	parser.UserAgent = "grumpiblogged-intelligence/2.0 (AI research aggregator)"

	return &Crawler{
		cfg:    cfg,
		parser: parser,
		seen:   seen,
		topics: topics,
		logger: logger,
		now:    time.Now,
	}
}

// Crawl fetches every configured feed and returns the matching entries
// as normalized signals, newest first. Per-feed failures are logged
// and skipped.
func (c *Crawler) Crawl(ctx context.Context) ([]domain.Signal, error) {
	cutoff := c.now().Add(-c.cfg.Lookback)

	var signals []domain.Signal

	for _, feedURL := range c.cfg.Feeds {
		if ctx.Err() != nil {
			return signals, fmt.Errorf("rss crawl: %w", ctx.Err())
		}

		feedSignals, err := c.crawlFeed(ctx, feedURL, cutoff)
		if err != nil {
			observability.CrawlerFailures.WithLabelValues(string(domain.SourceRSS)).Inc()
			c.logger.Warn().Err(err).Str(logKeyFeed, feedURL).Msg("feed fetch failed")

			continue
		}

		signals = append(signals, feedSignals...)
	}

	sort.Slice(signals, func(i, j int) bool {
		return signals[i].CreatedAt.After(signals[j].CreatedAt)
	})

	observability.SignalsGathered.WithLabelValues(string(domain.SourceRSS)).Add(float64(len(signals)))
	c.logger.Info().Int("items", len(signals)).Msg("rss crawl complete")

	return signals, nil
}

func (c *Crawler) crawlFeed(ctx context.Context, feedURL string, cutoff time.Time) ([]domain.Signal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var signals []domain.Signal

	for _, item := range feed.Items {
		published := itemTime(item)
		if published.IsZero() || published.Before(cutoff) {
			continue
		}

		topics := domain.ExtractTopics(item.Title + " " + item.Description)
		if len(topics) == 0 {
			continue
		}

		if !c.seen.Add(dedup.Fingerprint(item.Link, item.Title, item.Description)) {
			observability.SignalsDeduplicated.Inc()

			continue
		}

		c.topics.AddItem(topics)

		signals = append(signals, domain.Signal{
			Source:    domain.SourceRSS,
			Title:     item.Title,
			URL:       item.Link,
			Content:   item.Description,
			Author:    itemAuthor(item),
			CreatedAt: published,
		})
	}

	return signals, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	return time.Time{}
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 {
		return item.Authors[0].Name
	}

	return ""
}
