// Package pipeline orchestrates one intelligence run: concurrent
// crawling, graph merging, the web-search fallback, and the handoff
// to the synthesis engine.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/crawl/hackernews"
	"github.com/grumpiblogged/intelligence/internal/crawl/reddit"
	"github.com/grumpiblogged/intelligence/internal/crawl/rss"
	"github.com/grumpiblogged/intelligence/internal/crawl/searx"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/llm"
	"github.com/grumpiblogged/intelligence/internal/platform/config"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
	"github.com/grumpiblogged/intelligence/internal/process/dedup"
	"github.com/grumpiblogged/intelligence/internal/synthesis"
)

const (
	logKeyCrawler = "crawler"
	logKeyRunID   = "run_id"

	searchCategory = "social media"
)

// fallbackQueries are issued against the language model's open-web
// knowledge when structured crawling yields too few signals.
var fallbackQueries = []string{
	"Latest AI and machine learning developments today",
	"New LLM releases and local AI models",
	"AI research breakthroughs and papers",
	"Open source AI tools and frameworks",
}

// Pipeline runs the crawl-and-synthesize cycle. All session state
// (dedup set, graphs) is created per run and discarded afterward.
type Pipeline struct {
	cfg    *config.Config
	llm    llm.Client
	engine *synthesis.Engine
	logger *zerolog.Logger

	// Overridable in tests.
	doCrawl func(ctx context.Context, logger *zerolog.Logger) ([]domain.Signal, *graph.UserGraph, *graph.TopicGraph, *graph.CommunityGraph)
	now     func() time.Time
}

func New(cfg *config.Config, client llm.Client, engine *synthesis.Engine, logger *zerolog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		llm:    client,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
	p.doCrawl = p.crawl

	return p
}

// crawlResult is one crawler's contribution, merged after the joint
// wait.
type crawlResult struct {
	name    string
	signals []domain.Signal
	users   *graph.UserGraph
	topics  *graph.TopicGraph
}

// Run executes one full pipeline cycle and returns the synthesized
// report.
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	runID := uuid.New().String()
	logger := p.logger.With().Str(logKeyRunID, runID).Logger()

	start := p.now()
	defer func() {
		observability.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	logger.Info().Msg("pipeline run started")

	signals, users, topics, communities := p.doCrawl(ctx, &logger)

	if len(signals) < p.cfg.FallbackSignalFloor {
		logger.Warn().
			Int("signals", len(signals)).
			Int("floor", p.cfg.FallbackSignalFloor).
			Msg("crawl yield below floor, invoking web-search fallback")

		signals = append(signals, p.webSearchFallback(ctx, &logger)...)
	}

	lookback := float64(p.cfg.LookbackHours)

	intel := synthesis.Input{
		Signals:     signals,
		Trends:      deriveTrends(topics, signals, lookback),
		Stories:     deriveStories(signals, p.cfg.CrossPlatformTopN),
		Influencers: deriveInfluencers(users, p.cfg.InfluencerTopN),
		Clusters:    topics.Clusters(),
		Communities: communities.Relationships(),
	}

	report, err := p.engine.Synthesize(ctx, intel)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	report.RunID = runID
	report.TimeRange = fmt.Sprintf("Last %d hours", p.cfg.LookbackHours)

	logger.Info().
		Int("signals", report.TotalSignals).
		Float64("confidence", report.Confidence).
		Msg("pipeline run complete")

	return report, nil
}

// crawl fans out over all configured crawlers, waits for every one,
// and unions their graphs. A crawler's failure or panic contributes
// zero signals instead of failing the batch.
func (p *Pipeline) crawl(ctx context.Context, logger *zerolog.Logger) ([]domain.Signal, *graph.UserGraph, *graph.TopicGraph, *graph.CommunityGraph) {
	seen := dedup.NewSet()
	communities := graph.NewCommunityGraph()

	lookback := time.Duration(p.cfg.LookbackHours) * time.Hour

	crawlers := []struct {
		name string
		run  func(context.Context) (crawlResult, error)
	}{
		{name: "search", run: func(ctx context.Context) (crawlResult, error) {
			return p.crawlSearch(ctx, seen, logger)
		}},
		{name: "reddit", run: func(ctx context.Context) (crawlResult, error) {
			return p.crawlReddit(ctx, communities, lookback, logger)
		}},
		{name: "hackernews", run: func(ctx context.Context) (crawlResult, error) {
			return p.crawlHackerNews(ctx, lookback, logger)
		}},
		{name: "rss", run: func(ctx context.Context) (crawlResult, error) {
			return p.crawlRSS(ctx, seen, lookback, logger)
		}},
	}

	results := make([]crawlResult, len(crawlers))

	var wg sync.WaitGroup

	for i, c := range crawlers {
		wg.Add(1)

		go func(i int, name string, run func(context.Context) (crawlResult, error)) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					observability.CrawlerFailures.WithLabelValues(name).Inc()
					logger.Error().Interface("panic", r).Str(logKeyCrawler, name).Msg("crawler panicked")
				}
			}()

			res, err := run(ctx)
			if err != nil {
				observability.CrawlerFailures.WithLabelValues(name).Inc()
				logger.Warn().Err(err).Str(logKeyCrawler, name).Msg("crawler failed")
			}

			// Keep whatever was gathered before the failure.
			results[i] = res
		}(i, c.name, c.run)
	}

	wg.Wait()

	users := graph.NewUserGraph()
	topics := graph.NewTopicGraph()

	var signals []domain.Signal

	for _, res := range results {
		signals = append(signals, res.signals...)
		graph.MergeUserGraphs(users, res.users)
		graph.MergeTopicGraphs(topics, res.topics)

		logger.Debug().Str(logKeyCrawler, res.name).Int("signals", len(res.signals)).Msg("crawler merged")
	}

	logger.Info().Int("signals", len(signals)).Msg("crawling complete")

	return signals, users, topics, communities
}

func (p *Pipeline) crawlSearch(ctx context.Context, seen *dedup.Set, logger *zerolog.Logger) (crawlResult, error) {
	crawler := searx.New(searx.Config{
		Instances:   p.cfg.SearchInstances,
		Timeout:     p.cfg.SearchTimeout,
		RequestGap:  p.cfg.SearchRequestGap,
		MaxRetries:  p.cfg.SearchMaxRetries,
		BackoffBase: p.cfg.SearchBackoffBase,
	}, seen, logger)

	topics := graph.NewTopicGraph()

	results := crawler.Search(ctx, p.cfg.SearchQuery, []string{searchCategory},
		p.cfg.SearchTimeRange, p.cfg.SearchMaxResults, nil)

	signals := make([]domain.Signal, 0, len(results))

	for _, r := range results {
		signal := r.Signal()
		topics.AddItem(domain.ExtractTopics(signal.Title + " " + signal.Content))
		signals = append(signals, signal)
	}

	return crawlResult{name: "search", signals: signals, topics: topics}, nil
}

func (p *Pipeline) crawlReddit(ctx context.Context, communities *graph.CommunityGraph, lookback time.Duration, logger *zerolog.Logger) (crawlResult, error) {
	users := graph.NewUserGraph()
	topics := graph.NewTopicGraph()

	crawler := reddit.New(reddit.Config{
		Subreddits:        p.cfg.Subreddits,
		Timeout:           p.cfg.RedditTimeout,
		MinInterval:       p.cfg.RedditMinInterval,
		MinScore:          p.cfg.RedditMinScore,
		MaxPostsPerSub:    p.cfg.RedditMaxPostsPerSub,
		Lookback:          lookback,
		IncludeComments:   p.cfg.IncludeComments,
		CommentMaxDepth:   p.cfg.CommentMaxDepth,
		CommentMaxTop:     p.cfg.CommentMaxTop,
		CommentMaxReplies: p.cfg.CommentMaxReplies,
	}, users, topics, communities, logger)

	items, err := crawler.Crawl(ctx)

	return crawlResult{name: "reddit", signals: itemSignals(items), users: users, topics: topics}, err
}

func (p *Pipeline) crawlHackerNews(ctx context.Context, lookback time.Duration, logger *zerolog.Logger) (crawlResult, error) {
	users := graph.NewUserGraph()
	topics := graph.NewTopicGraph()

	crawler := hackernews.New(hackernews.Config{
		MinPoints:         p.cfg.HNMinPoints,
		MaxStories:        p.cfg.HNMaxStories,
		Timeout:           p.cfg.HNTimeout,
		Lookback:          lookback,
		IncludeComments:   p.cfg.IncludeComments,
		CommentMaxDepth:   p.cfg.CommentMaxDepth,
		CommentMaxTop:     p.cfg.CommentMaxTop,
		CommentMaxReplies: p.cfg.CommentMaxReplies,
	}, users, topics, logger)

	items, err := crawler.Crawl(ctx)

	return crawlResult{name: "hackernews", signals: itemSignals(items), users: users, topics: topics}, err
}

func (p *Pipeline) crawlRSS(ctx context.Context, seen *dedup.Set, lookback time.Duration, logger *zerolog.Logger) (crawlResult, error) {
	topics := graph.NewTopicGraph()

	crawler := rss.New(rss.Config{
		Feeds:    p.cfg.RSSFeeds,
		Timeout:  p.cfg.RSSTimeout,
		Lookback: lookback,
	}, seen, topics, logger)

	signals, err := crawler.Crawl(ctx)

	return crawlResult{name: "rss", signals: signals, topics: topics}, err
}

// webSearchFallback wraps each canned query's model response as one
// synthetic signal. Fallback signals carry no engagement metrics and
// contribute nothing to the graphs.
func (p *Pipeline) webSearchFallback(ctx context.Context, logger *zerolog.Logger) []domain.Signal {
	observability.FallbackInvocations.Inc()

	var signals []domain.Signal

	for _, query := range fallbackQueries {
		content, err := p.llm.WebSearch(ctx, query)
		if err != nil {
			logger.Warn().Err(err).Str("query", query).Msg("web-search fallback query failed")

			continue
		}

		signals = append(signals, domain.Signal{
			Source:    domain.SourceFallback,
			Title:     query,
			Content:   content,
			CreatedAt: p.now(),
		})
	}

	observability.SignalsGathered.WithLabelValues(string(domain.SourceFallback)).Add(float64(len(signals)))

	return signals
}

func itemSignals(items []domain.RankedItem) []domain.Signal {
	signals := make([]domain.Signal, 0, len(items))
	for _, item := range items {
		signals = append(signals, item.Signal())
	}

	return signals
}
