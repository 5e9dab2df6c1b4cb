// Package synthesis turns merged crawl data into a structured
// intelligence report. Narrative text is delegated to the language
// model; scores, tiers, and classifications stay deterministic so the
// report's numbers are auditable.
package synthesis

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/llm"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
)

const (
	defaultTrendTopN         = 5
	defaultPredictionTopN    = 3
	defaultCrossPlatformTopN = 10
	defaultInfluencerTopN    = 10

	defaultTierCriticalAbove = 20.0
	defaultTierHighAbove     = 10.0
	defaultTierMediumAbove   = 5.0

	// Influencer classification thresholds.
	prolificSignalsAbove = 10
	engagedTotalAbove    = 1000

	// Confidence weights: signal volume dominates, platform diversity
	// corroborates.
	confidenceSignalWeight   = 0.6
	confidencePlatformWeight = 0.4
	confidenceSignalScale    = 100.0
	confidencePlatformScale  = 5.0

	predictionTimeframe       = "7 days"
	predictionConfidenceScale = 10.0

	logKeyTopic = "topic"
	logKeyTitle = "title"
)

// Input is the merged crawl data handed over by the orchestrator.
// Trends, stories, and influencers arrive pre-ranked.
type Input struct {
	Signals     []domain.Signal
	Trends      []domain.Trend
	Stories     []domain.CrossPlatformStory
	Influencers []domain.Influencer
	Clusters    map[string][]string
	Communities []graph.Relationship
}

// Config holds the synthesis tuning parameters.
type Config struct {
	TrendTopN         int
	PredictionTopN    int
	CrossPlatformTopN int
	InfluencerTopN    int

	TierCriticalAbove float64
	TierHighAbove     float64
	TierMediumAbove   float64
}

// Engine assembles intelligence reports.
type Engine struct {
	cfg    Config
	llm    llm.Client
	logger *zerolog.Logger

	now func() time.Time
}

func New(cfg Config, client llm.Client, logger *zerolog.Logger) *Engine {
	if cfg.TrendTopN <= 0 {
		cfg.TrendTopN = defaultTrendTopN
	}

	if cfg.PredictionTopN <= 0 {
		cfg.PredictionTopN = defaultPredictionTopN
	}

	if cfg.CrossPlatformTopN <= 0 {
		cfg.CrossPlatformTopN = defaultCrossPlatformTopN
	}

	if cfg.InfluencerTopN <= 0 {
		cfg.InfluencerTopN = defaultInfluencerTopN
	}

	if cfg.TierCriticalAbove <= 0 {
		cfg.TierCriticalAbove = defaultTierCriticalAbove
	}

	if cfg.TierHighAbove <= 0 {
		cfg.TierHighAbove = defaultTierHighAbove
	}

	if cfg.TierMediumAbove <= 0 {
		cfg.TierMediumAbove = defaultTierMediumAbove
	}

	return &Engine{
		cfg:    cfg,
		llm:    client,
		logger: logger,
		now:    time.Now,
	}
}

// Synthesize runs the five synthesis stages in order. A failed
// narrative call for one item never aborts the whole report.
func (e *Engine) Synthesize(ctx context.Context, in Input) (*domain.Report, error) {
	trends := e.analyzeTrends(ctx, in.Trends)
	stories := e.synthesizeStories(ctx, in.Stories)
	influencers := e.profileInfluencers(in.Influencers)
	predictions := e.generatePredictions(ctx, trends)
	headline, summary := e.createNarrative(ctx, trends, stories, predictions)

	confidence := e.confidence(in.Signals)
	observability.ReportConfidence.Set(confidence)

	return &domain.Report{
		Headline:             headline,
		Summary:              summary,
		Confidence:           confidence,
		EmergingTrends:       trends,
		CrossPlatformStories: stories,
		TopInfluencers:       influencers,
		TopicClusters:        in.Clusters,
		Predictions:          predictions,
		TotalSignals:         len(in.Signals),
		PlatformsAnalyzed:    platforms(in.Signals),
		GeneratedAt:          e.now(),
	}, nil
}

// analyzeTrends enriches the leading trends with a model insight and a
// deterministic significance tier. A trend whose insight call fails
// twice is kept without one.
func (e *Engine) analyzeTrends(ctx context.Context, trends []domain.Trend) []domain.Trend {
	if len(trends) > e.cfg.TrendTopN {
		trends = trends[:e.cfg.TrendTopN]
	}

	enriched := make([]domain.Trend, 0, len(trends))

	for _, trend := range trends {
		trend.Significance = e.significance(trend.Score)

		insight, err := retryOnce(ctx, trend, e.llm.TrendInsight)
		if err != nil {
			e.logger.Warn().Err(err).Str(logKeyTopic, trend.Topic).Msg("trend insight failed")
		} else {
			trend.Insight = insight
		}

		enriched = append(enriched, trend)
	}

	return enriched
}

// synthesizeStories attaches a narrative to each cross-platform story.
// A story whose call fails twice is dropped; its platforms and
// engagement already informed the confidence score upstream.
func (e *Engine) synthesizeStories(ctx context.Context, stories []domain.CrossPlatformStory) []domain.CrossPlatformStory {
	if len(stories) > e.cfg.CrossPlatformTopN {
		stories = stories[:e.cfg.CrossPlatformTopN]
	}

	enriched := make([]domain.CrossPlatformStory, 0, len(stories))

	for _, story := range stories {
		synthesis, err := retryOnce(ctx, story, e.llm.StorySynthesis)
		if err != nil {
			e.logger.Warn().Err(err).Str(logKeyTitle, story.Title).Msg("story synthesis failed, dropping story")

			continue
		}

		story.Synthesis = synthesis
		enriched = append(enriched, story)
	}

	return enriched
}

// profileInfluencers applies the fixed classification rule.
func (e *Engine) profileInfluencers(influencers []domain.Influencer) []domain.Influencer {
	if len(influencers) > e.cfg.InfluencerTopN {
		influencers = influencers[:e.cfg.InfluencerTopN]
	}

	out := make([]domain.Influencer, 0, len(influencers))

	for _, inf := range influencers {
		switch {
		case inf.Signals > prolificSignalsAbove:
			inf.Type = domain.InfluenceProlific
		case inf.TotalEngagement > engagedTotalAbove:
			inf.Type = domain.InfluenceEngaged
		default:
			inf.Type = domain.InfluenceRising
		}

		out = append(out, inf)
	}

	return out
}

// generatePredictions extrapolates the leading trends. A prediction
// whose call fails twice is skipped.
func (e *Engine) generatePredictions(ctx context.Context, trends []domain.Trend) []domain.Prediction {
	if len(trends) > e.cfg.PredictionTopN {
		trends = trends[:e.cfg.PredictionTopN]
	}

	predictions := make([]domain.Prediction, 0, len(trends))

	for _, trend := range trends {
		narrative, err := retryOnce(ctx, trend, e.llm.Predict)
		if err != nil {
			e.logger.Warn().Err(err).Str(logKeyTopic, trend.Topic).Msg("prediction failed, skipping")

			continue
		}

		confidence := trend.Score / predictionConfidenceScale
		if confidence > 1 {
			confidence = 1
		}

		predictions = append(predictions, domain.Prediction{
			Topic:      trend.Topic,
			Narrative:  narrative,
			Confidence: confidence,
			Timeframe:  predictionTimeframe,
		})
	}

	return predictions
}

func (e *Engine) significance(score float64) domain.SignificanceTier {
	switch {
	case score > e.cfg.TierCriticalAbove:
		return domain.TierCritical
	case score > e.cfg.TierHighAbove:
		return domain.TierHigh
	case score > e.cfg.TierMediumAbove:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// confidence combines signal volume and platform diversity. Kept out
// of the model's hands so the headline number is reproducible.
func (e *Engine) confidence(signals []domain.Signal) float64 {
	signalScore := float64(len(signals)) / confidenceSignalScale
	if signalScore > 1 {
		signalScore = 1
	}

	platformScore := float64(len(platforms(signals))) / confidencePlatformScale
	if platformScore > 1 {
		platformScore = 1
	}

	return signalScore*confidenceSignalWeight + platformScore*confidencePlatformWeight
}

func platforms(signals []domain.Signal) []domain.Source {
	seen := make(map[domain.Source]struct{})
	var out []domain.Source

	for _, s := range signals {
		if _, ok := seen[s.Source]; ok {
			continue
		}

		seen[s.Source] = struct{}{}
		out = append(out, s.Source)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// retryOnce calls fn and retries a single time on failure.
func retryOnce[T any](ctx context.Context, arg T, fn func(context.Context, T) (string, error)) (string, error) {
	out, err := fn(ctx, arg)
	if err == nil {
		return out, nil
	}

	return fn(ctx, arg)
}
