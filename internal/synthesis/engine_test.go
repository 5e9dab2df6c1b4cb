package synthesis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/llm"
)

var errModelDown = errors.New("model down")

// scriptedClient counts calls and fails selectively.
type scriptedClient struct {
	insightCalls    int
	storyCalls      int
	predictCalls    int
	narrativeCalls  int
	failInsights    bool
	failStories     bool
	failPredictions bool
	narrative       string
	failNarrative   bool
}

func (c *scriptedClient) TrendInsight(_ context.Context, trend domain.Trend) (string, error) {
	c.insightCalls++
	if c.failInsights {
		return "", errModelDown
	}

	return "insight for " + trend.Topic, nil
}

func (c *scriptedClient) StorySynthesis(_ context.Context, story domain.CrossPlatformStory) (string, error) {
	c.storyCalls++
	if c.failStories {
		return "", errModelDown
	}

	return "synthesis for " + story.Title, nil
}

func (c *scriptedClient) Predict(_ context.Context, trend domain.Trend) (string, error) {
	c.predictCalls++
	if c.failPredictions {
		return "", errModelDown
	}

	return "prediction for " + trend.Topic, nil
}

func (c *scriptedClient) Narrative(_ context.Context, _ llm.NarrativeInput) (string, error) {
	c.narrativeCalls++
	if c.failNarrative {
		return "", errModelDown
	}

	return c.narrative, nil
}

func (c *scriptedClient) WebSearch(_ context.Context, _ string) (string, error) {
	return "", errModelDown
}

func newTestEngine(client llm.Client) *Engine {
	logger := zerolog.Nop()

	return New(Config{}, client, &logger)
}

func signalsOn(n int, sources ...domain.Source) []domain.Signal {
	signals := make([]domain.Signal, 0, n)
	for i := 0; i < n; i++ {
		signals = append(signals, domain.Signal{
			Source:    sources[i%len(sources)],
			Title:     "signal",
			CreatedAt: time.Now(),
		})
	}

	return signals
}

func TestSignificanceBoundariesAreStrict(t *testing.T) {
	e := newTestEngine(&scriptedClient{})

	assert.Equal(t, domain.TierHigh, e.significance(20))
	assert.Equal(t, domain.TierCritical, e.significance(21))
	assert.Equal(t, domain.TierMedium, e.significance(10))
	assert.Equal(t, domain.TierHigh, e.significance(10.5))
	assert.Equal(t, domain.TierLow, e.significance(5))
	assert.Equal(t, domain.TierMedium, e.significance(5.5))
}

func TestConfidenceFormula(t *testing.T) {
	e := newTestEngine(&scriptedClient{})

	// 50 signals over 2 platforms: 0.6*0.5 + 0.4*0.4 = 0.46.
	c := e.confidence(signalsOn(50, domain.SourceReddit, domain.SourceHN))
	assert.InDelta(t, 0.46, c, 1e-9)

	// 50 signals over 3 platforms: 0.6*0.5 + 0.4*0.6 = 0.54.
	c = e.confidence(signalsOn(50, domain.SourceReddit, domain.SourceHN, domain.SourceSearch))
	assert.InDelta(t, 0.54, c, 1e-9)

	// Both components saturate at 1.
	c = e.confidence(signalsOn(500,
		domain.SourceReddit, domain.SourceHN, domain.SourceSearch,
		domain.SourceRSS, domain.SourceTwitter, domain.SourceMastodon))
	assert.InDelta(t, 1.0, c, 1e-9)

	assert.Zero(t, e.confidence(nil))
}

func TestParseNarrative(t *testing.T) {
	headline, summary := parseNarrative("HEADLINE: Big week for local models\nSUMMARY: Everything got faster.")
	assert.Equal(t, "Big week for local models", headline)
	assert.Equal(t, "Everything got faster.", summary)

	headline, summary = parseNarrative("no markers here")
	assert.Empty(t, headline)
	assert.Empty(t, summary)
}

func TestNarrativeFallbackOnUnparseableResponse(t *testing.T) {
	client := &scriptedClient{narrative: "the model rambled without markers"}
	e := newTestEngine(client)

	headline, summary := e.createNarrative(context.Background(),
		[]domain.Trend{{Topic: "quantization"}}, nil, nil)

	assert.Equal(t, "AI/ML Intelligence Report: quantization", headline)
	assert.Equal(t, fallbackSummary, summary)
}

func TestNarrativeFallbackWithoutTrends(t *testing.T) {
	client := &scriptedClient{failNarrative: true}
	e := newTestEngine(client)

	headline, summary := e.createNarrative(context.Background(), nil, nil, nil)

	assert.Equal(t, fallbackHeadline, headline)
	assert.Equal(t, fallbackSummary, summary)
	assert.Equal(t, 2, client.narrativeCalls) // retried once
}

func TestSynthesizeSurvivesFailingModel(t *testing.T) {
	client := &scriptedClient{
		failInsights:    true,
		failStories:     true,
		failPredictions: true,
		failNarrative:   true,
	}
	e := newTestEngine(client)

	in := Input{
		Signals: signalsOn(30, domain.SourceReddit, domain.SourceHN),
		Trends: []domain.Trend{
			{Topic: "llm", Score: 25, SignalCount: 25},
			{Topic: "rag", Score: 8, SignalCount: 8},
		},
		Stories: []domain.CrossPlatformStory{
			{Title: "Model drop", Platforms: []domain.Source{domain.SourceReddit, domain.SourceHN}},
		},
		Influencers: []domain.Influencer{{Username: "alice", Signals: 12}},
	}

	report, err := e.Synthesize(context.Background(), in)
	require.NoError(t, err)

	// Trends survive without insights; failed stories are dropped;
	// failed predictions are skipped.
	require.Len(t, report.EmergingTrends, 2)
	assert.Empty(t, report.EmergingTrends[0].Insight)
	assert.Equal(t, domain.TierCritical, report.EmergingTrends[0].Significance)
	assert.Empty(t, report.CrossPlatformStories)
	assert.Empty(t, report.Predictions)
	assert.NotEmpty(t, report.Headline)
	assert.NotEmpty(t, report.Summary)
	assert.Equal(t, 30, report.TotalSignals)
}

func TestSynthesizeFullReport(t *testing.T) {
	client := &scriptedClient{narrative: "HEADLINE: Local models surge\nSUMMARY: A strong day for open weights."}
	e := newTestEngine(client)

	in := Input{
		Signals: signalsOn(120,
			domain.SourceReddit, domain.SourceHN, domain.SourceSearch,
			domain.SourceRSS, domain.SourceTwitter),
		Trends: []domain.Trend{
			{Topic: "llama", Score: 30, SignalCount: 30, Velocity: 1.2},
			{Topic: "lora", Score: 12, SignalCount: 12},
			{Topic: "rag", Score: 6, SignalCount: 6},
			{Topic: "jax", Score: 2, SignalCount: 2},
		},
		Stories: []domain.CrossPlatformStory{
			{Title: "Weights released", Platforms: []domain.Source{domain.SourceReddit, domain.SourceHN}, TotalEngagement: 900},
		},
		Influencers: []domain.Influencer{
			{Username: "prolific", Signals: 11},
			{Username: "engaged", Signals: 2, TotalEngagement: 2000},
			{Username: "rising", Signals: 1, TotalEngagement: 10},
		},
		Clusters: map[string][]string{"llama": {"lora"}},
	}

	report, err := e.Synthesize(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Local models surge", report.Headline)
	assert.Equal(t, "A strong day for open weights.", report.Summary)
	assert.InDelta(t, 1.0, report.Confidence, 1e-9)

	require.Len(t, report.EmergingTrends, 4)
	assert.Equal(t, "insight for llama", report.EmergingTrends[0].Insight)
	assert.Equal(t, domain.TierCritical, report.EmergingTrends[0].Significance)
	assert.Equal(t, domain.TierHigh, report.EmergingTrends[1].Significance)
	assert.Equal(t, domain.TierMedium, report.EmergingTrends[2].Significance)
	assert.Equal(t, domain.TierLow, report.EmergingTrends[3].Significance)

	require.Len(t, report.CrossPlatformStories, 1)
	assert.Equal(t, "synthesis for Weights released", report.CrossPlatformStories[0].Synthesis)

	require.Len(t, report.Predictions, 3)
	assert.Equal(t, "llama", report.Predictions[0].Topic)
	assert.InDelta(t, 1.0, report.Predictions[0].Confidence, 1e-9) // 30/10 clamped
	assert.Equal(t, predictionTimeframe, report.Predictions[0].Timeframe)

	require.Len(t, report.TopInfluencers, 3)
	assert.Equal(t, domain.InfluenceProlific, report.TopInfluencers[0].Type)
	assert.Equal(t, domain.InfluenceEngaged, report.TopInfluencers[1].Type)
	assert.Equal(t, domain.InfluenceRising, report.TopInfluencers[2].Type)

	assert.Len(t, report.PlatformsAnalyzed, 5)
	assert.Equal(t, map[string][]string{"llama": {"lora"}}, report.TopicClusters)
}
