// Package llm wraps the language-model provider behind a narrow
// interface so the synthesis engine and the web-search fallback can
// run against a mock during development and tests.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/platform/config"
)

// NarrativeInput carries everything the final synthesis stage ties
// together.
type NarrativeInput struct {
	Trends      []domain.Trend
	Stories     []domain.CrossPlatformStory
	Predictions []domain.Prediction
}

// Client generates the narrative parts of an intelligence report.
// Implementations must be safe for concurrent use.
type Client interface {
	// TrendInsight explains what drives one emerging trend.
	TrendInsight(ctx context.Context, trend domain.Trend) (string, error)
	// StorySynthesis explains why a story spread across platforms.
	StorySynthesis(ctx context.Context, story domain.CrossPlatformStory) (string, error)
	// Predict extrapolates a trend over the coming week. The trend's
	// Insight should already be filled in.
	Predict(ctx context.Context, trend domain.Trend) (string, error)
	// Narrative produces the raw headline-and-summary response; the
	// caller parses it and applies its own fallback.
	Narrative(ctx context.Context, in NarrativeInput) (string, error)
	// WebSearch answers an open query, used when crawling came up
	// short.
	WebSearch(ctx context.Context, query string) (string, error)
}

// New selects the provider: a deterministic mock when no API key is
// configured, the real client otherwise.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == "mock" {
		return &mockClient{}
	}

	return newOpenAI(cfg, logger)
}

type mockClient struct{}

func (c *mockClient) TrendInsight(_ context.Context, trend domain.Trend) (string, error) {
	return fmt.Sprintf(
		"Discussion around %s is accelerating at %.1f signals/hour across %d platforms.",
		trend.Topic, trend.Velocity, len(trend.Platforms)), nil
}

func (c *mockClient) StorySynthesis(_ context.Context, story domain.CrossPlatformStory) (string, error) {
	return fmt.Sprintf(
		"%q resonated on %d platforms with %d total engagement.",
		story.Title, len(story.Platforms), story.TotalEngagement), nil
}

func (c *mockClient) Predict(_ context.Context, trend domain.Trend) (string, error) {
	return fmt.Sprintf(
		"Expect continued activity around %s over the next week.", trend.Topic), nil
}

func (c *mockClient) Narrative(_ context.Context, in NarrativeInput) (string, error) {
	topic := "AI/ML"
	if len(in.Trends) > 0 {
		topic = in.Trends[0].Topic
	}

	return fmt.Sprintf(
		"HEADLINE: %s leads today's AI/ML intelligence\nSUMMARY: A synthesis of %d trends, %d cross-platform stories, and %d predictions.",
		topic, len(in.Trends), len(in.Stories), len(in.Predictions)), nil
}

func (c *mockClient) WebSearch(_ context.Context, query string) (string, error) {
	return "No fresh intelligence available for: " + query, nil
}
