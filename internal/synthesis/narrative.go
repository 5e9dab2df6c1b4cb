package synthesis

import (
	"context"
	"strings"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/llm"
)

const (
	headlinePrefix = "HEADLINE:"
	summaryPrefix  = "SUMMARY:"

	fallbackHeadline = "Daily AI/ML Update"
	fallbackSummary  = "Today's intelligence report covering emerging trends, cross-platform stories, and predictions."
)

// createNarrative requests the headline and executive summary tying
// the report together. Any failure, including an unparseable
// response, falls back to the deterministic template.
func (e *Engine) createNarrative(
	ctx context.Context,
	trends []domain.Trend,
	stories []domain.CrossPlatformStory,
	predictions []domain.Prediction,
) (string, string) {
	raw, err := retryOnce(ctx, llm.NarrativeInput{
		Trends:      trends,
		Stories:     stories,
		Predictions: predictions,
	}, e.llm.Narrative)
	if err != nil {
		e.logger.Warn().Err(err).Msg("narrative synthesis failed, using fallback")

		return fallbackNarrative(trends)
	}

	headline, summary := parseNarrative(raw)

	fbHeadline, fbSummary := fallbackNarrative(trends)
	if headline == "" {
		headline = fbHeadline
	}

	if summary == "" {
		summary = fbSummary
	}

	return headline, summary
}

// parseNarrative extracts the line-prefixed headline and summary.
// Missing prefixes yield empty strings, never an error.
func parseNarrative(raw string) (string, string) {
	var headline, summary string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, headlinePrefix):
			headline = strings.TrimSpace(strings.TrimPrefix(line, headlinePrefix))
		case strings.HasPrefix(line, summaryPrefix):
			summary = strings.TrimSpace(strings.TrimPrefix(line, summaryPrefix))
		}
	}

	return headline, summary
}

func fallbackNarrative(trends []domain.Trend) (string, string) {
	if len(trends) == 0 {
		return fallbackHeadline, fallbackSummary
	}

	return "AI/ML Intelligence Report: " + trends[0].Topic, fallbackSummary
}
