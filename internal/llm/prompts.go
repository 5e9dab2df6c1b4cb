package llm

import (
	"fmt"
	"strings"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
)

const (
	maxTrendSamples = 3

	trendTokens      = 300
	storyTokens      = 200
	predictionTokens = 400
	narrativeTokens  = 300
	webSearchTokens  = 1000
)

func trendPrompt(trend domain.Trend) string {
	var sb strings.Builder

	sb.WriteString("Analyze this emerging AI/ML trend:\n\n")
	sb.WriteString(fmt.Sprintf("Topic: %s\n", trend.Topic))
	sb.WriteString(fmt.Sprintf("Velocity: %.2f signals/hour\n", trend.Velocity))
	sb.WriteString(fmt.Sprintf("Platforms: %s\n", joinSources(trend.Platforms)))
	sb.WriteString("Sample signals:\n")
	sb.WriteString(formatSignals(trend.Samples, maxTrendSamples))
	sb.WriteString("\nProvide:\n")
	sb.WriteString("1. What's driving this trend?\n")
	sb.WriteString("2. Why is it significant?\n")
	sb.WriteString("3. What are the implications?\n\n")
	sb.WriteString("Be concise and insightful (3-4 sentences).")

	return sb.String()
}

func storyPrompt(story domain.CrossPlatformStory) string {
	var sb strings.Builder

	sb.WriteString("Synthesize this cross-platform AI/ML story:\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", story.Title))
	sb.WriteString(fmt.Sprintf("Platforms: %s\n", joinSources(story.Platforms)))
	sb.WriteString(fmt.Sprintf("Total Engagement: %d\n\n", story.TotalEngagement))
	sb.WriteString("What's the core story? Why did it spread across platforms?\n")
	sb.WriteString("(2-3 sentences)")

	return sb.String()
}

func predictionPrompt(trend domain.Trend) string {
	var sb strings.Builder

	sb.WriteString("Based on this AI/ML trend, predict what happens next:\n\n")
	sb.WriteString(fmt.Sprintf("Topic: %s\n", trend.Topic))
	sb.WriteString(fmt.Sprintf("Current State: %s\n", trend.Insight))
	sb.WriteString(fmt.Sprintf("Velocity: %.2f signals/hour\n\n", trend.Velocity))
	sb.WriteString("Predict:\n")
	sb.WriteString("1. What happens in the next 7 days?\n")
	sb.WriteString("2. What are the key milestones to watch for?\n")
	sb.WriteString("3. What's the potential impact?\n\n")
	sb.WriteString("Be specific and actionable (4-5 sentences).")

	return sb.String()
}

func narrativePrompt(in NarrativeInput) string {
	var sb strings.Builder

	sb.WriteString("Create a compelling blog post headline and summary for today's AI/ML intelligence report.\n\n")
	sb.WriteString("EMERGING TRENDS:\n")

	for _, t := range in.Trends {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", t.Topic, t.Significance, t.Insight))
	}

	sb.WriteString("\nCROSS-PLATFORM STORIES:\n")

	for _, s := range in.Stories {
		sb.WriteString(fmt.Sprintf("- %s (%d platforms): %s\n", s.Title, len(s.Platforms), s.Synthesis))
	}

	sb.WriteString("\nKEY PREDICTIONS:\n")

	for _, p := range in.Predictions {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", p.Topic, p.Narrative))
	}

	sb.WriteString("\nGenerate:\n")
	sb.WriteString("1. A compelling headline (10-15 words, exciting but accurate)\n")
	sb.WriteString("2. An executive summary (3-4 sentences that capture the essence)\n\n")
	sb.WriteString("Format:\nHEADLINE: [your headline]\nSUMMARY: [your summary]")

	return sb.String()
}

func formatSignals(signals []domain.Signal, limit int) string {
	if len(signals) > limit {
		signals = signals[:limit]
	}

	var sb strings.Builder

	for _, s := range signals {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", s.Source, s.Title))
	}

	return sb.String()
}

func joinSources(sources []domain.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}

	return strings.Join(names, ", ")
}
