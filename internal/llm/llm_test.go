package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/platform/config"
)

func TestNewSelectsMockWithoutKey(t *testing.T) {
	logger := zerolog.Nop()

	for _, key := range []string{"", "mock"} {
		client := New(&config.Config{LLMAPIKey: key}, &logger)
		_, ok := client.(*mockClient)
		assert.True(t, ok, "key %q should select the mock", key)
	}

	client := New(&config.Config{LLMAPIKey: "sk-real"}, &logger)
	_, ok := client.(*openaiClient)
	assert.True(t, ok)
}

func TestMockNarrativeIsParseable(t *testing.T) {
	client := &mockClient{}

	raw, err := client.Narrative(context.Background(), NarrativeInput{
		Trends: []domain.Trend{{Topic: "llm"}},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "HEADLINE: "))
	assert.Contains(t, raw, "\nSUMMARY: ")
	assert.Contains(t, raw, "llm")
}

func TestNarrativePromptListsSections(t *testing.T) {
	prompt := narrativePrompt(NarrativeInput{
		Trends:      []domain.Trend{{Topic: "rag", Insight: "retrieval keeps growing"}},
		Stories:     []domain.CrossPlatformStory{{Title: "New model drop", Platforms: []domain.Source{domain.SourceReddit, domain.SourceHN}}},
		Predictions: []domain.Prediction{{Topic: "rag", Narrative: "more tooling"}},
	})

	assert.Contains(t, prompt, "EMERGING TRENDS:")
	assert.Contains(t, prompt, "CROSS-PLATFORM STORIES:")
	assert.Contains(t, prompt, "KEY PREDICTIONS:")
	assert.Contains(t, prompt, "HEADLINE: [your headline]")
	assert.Contains(t, prompt, "rag")
}
