package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		RunID:      "run-1",
		Headline:   "Local models surge",
		Summary:    "A strong day for open weights.",
		Confidence: 0.82,
		EmergingTrends: []domain.Trend{
			{
				Topic:        "llama",
				Velocity:     1.25,
				Significance: domain.TierCritical,
				Platforms:    []domain.Source{domain.SourceReddit, domain.SourceHN},
				Insight:      "Weight releases keep accelerating.",
			},
		},
		CrossPlatformStories: []domain.CrossPlatformStory{
			{
				Title:           "Weights released",
				Platforms:       []domain.Source{domain.SourceReddit, domain.SourceHN},
				TotalEngagement: 900,
				Synthesis:       "Same release discussed on both platforms.",
				Signals:         []domain.Signal{{URL: "https://example.com/w"}},
			},
		},
		TopInfluencers: []domain.Influencer{
			{Username: "alice", Type: domain.InfluenceProlific, Signals: 12, Comments: 3, Influence: 150},
		},
		TopicClusters: map[string][]string{"llama": {"lora", "gguf"}},
		Predictions: []domain.Prediction{
			{Topic: "llama", Narrative: "More releases coming.", Confidence: 0.9, Timeframe: "7 days"},
		},
		TotalSignals:      120,
		PlatformsAnalyzed: []domain.Source{domain.SourceHN, domain.SourceReddit},
		TimeRange:         "Last 24 hours",
		GeneratedAt:       time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRenderSections(t *testing.T) {
	logger := zerolog.Nop()
	r := New("", &logger)

	out := r.Render(sampleReport())

	assert.True(t, strings.HasPrefix(out, "---\nlayout: post\n"))
	assert.Contains(t, out, `title: "Local models surge"`)
	assert.Contains(t, out, "**Confidence Score**: 82%")
	assert.Contains(t, out, "**Total Signals**: 120")
	assert.Contains(t, out, "## 🔥 Emerging Trends")
	assert.Contains(t, out, "### Llama")
	assert.Contains(t, out, "**Velocity**: 1.25 signals/hour")
	assert.Contains(t, out, "## 🌐 Cross-Platform Stories")
	assert.Contains(t, out, "[Read more](https://example.com/w)")
	assert.Contains(t, out, "## 🔮 Predictions")
	assert.Contains(t, out, "## 📣 Key Voices")
	assert.Contains(t, out, "| alice | Prolific Creator | 12 | 3 | 150 |")
	assert.Contains(t, out, "## 🕸 Topic Clusters")
	assert.Contains(t, out, "**Llama** → lora, gguf")
}

func TestRenderOmitsEmptySections(t *testing.T) {
	logger := zerolog.Nop()
	r := New("", &logger)

	out := r.Render(&domain.Report{Headline: "Quiet day", Summary: "Nothing happened."})

	assert.NotContains(t, out, "Emerging Trends")
	assert.NotContains(t, out, "Cross-Platform Stories")
	assert.NotContains(t, out, "Predictions")
	assert.NotContains(t, out, "Key Voices")
}

func TestWriteCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	r := New(dir, &logger)
	r.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }

	path, err := r.Write(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-09-01-intelligence-report.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Local models surge")
}
