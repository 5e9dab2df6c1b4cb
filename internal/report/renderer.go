// Package report renders a synthesized intelligence report as a
// Jekyll-style markdown post and persists it.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
)

const (
	defaultOutputDir = "docs/_posts"

	fileSuffix = "-intelligence-report.md"
	dateLayout = "2006-01-02"

	frontMatterAuthor = "The Intelligence Network"
	frontMatterTags   = "[ai, ml, intelligence, trends, analysis]"

	descriptionLimit = 160

	maxRenderedTrends  = 5
	maxRenderedStories = 5

	dirPerm  = 0o755
	filePerm = 0o644
)

// Renderer writes one markdown post per pipeline run.
type Renderer struct {
	outputDir string
	logger    *zerolog.Logger
	titler    cases.Caser

	now func() time.Time
}

func New(outputDir string, logger *zerolog.Logger) *Renderer {
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	return &Renderer{
		outputDir: outputDir,
		logger:    logger,
		titler:    cases.Title(language.English),
		now:       time.Now,
	}
}

// Write renders the report and persists it under the output directory
// as <date>-intelligence-report.md, returning the file path.
func (r *Renderer) Write(report *domain.Report) (string, error) {
	if err := os.MkdirAll(r.outputDir, dirPerm); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(r.outputDir, r.now().Format(dateLayout)+fileSuffix)

	if err := os.WriteFile(path, []byte(r.Render(report)), filePerm); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	r.logger.Info().Str("path", path).Msg("report written")

	return path, nil
}

// Render produces the full markdown document.
func (r *Renderer) Render(report *domain.Report) string {
	var b strings.Builder

	r.writeFrontMatter(&b, report)
	r.writeSummary(&b, report)
	r.writeTrends(&b, report.EmergingTrends)
	r.writeStories(&b, report.CrossPlatformStories)
	r.writePredictions(&b, report.Predictions)
	r.writeInfluencers(&b, report.TopInfluencers)
	r.writeClusters(&b, report.TopicClusters)

	return b.String()
}

func (r *Renderer) writeFrontMatter(b *strings.Builder, report *domain.Report) {
	description := report.Summary
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}

	b.WriteString("---\n")
	b.WriteString("layout: post\n")
	fmt.Fprintf(b, "title: %q\n", report.Headline)
	fmt.Fprintf(b, "date: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 -0700"))
	fmt.Fprintf(b, "author: %s\n", frontMatterAuthor)
	fmt.Fprintf(b, "tags: %s\n", frontMatterTags)
	fmt.Fprintf(b, "description: %q\n", description)
	b.WriteString("---\n\n")
}

func (r *Renderer) writeSummary(b *strings.Builder, report *domain.Report) {
	b.WriteString("# 🧠 Intelligence Report\n\n")
	b.WriteString(report.Summary)
	b.WriteString("\n\n")
	fmt.Fprintf(b, "**Confidence Score**: %.0f%%  \n", report.Confidence*100)
	fmt.Fprintf(b, "**Platforms Analyzed**: %s  \n", joinSources(report.PlatformsAnalyzed))
	fmt.Fprintf(b, "**Total Signals**: %d  \n", report.TotalSignals)
	fmt.Fprintf(b, "**Time Range**: %s\n\n---\n\n", report.TimeRange)
}

func (r *Renderer) writeTrends(b *strings.Builder, trends []domain.Trend) {
	if len(trends) == 0 {
		return
	}

	if len(trends) > maxRenderedTrends {
		trends = trends[:maxRenderedTrends]
	}

	b.WriteString("## 🔥 Emerging Trends\n\n")

	for _, t := range trends {
		fmt.Fprintf(b, "### %s\n\n", r.titler.String(t.Topic))
		fmt.Fprintf(b, "**Significance**: %s  \n", t.Significance)
		fmt.Fprintf(b, "**Velocity**: %.2f signals/hour  \n", t.Velocity)
		fmt.Fprintf(b, "**Platforms**: %s\n\n", joinSources(t.Platforms))

		if t.Insight != "" {
			b.WriteString(t.Insight)
			b.WriteString("\n\n")
		}

		b.WriteString("---\n\n")
	}
}

func (r *Renderer) writeStories(b *strings.Builder, stories []domain.CrossPlatformStory) {
	if len(stories) == 0 {
		return
	}

	if len(stories) > maxRenderedStories {
		stories = stories[:maxRenderedStories]
	}

	b.WriteString("## 🌐 Cross-Platform Stories\n\n")

	for _, s := range stories {
		fmt.Fprintf(b, "### %s\n\n", s.Title)
		fmt.Fprintf(b, "**Platforms**: %s  \n", joinSources(s.Platforms))
		fmt.Fprintf(b, "**Total Engagement**: %d\n\n", s.TotalEngagement)

		if s.Synthesis != "" {
			b.WriteString(s.Synthesis)
			b.WriteString("\n\n")
		}

		if link := storyLink(s); link != "" {
			fmt.Fprintf(b, "[Read more](%s)\n\n", link)
		}

		b.WriteString("---\n\n")
	}
}

func (r *Renderer) writePredictions(b *strings.Builder, predictions []domain.Prediction) {
	if len(predictions) == 0 {
		return
	}

	b.WriteString("## 🔮 Predictions\n\n")

	for _, p := range predictions {
		fmt.Fprintf(b, "### %s\n\n", r.titler.String(p.Topic))
		fmt.Fprintf(b, "**Confidence**: %.0f%%  \n", p.Confidence*100)
		fmt.Fprintf(b, "**Timeframe**: %s\n\n", p.Timeframe)
		b.WriteString(p.Narrative)
		b.WriteString("\n\n---\n\n")
	}
}

func (r *Renderer) writeInfluencers(b *strings.Builder, influencers []domain.Influencer) {
	if len(influencers) == 0 {
		return
	}

	b.WriteString("## 📣 Key Voices\n\n")
	b.WriteString("| User | Type | Posts | Comments | Influence |\n")
	b.WriteString("|------|------|-------|----------|-----------|\n")

	for _, inf := range influencers {
		fmt.Fprintf(b, "| %s | %s | %d | %d | %.0f |\n",
			inf.Username, inf.Type, inf.Signals, inf.Comments, inf.Influence)
	}

	b.WriteString("\n---\n\n")
}

func (r *Renderer) writeClusters(b *strings.Builder, clusters map[string][]string) {
	if len(clusters) == 0 {
		return
	}

	topics := make([]string, 0, len(clusters))
	for topic := range clusters {
		topics = append(topics, topic)
	}

	sort.Strings(topics)

	b.WriteString("## 🕸 Topic Clusters\n\n")

	for _, topic := range topics {
		related := clusters[topic]
		if len(related) == 0 {
			continue
		}

		fmt.Fprintf(b, "- **%s** → %s\n", r.titler.String(topic), strings.Join(related, ", "))
	}

	b.WriteString("\n")
}

func storyLink(s domain.CrossPlatformStory) string {
	for _, sig := range s.Signals {
		if sig.URL != "" {
			return sig.URL
		}
	}

	return ""
}

func joinSources(sources []domain.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}

	return strings.Join(names, ", ")
}
