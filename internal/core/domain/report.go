package domain

import "time"

// SignificanceTier labels a trend by its composite score.
type SignificanceTier string

const (
	TierCritical SignificanceTier = "Critical"
	TierHigh     SignificanceTier = "High"
	TierMedium   SignificanceTier = "Medium"
	TierLow      SignificanceTier = "Low"
)

// Trend is one emerging topic with its ranking inputs and, after
// synthesis, a narrative insight.
type Trend struct {
	Topic        string           `json:"topic"`
	Velocity     float64          `json:"velocity"`
	Score        float64          `json:"score"`
	SignalCount  int              `json:"signal_count"`
	Platforms    []Source         `json:"platforms"`
	Samples      []Signal         `json:"-"`
	Insight      string           `json:"insight,omitempty"`
	Significance SignificanceTier `json:"significance,omitempty"`
}

// CrossPlatformStory is a story detected on more than one platform
// within a single crawl cycle.
type CrossPlatformStory struct {
	Title           string   `json:"title"`
	Platforms       []Source `json:"platforms"`
	TotalEngagement int      `json:"total_engagement"`
	Signals         []Signal `json:"-"`
	Synthesis       string   `json:"synthesis,omitempty"`
}

// InfluenceType is the deterministic influencer classification.
type InfluenceType string

const (
	InfluenceProlific InfluenceType = "Prolific Creator"
	InfluenceEngaged  InfluenceType = "High Engagement"
	InfluenceRising   InfluenceType = "Rising Voice"
)

// Influencer is a profiled top user.
type Influencer struct {
	Username        string        `json:"username"`
	Signals         int           `json:"signals"`
	Comments        int           `json:"comments"`
	TotalEngagement int           `json:"total_engagement"`
	Communities     []string      `json:"communities,omitempty"`
	Influence       float64       `json:"influence"`
	Type            InfluenceType `json:"influence_type,omitempty"`
}

// Prediction is a forward-looking narrative for one trend.
type Prediction struct {
	Topic      string  `json:"topic"`
	Narrative  string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Timeframe  string  `json:"timeframe"`
}

// Report is the synthesis output, immutable after construction.
// Persistence is the renderer's responsibility.
type Report struct {
	RunID      string  `json:"run_id"`
	Headline   string  `json:"headline"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence_score"`

	EmergingTrends       []Trend              `json:"emerging_trends"`
	CrossPlatformStories []CrossPlatformStory `json:"cross_platform_stories"`
	TopInfluencers       []Influencer         `json:"top_influencers"`
	TopicClusters        map[string][]string  `json:"topic_clusters"`
	Predictions          []Prediction         `json:"predictions"`

	TotalSignals      int       `json:"total_signals"`
	PlatformsAnalyzed []Source  `json:"platforms_analyzed"`
	TimeRange         string    `json:"time_range"`
	GeneratedAt       time.Time `json:"generated_at"`
}
