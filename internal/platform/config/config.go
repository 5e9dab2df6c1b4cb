// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM client
	LLMAPIKey        string `env:"LLM_API_KEY"`
	LLMModel         string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMCreativeModel string `env:"LLM_CREATIVE_MODEL" envDefault:"gpt-4o"`
	RateLimitRPS     int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Search crawler (metasearch mirrors)
	SearchInstances   []string      `env:"SEARCH_INSTANCES" envSeparator:"," envDefault:"https://searx.be,https://search.sapti.me,https://searx.tiekoetter.com,https://searx.work"`
	SearchTimeout     time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`
	SearchMaxResults  int           `env:"SEARCH_MAX_RESULTS" envDefault:"100"`
	SearchQuery       string        `env:"SEARCH_QUERY" envDefault:"AI OR machine learning OR LLM OR local models"`
	SearchTimeRange   string        `env:"SEARCH_TIME_RANGE" envDefault:"day"`
	SearchRequestGap  time.Duration `env:"SEARCH_REQUEST_GAP" envDefault:"2s"`
	SearchMaxRetries  int           `env:"SEARCH_MAX_RETRIES" envDefault:"3"`
	SearchBackoffBase time.Duration `env:"SEARCH_BACKOFF_BASE" envDefault:"1s"`

	// Reddit crawler
	Subreddits           []string      `env:"SUBREDDITS" envSeparator:"," envDefault:"LocalLLaMA,MachineLearning,StableDiffusion,OpenAI,ArtificialIntelligence,learnmachinelearning"`
	RedditTimeout        time.Duration `env:"REDDIT_TIMEOUT" envDefault:"30s"`
	RedditMinInterval    time.Duration `env:"REDDIT_MIN_INTERVAL" envDefault:"2s"`
	RedditMinScore       int           `env:"REDDIT_MIN_SCORE" envDefault:"50"`
	RedditMaxPostsPerSub int           `env:"REDDIT_MAX_POSTS_PER_SUB" envDefault:"50"`

	// Hacker News crawler
	HNTimeout    time.Duration `env:"HN_TIMEOUT" envDefault:"30s"`
	HNMinPoints  int           `env:"HN_MIN_POINTS" envDefault:"50"`
	HNMaxStories int           `env:"HN_MAX_STORIES" envDefault:"50"`

	// RSS crawler
	RSSFeeds   []string      `env:"RSS_FEEDS" envSeparator:","`
	RSSTimeout time.Duration `env:"RSS_TIMEOUT" envDefault:"30s"`

	// Shared crawl settings
	LookbackHours     int  `env:"LOOKBACK_HOURS" envDefault:"24"`
	IncludeComments   bool `env:"INCLUDE_COMMENTS" envDefault:"true"`
	CommentMaxDepth   int  `env:"COMMENT_MAX_DEPTH" envDefault:"3"`
	CommentMaxTop     int  `env:"COMMENT_MAX_TOP" envDefault:"50"`
	CommentMaxReplies int  `env:"COMMENT_MAX_REPLIES" envDefault:"10"`

	// Orchestration
	FallbackSignalFloor int `env:"FALLBACK_SIGNAL_FLOOR" envDefault:"10"`

	// Synthesis tuning. These are tuning parameters, not correctness
	// constraints, so they stay configurable.
	TrendTopN         int     `env:"TREND_TOP_N" envDefault:"5"`
	PredictionTopN    int     `env:"PREDICTION_TOP_N" envDefault:"3"`
	CrossPlatformTopN int     `env:"CROSS_PLATFORM_TOP_N" envDefault:"10"`
	InfluencerTopN    int     `env:"INFLUENCER_TOP_N" envDefault:"10"`
	TierCriticalAbove float64 `env:"TIER_CRITICAL_ABOVE" envDefault:"20"`
	TierHighAbove     float64 `env:"TIER_HIGH_ABOVE" envDefault:"10"`
	TierMediumAbove   float64 `env:"TIER_MEDIUM_ABOVE" envDefault:"5"`

	// Report output
	OutputDir string `env:"OUTPUT_DIR" envDefault:"docs/_posts"`

	// Observability
	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.SearchInstances = trimAll(cfg.SearchInstances)
	cfg.Subreddits = trimAll(cfg.Subreddits)
	cfg.RSSFeeds = trimAll(cfg.RSSFeeds)

	return cfg, nil
}

func trimAll(values []string) []string {
	out := values[:0]

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}
