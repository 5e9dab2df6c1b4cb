// Package domain holds the data model shared across crawlers, the
// orchestrator, and the synthesis engine.
package domain

import (
	"errors"
	"time"
)

// Source identifies the platform a signal originated from.
type Source string

const (
	SourceSearch    Source = "search"
	SourceReddit    Source = "reddit"
	SourceHN        Source = "hackernews"
	SourceRSS       Source = "rss"
	SourceFallback  Source = "web-search-fallback"
	SourceTwitter   Source = "twitter"
	SourceMastodon  Source = "mastodon"
	SourceYouTube   Source = "youtube"
	SourceGitHub    Source = "github"
	SourceMedium    Source = "medium"
	SourceSubstack  Source = "substack"
	SourceStackOvfl Source = "stackoverflow"
	SourceUnknown   Source = "unknown"
)

var (
	ErrMissingSource    = errors.New("signal has no source")
	ErrMissingTimestamp = errors.New("signal has no timestamp")
)

// Engagement holds sparse, platform-dependent interaction counts.
// Absent metrics stay zero rather than nil.
type Engagement struct {
	Upvotes  int `json:"upvotes,omitempty"`
	Points   int `json:"points,omitempty"`
	Likes    int `json:"likes,omitempty"`
	Comments int `json:"comments,omitempty"`
	Shares   int `json:"shares,omitempty"`
	Views    int `json:"views,omitempty"`
}

// Total returns the sum of all known counts, used for ranking
// cross-platform stories.
func (e Engagement) Total() int {
	return e.Upvotes + e.Points + e.Likes + e.Comments + e.Shares + e.Views
}

// Signal is a normalized unit of intelligence regardless of origin.
// Signals are immutable after creation and live for one crawl cycle.
type Signal struct {
	Source    Source     `json:"source"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Content   string     `json:"content"`
	Author    string     `json:"author,omitempty"`
	Metrics   Engagement `json:"engagement"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate enforces the signal invariant: non-empty source and timestamp.
func (s Signal) Validate() error {
	if s.Source == "" {
		return ErrMissingSource
	}

	if s.CreatedAt.IsZero() {
		return ErrMissingTimestamp
	}

	return nil
}
