package domain

import "time"

// Weights applied when combining raw metrics into an engagement score.
// Comments are weighted above raw score because discussion depth is a
// stronger interest signal than drive-by votes; velocity dominates so
// fast-rising items outrank slowly accumulated ones.
const (
	scoreWeight    = 1.0
	commentWeight  = 2.0
	velocityWeight = 10.0

	minAgeHours = 1.0
)

// Comment is one node of a fetched discussion tree.
type Comment struct {
	ID        string
	Author    string
	Body      string
	Score     int
	CreatedAt time.Time
	ParentID  string
	Depth     int
	Replies   []*Comment
}

// RankedItem is a story or post with platform ranking inputs and
// derived metrics computed once at construction.
type RankedItem struct {
	ID        string
	Source    Source
	Kind      string // platform item kind ("story", "ask_hn", ...); empty when uniform
	Community string // subreddit or similar; empty for HN
	Title     string
	Body      string
	URL       string
	Permalink string
	Author    string
	Score     int
	Comments  int
	CreatedAt time.Time

	// Derived at construction, never mutated independently.
	Velocity        float64
	CommentRatio    float64
	EngagementScore float64
	Tags            []string

	// Attached after construction when comment fetching is enabled.
	Thread []*Comment
}

// NewRankedItem computes the derived fields from the raw ones.
// now is injected so derivation stays deterministic in tests.
func NewRankedItem(item RankedItem, now time.Time) RankedItem {
	ageHours := now.Sub(item.CreatedAt).Hours()
	if ageHours < minAgeHours {
		ageHours = minAgeHours
	}

	item.Velocity = float64(item.Score) / ageHours

	denom := float64(item.Score)
	if denom < 1 {
		denom = 1
	}

	item.CommentRatio = float64(item.Comments) / denom

	item.EngagementScore = float64(item.Score)*scoreWeight +
		float64(item.Comments)*commentWeight +
		item.Velocity*velocityWeight

	if len(item.Tags) == 0 {
		item.Tags = ExtractTopics(item.Title + " " + item.Body)
	}

	return item
}

// Signal converts a ranked item to its normalized signal form.
func (r RankedItem) Signal() Signal {
	url := r.Permalink
	if url == "" {
		url = r.URL
	}

	return Signal{
		Source:  r.Source,
		Title:   r.Title,
		URL:     url,
		Content: r.Body,
		Author:  r.Author,
		Metrics: Engagement{
			Points:   r.Score,
			Comments: r.Comments,
		},
		CreatedAt: r.CreatedAt,
	}
}
