package searx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url  string
		want domain.Source
	}{
		{"https://twitter.com/user/status/1", domain.SourceTwitter},
		{"https://x.com/user/status/1", domain.SourceTwitter},
		{"https://mastodon.social/@user/1", domain.SourceMastodon},
		{"https://fosstodon.social/@user/1", domain.SourceMastodon},
		{"https://www.reddit.com/r/MachineLearning/comments/abc", domain.SourceReddit},
		{"https://youtu.be/dQw4w9WgXcQ", domain.SourceYouTube},
		{"https://github.com/org/repo", domain.SourceGitHub},
		{"https://stackoverflow.com/questions/1", domain.SourceStackOvfl},
		{"https://medium.com/@author/post", domain.SourceMedium},
		{"https://ai.substack.com/p/post", domain.SourceSubstack},
		{"https://news.ycombinator.com/item?id=1", domain.SourceHN},
		{"https://example.com/blog/post", domain.SourceUnknown},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectPlatform(tc.url), tc.url)
	}
}

func TestDetectPlatformDoesNotMatchXSubstring(t *testing.T) {
	// "netflix.com" must not trip the x.com pattern.
	assert.Equal(t, domain.SourceUnknown, DetectPlatform("https://netflix.com/title/1"))
}

func TestExtractEngagement(t *testing.T) {
	metrics := ExtractEngagement("Great thread, 1.2K likes and 340 retweets with 57 replies")

	assert.Equal(t, 1200, metrics.Likes)
	assert.Equal(t, 340, metrics.Shares)
	assert.Equal(t, 57, metrics.Comments)
	assert.Equal(t, 0, metrics.Upvotes)
	assert.Equal(t, 0, metrics.Views)
}

func TestExtractEngagementSuffixes(t *testing.T) {
	metrics := ExtractEngagement("2M views, 3.5K upvotes, 1B likes")

	assert.Equal(t, 2_000_000, metrics.Views)
	assert.Equal(t, 3500, metrics.Upvotes)
	assert.Equal(t, 1_000_000_000, metrics.Likes)
}

func TestExtractEngagementEmpty(t *testing.T) {
	metrics := ExtractEngagement("no counts to be found here")
	assert.Equal(t, domain.Engagement{}, metrics)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 42, parseCount("42"))
	assert.Equal(t, 1500, parseCount("1.5k"))
	assert.Equal(t, 2_000_000, parseCount("2M"))
	assert.Equal(t, 0, parseCount("garbage"))
	assert.Equal(t, 0, parseCount(""))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2026-03-14",
		"Mar 14, 2026",
		"2026-03-14T00:00:00Z",
	} {
		got := ParseDate(raw)
		assert.True(t, got.Equal(want), "raw=%q got=%v", raw, got)
	}
}

func TestParseDateUnparseable(t *testing.T) {
	assert.True(t, ParseDate("").IsZero())
	assert.True(t, ParseDate("three days after the solstice").IsZero())
}
