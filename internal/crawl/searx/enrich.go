package searx

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
)

// platformPatterns maps a detected platform to the URL patterns that
// identify it. Unmatched URLs report domain.SourceUnknown.
var platformPatterns = []struct {
	platform domain.Source
	patterns []*regexp.Regexp
}{
	{domain.SourceTwitter, compileAll(`twitter\.com`, `(^|\.)x\.com`)},
	{domain.SourceMastodon, compileAll(`mastodon\.[a-z]+`, `[a-z]+\.social`)},
	{domain.SourceReddit, compileAll(`reddit\.com`)},
	{domain.SourceYouTube, compileAll(`youtube\.com`, `youtu\.be`)},
	{domain.SourceGitHub, compileAll(`github\.com`)},
	{domain.SourceStackOvfl, compileAll(`stackoverflow\.com`)},
	{domain.SourceMedium, compileAll(`medium\.com`)},
	{domain.SourceSubstack, compileAll(`substack\.com`)},
	{domain.SourceHN, compileAll(`news\.ycombinator\.com`)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}

	return out
}

// DetectPlatform identifies the source platform from a result URL.
func DetectPlatform(url string) domain.Source {
	for _, entry := range platformPatterns {
		for _, re := range entry.patterns {
			if re.MatchString(url) {
				return entry.platform
			}
		}
	}

	return domain.SourceUnknown
}

// Engagement extraction patterns: counts like "1.2K likes" embedded in
// free-text snippets, with K/M/B suffix multipliers.
const countPattern = `(\d+(?:\.\d+)?[KMB]?)\s*`

var engagementPatterns = []struct {
	assign func(*domain.Engagement, int)
	re     *regexp.Regexp
}{
	{func(e *domain.Engagement, n int) { e.Likes = n }, regexp.MustCompile(`(?i)` + countPattern + `(?:likes?|hearts?|favorites?)`)},
	{func(e *domain.Engagement, n int) { e.Shares = n }, regexp.MustCompile(`(?i)` + countPattern + `(?:shares?|retweets?|reposts?)`)},
	{func(e *domain.Engagement, n int) { e.Comments = n }, regexp.MustCompile(`(?i)` + countPattern + `(?:comments?|replies)`)},
	{func(e *domain.Engagement, n int) { e.Upvotes = n }, regexp.MustCompile(`(?i)` + countPattern + `(?:upvotes?|points?)`)},
	{func(e *domain.Engagement, n int) { e.Views = n }, regexp.MustCompile(`(?i)` + countPattern + `(?:views?|watches)`)},
}

// ExtractEngagement pulls best-effort engagement counts from a content
// snippet. Metrics that are not present stay zero.
func ExtractEngagement(content string) domain.Engagement {
	var metrics domain.Engagement

	for _, p := range engagementPatterns {
		match := p.re.FindStringSubmatch(content)
		if match == nil {
			continue
		}

		p.assign(&metrics, parseCount(match[1]))
	}

	return metrics
}

var suffixMultipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

func parseCount(raw string) int {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return 0
	}

	mult := 1.0
	if m, ok := suffixMultipliers[raw[len(raw)-1]]; ok {
		mult = m
		raw = raw[:len(raw)-1]
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}

	return int(n * mult)
}

// fallbackDateFormats are tried when dateparse cannot handle the raw
// value. Engines return wildly inconsistent formats.
var fallbackDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// ParseDate normalizes a publish date. Zero time means unparseable.
func ParseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return t
	}

	for _, format := range fallbackDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}
