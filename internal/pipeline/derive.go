package pipeline

import (
	"sort"
	"strings"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
)

// Trend score weights: volume establishes a baseline, momentum
// dominates so a topic spiking right now outranks a steady hum.
const (
	trendCountWeight    = 1.0
	trendVelocityWeight = 10.0

	maxTrendSamples = 3

	minStoryPlatforms = 2
)

// deriveTrends ranks the vocabulary topics by mention count and
// annotates each with its velocity, platform spread, and sample
// signals. Topics without any matching signal are dropped.
func deriveTrends(topics *graph.TopicGraph, signals []domain.Signal, lookbackHours float64) []domain.Trend {
	if lookbackHours <= 0 {
		lookbackHours = 1
	}

	// Index signals by topic once instead of rescanning per trend.
	byTopic := make(map[string][]domain.Signal)

	for _, s := range signals {
		for _, topic := range domain.ExtractTopics(s.Title + " " + s.Content) {
			byTopic[topic] = append(byTopic[topic], s)
		}
	}

	trending := topics.Trending(0)
	trends := make([]domain.Trend, 0, len(trending))

	for _, t := range trending {
		matched := byTopic[t.Topic]
		if len(matched) == 0 {
			continue
		}

		velocity := float64(len(matched)) / lookbackHours

		samples := matched
		if len(samples) > maxTrendSamples {
			samples = samples[:maxTrendSamples]
		}

		trends = append(trends, domain.Trend{
			Topic:       t.Topic,
			Velocity:    velocity,
			Score:       float64(len(matched))*trendCountWeight + velocity*trendVelocityWeight,
			SignalCount: len(matched),
			Platforms:   distinctSources(matched),
			Samples:     samples,
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Score != trends[j].Score {
			return trends[i].Score > trends[j].Score
		}

		return trends[i].Topic < trends[j].Topic
	})

	return trends
}

// deriveStories groups signals sharing a canonical URL (or, failing
// that, an identical normalized title) and keeps the groups seen on
// more than one platform.
func deriveStories(signals []domain.Signal, topN int) []domain.CrossPlatformStory {
	groups := make(map[string][]domain.Signal)
	order := make([]string, 0)

	for _, s := range signals {
		key := storyKey(s)
		if key == "" {
			continue
		}

		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}

		groups[key] = append(groups[key], s)
	}

	var stories []domain.CrossPlatformStory

	for _, key := range order {
		group := groups[key]

		platforms := distinctSources(group)
		if len(platforms) < minStoryPlatforms {
			continue
		}

		total := 0
		for _, s := range group {
			total += s.Metrics.Total()
		}

		stories = append(stories, domain.CrossPlatformStory{
			Title:           group[0].Title,
			Platforms:       platforms,
			TotalEngagement: total,
			Signals:         group,
		})
	}

	sort.Slice(stories, func(i, j int) bool {
		if stories[i].TotalEngagement != stories[j].TotalEngagement {
			return stories[i].TotalEngagement > stories[j].TotalEngagement
		}

		return stories[i].Title < stories[j].Title
	})

	if topN > 0 && len(stories) > topN {
		stories = stories[:topN]
	}

	return stories
}

func storyKey(s domain.Signal) string {
	if s.URL != "" {
		return strings.TrimRight(strings.ToLower(s.URL), "/")
	}

	return normalizeTitle(s.Title)
}

func normalizeTitle(title string) string {
	var b strings.Builder

	// Punctuation becomes a separator so "GPT-5" and "gpt 5" collide.
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// deriveInfluencers converts the merged user-graph ranking into the
// report's influencer rows. Type labels are assigned downstream.
func deriveInfluencers(users *graph.UserGraph, topN int) []domain.Influencer {
	ranked := users.TopUsers(topN)
	influencers := make([]domain.Influencer, 0, len(ranked))

	for _, u := range ranked {
		influencers = append(influencers, domain.Influencer{
			Username:        u.Username,
			Signals:         u.Posts,
			Comments:        u.Comments,
			TotalEngagement: u.TotalScore,
			Communities:     u.Communities,
			Influence:       u.Influence,
		})
	}

	return influencers
}

func distinctSources(signals []domain.Signal) []domain.Source {
	seen := make(map[domain.Source]struct{})
	var out []domain.Source

	for _, s := range signals {
		if _, ok := seen[s.Source]; ok {
			continue
		}

		seen[s.Source] = struct{}{}
		out = append(out, s.Source)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
