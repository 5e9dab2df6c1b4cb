package graph

import (
	"sort"
	"sync"
)

type topicEdge struct {
	a, b string
}

// normEdge orders the endpoints so the undirected edge has one key.
func normEdge(a, b string) topicEdge {
	if a > b {
		a, b = b, a
	}

	return topicEdge{a: a, b: b}
}

// TopicGraph is an undirected co-occurrence graph over the keyword
// vocabulary. Node weight is mention count; edge weight counts items
// where both keywords appeared. Weights only increase within a cycle.
type TopicGraph struct {
	mu    sync.Mutex
	nodes map[string]int
	edges map[topicEdge]int
}

func NewTopicGraph() *TopicGraph {
	return &TopicGraph{
		nodes: make(map[string]int),
		edges: make(map[topicEdge]int),
	}
}

// AddItem records the topics of one item: every topic's mention count
// is incremented and every co-occurring pair gets an edge increment.
func (g *TopicGraph) AddItem(topics []string) {
	if len(topics) == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, t := range topics {
		g.nodes[t]++
	}

	for i, a := range topics {
		for _, b := range topics[i+1:] {
			if a == b {
				continue
			}

			g.edges[normEdge(a, b)]++
		}
	}
}

// MentionCount returns the node weight for a topic.
func (g *TopicGraph) MentionCount(topic string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nodes[topic]
}

// EdgeWeight returns the co-occurrence count for a pair of topics.
func (g *TopicGraph) EdgeWeight(a, b string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.edges[normEdge(a, b)]
}

// Neighbors returns topics sharing an edge with topic, ordered by
// descending edge weight.
func (g *TopicGraph) Neighbors(topic string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	type neighbor struct {
		name   string
		weight int
	}

	var out []neighbor

	for e, w := range g.edges {
		switch topic {
		case e.a:
			out = append(out, neighbor{name: e.b, weight: w})
		case e.b:
			out = append(out, neighbor{name: e.a, weight: w})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}

		return out[i].name < out[j].name
	})

	names := make([]string, len(out))
	for i, n := range out {
		names[i] = n.name
	}

	return names
}

// TrendingTopic is one row of a trending-topics query.
type TrendingTopic struct {
	Topic       string
	Count       int
	Connections int
	Related     []string
}

const maxRelatedTopics = 5

// Trending returns the topN topics by mention count, descending.
func (g *TopicGraph) Trending(topN int) []TrendingTopic {
	g.mu.Lock()
	names := make([]string, 0, len(g.nodes))

	for name := range g.nodes {
		names = append(names, name)
	}
	g.mu.Unlock()

	topics := make([]TrendingTopic, 0, len(names))

	for _, name := range names {
		related := g.Neighbors(name)
		connections := len(related)

		if len(related) > maxRelatedTopics {
			related = related[:maxRelatedTopics]
		}

		topics = append(topics, TrendingTopic{
			Topic:       name,
			Count:       g.MentionCount(name),
			Connections: connections,
			Related:     related,
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}

		return topics[i].Topic < topics[j].Topic
	})

	if topN > 0 && len(topics) > topN {
		topics = topics[:topN]
	}

	return topics
}

// Clusters returns each topic mapped to its related topics, for the
// report's topic-cluster section.
func (g *TopicGraph) Clusters() map[string][]string {
	g.mu.Lock()
	names := make([]string, 0, len(g.nodes))

	for name := range g.nodes {
		names = append(names, name)
	}
	g.mu.Unlock()

	clusters := make(map[string][]string, len(names))
	for _, name := range names {
		clusters[name] = g.Neighbors(name)
	}

	return clusters
}
