package graph

import (
	"sort"
	"sync"
)

// CommunityGraph links communities (subreddits) that share authors.
// Undirected; edge weight counts shared authors.
type CommunityGraph struct {
	mu    sync.Mutex
	edges map[topicEdge]int
}

func NewCommunityGraph() *CommunityGraph {
	return &CommunityGraph{edges: make(map[topicEdge]int)}
}

// AddAuthor records that one author posted in the given communities;
// every pair of them gains a shared-author increment.
func (g *CommunityGraph) AddAuthor(communities []string) {
	if len(communities) < 2 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, a := range communities {
		for _, b := range communities[i+1:] {
			if a == b {
				continue
			}

			g.edges[normEdge(a, b)]++
		}
	}
}

// Relationship is one cross-community link.
type Relationship struct {
	CommunityA    string
	CommunityB    string
	SharedAuthors int
}

// Relationships returns all links ordered by shared-author count.
func (g *CommunityGraph) Relationships() []Relationship {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Relationship, 0, len(g.edges))

	for e, w := range g.edges {
		out = append(out, Relationship{CommunityA: e.a, CommunityB: e.b, SharedAuthors: w})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SharedAuthors != out[j].SharedAuthors {
			return out[i].SharedAuthors > out[j].SharedAuthors
		}

		if out[i].CommunityA != out[j].CommunityA {
			return out[i].CommunityA < out[j].CommunityA
		}

		return out[i].CommunityB < out[j].CommunityB
	})

	return out
}
