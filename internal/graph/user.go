// Package graph provides the session-scoped interaction and topic
// co-occurrence graphs built during one crawl cycle. All graphs are
// safe for concurrent mutation; state is discarded at process exit.
package graph

import (
	"sort"
	"sync"
)

// Influence weights. Authored items count far more than comments;
// accumulated score is added raw.
const (
	postInfluenceWeight    = 10
	commentInfluenceWeight = 2
)

// UserStats accumulates per-author interaction statistics within one
// crawl cycle. Counts only increase; influence is derived on read.
type UserStats struct {
	Posts       int
	Comments    int
	TotalScore  int
	Communities map[string]struct{}
}

// Influence is the derived weighted combination of the raw stats.
func (s *UserStats) Influence() float64 {
	return float64(s.Posts*postInfluenceWeight +
		s.Comments*commentInfluenceWeight +
		s.TotalScore)
}

type userEdge struct {
	from, to string
}

// UserGraph is a directed graph of user interactions: an edge points
// from a commenter to the author they replied to, weighted by
// interaction count. Self-loops are permitted.
type UserGraph struct {
	mu    sync.Mutex
	stats map[string]*UserStats
	edges map[userEdge]int
}

func NewUserGraph() *UserGraph {
	return &UserGraph{
		stats: make(map[string]*UserStats),
		edges: make(map[userEdge]int),
	}
}

func (g *UserGraph) statsLocked(user string) *UserStats {
	s, ok := g.stats[user]
	if !ok {
		s = &UserStats{Communities: make(map[string]struct{})}
		g.stats[user] = s
	}

	return s
}

// AddPost records an authored item.
func (g *UserGraph) AddPost(author, community string, score int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.statsLocked(author)
	s.Posts++
	s.TotalScore += score

	if community != "" {
		s.Communities[community] = struct{}{}
	}
}

// AddComment records a comment and the commenter→parent-author edge.
func (g *UserGraph) AddComment(commenter, parentAuthor string, score int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.statsLocked(commenter)
	s.Comments++
	s.TotalScore += score

	// Ensure the parent author exists as a node before the edge does.
	g.statsLocked(parentAuthor)
	g.edges[userEdge{from: commenter, to: parentAuthor}]++
}

// EdgeWeight returns the accumulated weight of the commenter→author
// edge, or zero if absent.
func (g *UserGraph) EdgeWeight(from, to string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.edges[userEdge{from: from, to: to}]
}

// EdgeCount returns the number of distinct edges.
func (g *UserGraph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.edges)
}

// NodeCount returns the number of known users.
func (g *UserGraph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.stats)
}

// RankedUser is one row of a top-users query.
type RankedUser struct {
	Username    string
	Posts       int
	Comments    int
	TotalScore  int
	Communities []string
	Influence   float64
}

// excludedUsers never appear in influence rankings.
var excludedUsers = map[string]struct{}{
	"[deleted]":     {},
	"[removed]":     {},
	"AutoModerator": {},
	"unknown":       {},
	"":              {},
}

// TopUsers returns the topN users ordered by influence, descending.
func (g *UserGraph) TopUsers(topN int) []RankedUser {
	g.mu.Lock()
	defer g.mu.Unlock()

	users := make([]RankedUser, 0, len(g.stats))

	for name, s := range g.stats {
		if _, skip := excludedUsers[name]; skip {
			continue
		}

		communities := make([]string, 0, len(s.Communities))
		for c := range s.Communities {
			communities = append(communities, c)
		}

		sort.Strings(communities)

		users = append(users, RankedUser{
			Username:    name,
			Posts:       s.Posts,
			Comments:    s.Comments,
			TotalScore:  s.TotalScore,
			Communities: communities,
			Influence:   s.Influence(),
		})
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Influence != users[j].Influence {
			return users[i].Influence > users[j].Influence
		}

		return users[i].Username < users[j].Username
	})

	if topN > 0 && len(users) > topN {
		users = users[:topN]
	}

	return users
}
