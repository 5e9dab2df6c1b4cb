package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserGraphDistinctCommentersDistinctEdges(t *testing.T) {
	g := NewUserGraph()
	g.AddPost("author", "golang", 50)

	for _, commenter := range []string{"a", "b", "c"} {
		g.AddComment(commenter, "author", 1)
	}

	// Three different commenters means three edges of weight one,
	// not one edge of weight three.
	assert.Equal(t, 3, g.EdgeCount())

	for _, commenter := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, g.EdgeWeight(commenter, "author"))
	}
}

func TestUserGraphRepeatedCommentsAccumulateWeight(t *testing.T) {
	g := NewUserGraph()

	g.AddComment("a", "author", 0)
	g.AddComment("a", "author", 0)

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.EdgeWeight("a", "author"))
	assert.Equal(t, 0, g.EdgeWeight("author", "a"), "edges are directed")
}

func TestUserGraphInfluence(t *testing.T) {
	g := NewUserGraph()
	g.AddPost("alice", "golang", 30)
	g.AddPost("alice", "rust", 20)
	g.AddComment("alice", "bob", 5)

	top := g.TopUsers(10)
	require.NotEmpty(t, top)

	alice := top[0]
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, 2, alice.Posts)
	assert.Equal(t, 1, alice.Comments)
	assert.Equal(t, 55, alice.TotalScore)
	assert.Equal(t, []string{"golang", "rust"}, alice.Communities)

	// posts*10 + comments*2 + total score
	assert.InDelta(t, 20+2+55, alice.Influence, 1e-9)
}

func TestTopUsersExcludesPlaceholders(t *testing.T) {
	g := NewUserGraph()

	for _, name := range []string{"[deleted]", "[removed]", "AutoModerator", "unknown", ""} {
		g.AddPost(name, "", 1000)
	}

	g.AddPost("real", "", 1)

	top := g.TopUsers(0)
	require.Len(t, top, 1)
	assert.Equal(t, "real", top[0].Username)
}

func TestTopUsersTruncatesAndBreaksTies(t *testing.T) {
	g := NewUserGraph()
	g.AddPost("zed", "", 5)
	g.AddPost("amy", "", 5)
	g.AddPost("big", "", 100)

	top := g.TopUsers(2)
	require.Len(t, top, 2)
	assert.Equal(t, "big", top[0].Username)
	assert.Equal(t, "amy", top[1].Username, "ties resolve alphabetically")
}

func TestMergeUserGraphs(t *testing.T) {
	a := NewUserGraph()
	a.AddPost("alice", "golang", 10)
	a.AddComment("bob", "alice", 2)

	b := NewUserGraph()
	b.AddPost("alice", "rust", 5)
	b.AddComment("bob", "alice", 1)
	b.AddComment("carol", "bob", 0)

	MergeUserGraphs(a, b)

	assert.Equal(t, 2, a.EdgeWeight("bob", "alice"))
	assert.Equal(t, 1, a.EdgeWeight("carol", "bob"))

	top := a.TopUsers(1)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, 2, top[0].Posts)
	assert.Equal(t, 15, top[0].TotalScore)
	assert.Equal(t, []string{"golang", "rust"}, top[0].Communities)
}

func TestMergeUserGraphsNil(t *testing.T) {
	g := NewUserGraph()
	MergeUserGraphs(g, nil)
	MergeUserGraphs(nil, g)

	assert.Equal(t, 0, g.NodeCount())
}
