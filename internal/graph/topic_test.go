package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicGraphCoOccurrence(t *testing.T) {
	g := NewTopicGraph()
	g.AddItem([]string{"llm", "rag", "embedding"})
	g.AddItem([]string{"llm", "rag"})
	g.AddItem([]string{"llm"})

	assert.Equal(t, 3, g.MentionCount("llm"))
	assert.Equal(t, 2, g.MentionCount("rag"))
	assert.Equal(t, 2, g.EdgeWeight("llm", "rag"))
	assert.Equal(t, 2, g.EdgeWeight("rag", "llm"), "edges are undirected")
	assert.Equal(t, 1, g.EdgeWeight("rag", "embedding"))
	assert.Equal(t, 0, g.EdgeWeight("llm", "agent"))
}

func TestTopicGraphIgnoresDuplicatePairMembers(t *testing.T) {
	g := NewTopicGraph()
	g.AddItem([]string{"llm", "llm"})

	assert.Equal(t, 2, g.MentionCount("llm"))
	assert.Equal(t, 0, g.EdgeWeight("llm", "llm"), "no self edges")
}

func TestNeighborsOrderedByWeight(t *testing.T) {
	g := NewTopicGraph()
	g.AddItem([]string{"llm", "rag"})
	g.AddItem([]string{"llm", "rag"})
	g.AddItem([]string{"llm", "agent"})

	assert.Equal(t, []string{"rag", "agent"}, g.Neighbors("llm"))
	assert.Empty(t, g.Neighbors("gguf"))
}

func TestTrending(t *testing.T) {
	g := NewTopicGraph()
	g.AddItem([]string{"llm", "rag"})
	g.AddItem([]string{"llm", "agent"})
	g.AddItem([]string{"rag"})

	trending := g.Trending(2)
	require.Len(t, trending, 2)

	assert.Equal(t, "llm", trending[0].Topic)
	assert.Equal(t, 2, trending[0].Count)
	assert.Equal(t, 2, trending[0].Connections)
	assert.ElementsMatch(t, []string{"rag", "agent"}, trending[0].Related)

	assert.Equal(t, "rag", trending[1].Topic)
}

func TestClusters(t *testing.T) {
	g := NewTopicGraph()
	g.AddItem([]string{"llm", "rag"})

	clusters := g.Clusters()
	assert.Equal(t, []string{"rag"}, clusters["llm"])
	assert.Equal(t, []string{"llm"}, clusters["rag"])
}

func TestMergeTopicGraphs(t *testing.T) {
	a := NewTopicGraph()
	a.AddItem([]string{"llm", "rag"})

	b := NewTopicGraph()
	b.AddItem([]string{"llm", "rag"})
	b.AddItem([]string{"agent"})

	MergeTopicGraphs(a, b)

	assert.Equal(t, 2, a.MentionCount("llm"))
	assert.Equal(t, 2, a.EdgeWeight("llm", "rag"))
	assert.Equal(t, 1, a.MentionCount("agent"))
}

func TestCommunityGraphSharedAuthors(t *testing.T) {
	g := NewCommunityGraph()
	g.AddAuthor([]string{"LocalLLaMA", "MachineLearning"})
	g.AddAuthor([]string{"LocalLLaMA", "MachineLearning", "artificial"})
	g.AddAuthor([]string{"singleton"})

	rels := g.Relationships()
	require.Len(t, rels, 3)

	assert.Equal(t, Relationship{
		CommunityA:    "LocalLLaMA",
		CommunityB:    "MachineLearning",
		SharedAuthors: 2,
	}, rels[0])

	for _, r := range rels[1:] {
		assert.Equal(t, 1, r.SharedAuthors)
	}
}
