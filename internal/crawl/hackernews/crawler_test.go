package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
)

func TestStoryType(t *testing.T) {
	assert.Equal(t, kindAskHN, storyType(algoliaHit{Title: "Ask HN: Best local LLM?"}))
	assert.Equal(t, kindShowHN, storyType(algoliaHit{Title: "Show HN: My RAG toolkit"}))
	assert.Equal(t, kindJob, storyType(algoliaHit{Title: "ML engineer wanted", Tags: []string{"job"}}))
	assert.Equal(t, kindStory, storyType(algoliaHit{Title: "GPT-5 released"}))
}

func TestStripHTML(t *testing.T) {
	in := `<p>I tried the new <i>quantization</i> flow.</p><p>It&#x27;s much faster.</p>`
	assert.Equal(t, "I tried the new quantization flow. It's much faster.", stripHTML(in))
	assert.Equal(t, "", stripHTML(""))
}

func newTestCrawler(t *testing.T, algolia, firebase string) (*Crawler, *graph.UserGraph, *graph.TopicGraph) {
	t.Helper()

	users := graph.NewUserGraph()
	topics := graph.NewTopicGraph()
	logger := zerolog.Nop()

	c := New(Config{
		MinPoints:       50,
		MaxStories:      10,
		IncludeComments: true,
	}, users, topics, &logger)
	c.algoliaURL = algolia
	c.firebaseURL = firebase

	return c, users, topics
}

func TestCrawlSearchAndComments(t *testing.T) {
	now := time.Now().Unix()

	firebase := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/item/100.json"):
			fmt.Fprintf(w, `{"id":100,"type":"story","by":"alice","kids":[200,300],"time":%d}`, now)
		case strings.Contains(r.URL.Path, "/item/200.json"):
			fmt.Fprintf(w, `{"id":200,"type":"comment","by":"bob","text":"<p>Solid benchmark</p>","parent":100,"kids":[400],"time":%d}`, now)
		case strings.Contains(r.URL.Path, "/item/300.json"):
			fmt.Fprint(w, `{"id":300,"type":"comment","deleted":true,"parent":100}`)
		case strings.Contains(r.URL.Path, "/item/400.json"):
			fmt.Fprintf(w, `{"id":400,"type":"comment","by":"carol","text":"Agreed","parent":200,"time":%d}`, now)
		default:
			fmt.Fprint(w, `null`)
		}
	}))
	defer firebase.Close()

	algolia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "story", r.URL.Query().Get("tags"))
		assert.Contains(t, r.URL.Query().Get("numericFilters"), "points>50")

		fmt.Fprintf(w, `{"hits":[
			{"objectID":"100","title":"New LLM inference engine","url":"https://example.com","author":"alice","points":120,"num_comments":2,"created_at_i":%d},
			{"objectID":"","title":"broken hit"}
		]}`, now)
	}))
	defer algolia.Close()

	c, users, topics := newTestCrawler(t, algolia.URL, firebase.URL)

	items, err := c.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, domain.SourceHN, item.Source)
	assert.Equal(t, kindStory, item.Kind)
	assert.Contains(t, item.Tags, "llm")
	assert.Equal(t, itemURLPrefix+"100", item.Permalink)

	// The deleted comment is dropped; the reply chain survives.
	require.Len(t, item.Thread, 1)
	assert.Equal(t, "bob", item.Thread[0].Author)
	assert.Equal(t, "Solid benchmark", item.Thread[0].Body)
	require.Len(t, item.Thread[0].Replies, 1)
	assert.Equal(t, "carol", item.Thread[0].Replies[0].Author)

	assert.Equal(t, 1, users.EdgeWeight("bob", "alice"))
	assert.Equal(t, 1, users.EdgeWeight("carol", "bob"))
	assert.Positive(t, topics.MentionCount("llm"))
}

func TestCrawlSearchFailure(t *testing.T) {
	algolia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer algolia.Close()

	c, _, _ := newTestCrawler(t, algolia.URL, algolia.URL)

	_, err := c.Crawl(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpectedStatus)
}
