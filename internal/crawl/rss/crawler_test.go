package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/process/dedup"
)

func feedXML(items string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>AI Blog</title>%s</channel></rss>`, items)
}

func itemXML(title, link string, published time.Time) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description>notes</description><pubDate>%s</pubDate></item>`,
		title, link, published.Format(time.RFC1123Z))
}

func newTestCrawler(feeds ...string) (*Crawler, *graph.TopicGraph) {
	topics := graph.NewTopicGraph()
	logger := zerolog.Nop()

	return New(Config{Feeds: feeds, Lookback: 24 * time.Hour},
		dedup.NewSet(), topics, &logger), topics
}

func TestCrawlFiltersByVocabularyAndAge(t *testing.T) {
	now := time.Now()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedXML(
			itemXML("New LLM serving stack", "https://example.com/a", now.Add(-time.Hour))+
				itemXML("Gardening tips", "https://example.com/b", now.Add(-time.Hour))+
				itemXML("Old transformer post", "https://example.com/c", now.Add(-48*time.Hour)),
		))
	}))
	defer srv.Close()

	c, topics := newTestCrawler(srv.URL)

	signals, err := c.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.Equal(t, domain.SourceRSS, signals[0].Source)
	assert.Equal(t, "New LLM serving stack", signals[0].Title)
	assert.NoError(t, signals[0].Validate())
	assert.Positive(t, topics.MentionCount("llm"))
}

func TestCrawlDedupesAcrossFeeds(t *testing.T) {
	now := time.Now()
	body := feedXML(itemXML("Quantization deep dive", "https://example.com/q", now.Add(-time.Hour)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	c, _ := newTestCrawler(srv.URL, srv.URL)

	signals, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}

func TestCrawlSurvivesFeedFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	now := time.Now()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedXML(itemXML("Diffusion model update", "https://example.com/d", now.Add(-time.Hour))))
	}))
	defer good.Close()

	c, _ := newTestCrawler(bad.URL, good.URL)

	signals, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}
