// Package hackernews crawls AI/ML stories through the Algolia search
// API and walks their discussion trees through the Firebase item API.
package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
)

const (
	defaultAlgoliaURL  = "https://hn.algolia.com/api/v1"
	defaultFirebaseURL = "https://hacker-news.firebaseio.com/v0"

	defaultTimeout    = 30 * time.Second
	defaultLookback   = 24 * time.Hour
	defaultMaxStories = 50

	defaultCommentDepth   = 3
	defaultCommentTop     = 50
	defaultCommentReplies = 10

	// The OR-joined search query uses only the leading keywords; the
	// full vocabulary makes Algolia queries too long.
	searchKeywords = 10

	itemURLPrefix = "https://news.ycombinator.com/item?id="

	userAgent = "grumpiblogged-intelligence/2.0 (AI research aggregator)"

	typeComment = "comment"
)

var errUnexpectedStatus = errors.New("hackernews unexpected status")

// Config holds the story crawler settings.
type Config struct {
	MinPoints         int
	MaxStories        int
	Timeout           time.Duration
	Lookback          time.Duration
	IncludeComments   bool
	CommentMaxDepth   int
	CommentMaxTop     int
	CommentMaxReplies int
}

// Crawler searches stories via Algolia and fetches comment trees via
// Firebase. Graphs are session-scoped and shared with the other
// crawlers.
type Crawler struct {
	cfg        Config
	httpClient *http.Client
	users      *graph.UserGraph
	topics     *graph.TopicGraph
	logger     *zerolog.Logger

	// Overridable in tests.
	algoliaURL  string
	firebaseURL string
	now         func() time.Time
}

func New(cfg Config, users *graph.UserGraph, topics *graph.TopicGraph, logger *zerolog.Logger) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}

	if cfg.MaxStories <= 0 {
		cfg.MaxStories = defaultMaxStories
	}

	if cfg.CommentMaxDepth <= 0 {
		cfg.CommentMaxDepth = defaultCommentDepth
	}

	if cfg.CommentMaxTop <= 0 {
		cfg.CommentMaxTop = defaultCommentTop
	}

	if cfg.CommentMaxReplies <= 0 {
		cfg.CommentMaxReplies = defaultCommentReplies
	}

	return &Crawler{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		users:       users,
		topics:      topics,
		logger:      logger,
		algoliaURL:  defaultAlgoliaURL,
		firebaseURL: defaultFirebaseURL,
		now:         time.Now,
	}
}

// Crawl searches recent stories, optionally walks their discussion
// trees, and returns the top stories by engagement score.
func (c *Crawler) Crawl(ctx context.Context) ([]domain.RankedItem, error) {
	items, err := c.searchStories(ctx)
	if err != nil {
		observability.CrawlerFailures.WithLabelValues(string(domain.SourceHN)).Inc()

		return nil, fmt.Errorf("search stories: %w", err)
	}

	if c.cfg.IncludeComments {
		for i := range items {
			if ctx.Err() != nil {
				return items, fmt.Errorf("fetch comments: %w", ctx.Err())
			}

			c.attachThread(ctx, &items[i])
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].EngagementScore > items[j].EngagementScore
	})

	if len(items) > c.cfg.MaxStories {
		items = items[:c.cfg.MaxStories]
	}

	observability.SignalsGathered.WithLabelValues(string(domain.SourceHN)).Add(float64(len(items)))
	c.logger.Info().Int("items", len(items)).Msg("hackernews crawl complete")

	return items, nil
}

func (c *Crawler) searchStories(ctx context.Context) ([]domain.RankedItem, error) {
	keywords := domain.Keywords()
	if len(keywords) > searchKeywords {
		keywords = keywords[:searchKeywords]
	}

	cutoff := c.now().Add(-c.cfg.Lookback).Unix()

	params := url.Values{}
	params.Set("query", strings.Join(keywords, " OR "))
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("points>%d,created_at_i>%d", c.cfg.MinPoints, cutoff))
	// Over-fetch so the engagement sort has slack to choose from.
	params.Set("hitsPerPage", fmt.Sprintf("%d", c.cfg.MaxStories*2))

	body, err := c.get(ctx, c.algoliaURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp algoliaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]domain.RankedItem, 0, len(resp.Hits))

	for _, hit := range resp.Hits {
		if hit.ObjectID == "" || hit.Title == "" {
			continue
		}

		author := hit.Author
		if author == "" {
			author = "unknown"
		}

		item := domain.NewRankedItem(domain.RankedItem{
			ID:        hit.ObjectID,
			Source:    domain.SourceHN,
			Kind:      storyType(hit),
			Title:     hit.Title,
			Body:      hit.StoryText,
			URL:       hit.URL,
			Permalink: itemURLPrefix + hit.ObjectID,
			Author:    author,
			Score:     hit.Points,
			Comments:  hit.NumComments,
			CreatedAt: time.Unix(hit.CreatedAtI, 0).UTC(),
		}, c.now())

		c.users.AddPost(author, "", hit.Points)
		c.topics.AddItem(item.Tags)

		items = append(items, item)
	}

	return items, nil
}

// Story kinds derived from the title prefix or Algolia tags.
const (
	kindStory  = "story"
	kindAskHN  = "ask_hn"
	kindShowHN = "show_hn"
	kindJob    = "job"
)

func storyType(hit algoliaHit) string {
	title := strings.ToLower(hit.Title)

	switch {
	case strings.HasPrefix(title, "ask hn"):
		return kindAskHN
	case strings.HasPrefix(title, "show hn"):
		return kindShowHN
	}

	for _, tag := range hit.Tags {
		if tag == kindJob {
			return kindJob
		}
	}

	return kindStory
}

// attachThread fetches the comment tree for one story. Failures leave
// the story without a thread.
func (c *Crawler) attachThread(ctx context.Context, item *domain.RankedItem) {
	story, err := c.fetchItem(ctx, item.ID)
	if err != nil {
		c.logger.Debug().Err(err).Str("story", item.ID).Msg("story item fetch failed")

		return
	}

	kids := story.Kids
	if len(kids) > c.cfg.CommentMaxTop {
		kids = kids[:c.cfg.CommentMaxTop]
	}

	for _, kid := range kids {
		if comment := c.fetchComment(ctx, kid, item.Author, 0); comment != nil {
			item.Thread = append(item.Thread, comment)
		}
	}
}

// fetchComment recursively fetches one comment and its replies.
// parentAuthor is the user being replied to; depth counts from zero.
func (c *Crawler) fetchComment(ctx context.Context, id int64, parentAuthor string, depth int) *domain.Comment {
	if depth >= c.cfg.CommentMaxDepth {
		return nil
	}

	fi, err := c.fetchItem(ctx, fmt.Sprintf("%d", id))
	if err != nil || fi == nil || fi.Deleted || fi.Dead || fi.Type != typeComment {
		return nil
	}

	author := fi.By
	if author == "" {
		author = "unknown"
	}

	c.users.AddComment(author, parentAuthor, 0)

	comment := &domain.Comment{
		ID:        fmt.Sprintf("%d", fi.ID),
		Author:    author,
		Body:      stripHTML(fi.Text),
		CreatedAt: time.Unix(fi.Time, 0).UTC(),
		ParentID:  fmt.Sprintf("%d", fi.Parent),
		Depth:     depth,
	}

	kids := fi.Kids
	if len(kids) > c.cfg.CommentMaxReplies {
		kids = kids[:c.cfg.CommentMaxReplies]
	}

	for _, kid := range kids {
		if reply := c.fetchComment(ctx, kid, author, depth+1); reply != nil {
			comment.Replies = append(comment.Replies, reply)
		}
	}

	return comment
}

func (c *Crawler) fetchItem(ctx context.Context, id string) (*firebaseItem, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/item/%s.json", c.firebaseURL, id))
	if err != nil {
		return nil, err
	}

	// Firebase returns the literal null for unknown items.
	if string(body) == "null" {
		return nil, nil
	}

	var fi firebaseItem
	if err := json.Unmarshal(body, &fi); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}

	return &fi, nil
}

func (c *Crawler) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", errUnexpectedStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}
