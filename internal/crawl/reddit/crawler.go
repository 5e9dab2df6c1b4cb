// Package reddit crawls subreddit listings and discussion trees via
// the public JSON endpoints, feeding the session interaction graphs.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/graph"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
)

const (
	defaultBaseURL = "https://www.reddit.com"

	defaultTimeout     = 30 * time.Second
	defaultMinInterval = 2 * time.Second
	defaultLookback    = 24 * time.Hour

	defaultMaxPostsPerSub = 50
	defaultCommentDepth   = 3
	defaultCommentTop     = 50
	defaultCommentReplies = 10

	listingLimit = 100

	userAgent = "grumpiblogged-intelligence/2.0 (AI research aggregator)"

	logKeySubreddit = "subreddit"
	logKeyListing   = "listing"
)

var listings = []string{"hot", "new", "top"}

var errUnexpectedStatus = errors.New("reddit unexpected status")

// Config holds the subreddit crawler settings.
type Config struct {
	Subreddits        []string
	Timeout           time.Duration
	MinInterval       time.Duration
	MinScore          int
	MaxPostsPerSub    int
	Lookback          time.Duration
	IncludeComments   bool
	CommentMaxDepth   int
	CommentMaxTop     int
	CommentMaxReplies int
}

// Crawler fetches subreddit listings and comment trees. The graphs are
// session-scoped and shared with the other crawlers (owned by the
// orchestrator, passed in).
type Crawler struct {
	cfg         Config
	httpClient  *http.Client
	limiter     *rate.Limiter
	users       *graph.UserGraph
	topics      *graph.TopicGraph
	communities *graph.CommunityGraph
	logger      *zerolog.Logger

	// Overridable in tests.
	baseURL string
	now     func() time.Time
}

func New(
	cfg Config,
	users *graph.UserGraph,
	topics *graph.TopicGraph,
	communities *graph.CommunityGraph,
	logger *zerolog.Logger,
) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}

	if cfg.MaxPostsPerSub <= 0 {
		cfg.MaxPostsPerSub = defaultMaxPostsPerSub
	}

	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
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
		limiter:     rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		users:       users,
		topics:      topics,
		communities: communities,
		logger:      logger,
		baseURL:     defaultBaseURL,
		now:         time.Now,
	}
}

// Crawl fetches every configured subreddit and returns the kept items
// sorted by engagement score. Per-subreddit failures are logged and
// skipped; only context cancellation aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context) ([]domain.RankedItem, error) {
	var items []domain.RankedItem

	// Distinct subreddits seen per author, flushed into the community
	// graph once the whole crawl is done.
	authorSubs := make(map[string]map[string]struct{})

	for _, sub := range c.cfg.Subreddits {
		subItems, err := c.crawlSubreddit(ctx, sub)
		if err != nil {
			if ctx.Err() != nil {
				return items, fmt.Errorf("crawl subreddit %s: %w", sub, err)
			}

			observability.CrawlerFailures.WithLabelValues(string(domain.SourceReddit)).Inc()
			c.logger.Warn().Err(err).Str(logKeySubreddit, sub).Msg("subreddit crawl failed")

			continue
		}

		for i := range subItems {
			item := &subItems[i]

			c.users.AddPost(item.Author, item.Community, item.Score)
			c.topics.AddItem(item.Tags)
			c.recordAuthor(authorSubs, item.Author, item.Community)

			if c.cfg.IncludeComments {
				c.attachThread(ctx, item, authorSubs)
			}
		}

		items = append(items, subItems...)
	}

	for _, subs := range authorSubs {
		names := make([]string, 0, len(subs))
		for s := range subs {
			names = append(names, s)
		}

		sort.Strings(names)
		c.communities.AddAuthor(names)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].EngagementScore > items[j].EngagementScore
	})

	observability.SignalsGathered.WithLabelValues(string(domain.SourceReddit)).Add(float64(len(items)))
	c.logger.Info().Int("items", len(items)).Msg("reddit crawl complete")

	return items, nil
}

// crawlSubreddit merges hot, new and top listings, dedupes by post ID,
// filters by score and age, and keeps the top items by engagement.
func (c *Crawler) crawlSubreddit(ctx context.Context, sub string) ([]domain.RankedItem, error) {
	cutoff := c.now().Add(-c.cfg.Lookback)
	seen := make(map[string]struct{})

	var items []domain.RankedItem

	for _, listing := range listings {
		posts, err := c.fetchListing(ctx, sub, listing)
		if err != nil {
			if ctx.Err() != nil {
				return items, err
			}

			c.logger.Debug().Err(err).
				Str(logKeySubreddit, sub).
				Str(logKeyListing, listing).
				Msg("listing fetch failed")

			continue
		}

		for _, p := range posts {
			if _, dup := seen[p.ID]; dup {
				continue
			}

			seen[p.ID] = struct{}{}

			created := time.Unix(int64(p.CreatedUTC), 0).UTC()
			if p.Score < c.cfg.MinScore || created.Before(cutoff) {
				continue
			}

			items = append(items, domain.NewRankedItem(domain.RankedItem{
				ID:        p.ID,
				Source:    domain.SourceReddit,
				Community: p.Subreddit,
				Title:     p.Title,
				Body:      p.Selftext,
				URL:       p.URL,
				Permalink: c.baseURL + p.Permalink,
				Author:    p.Author,
				Score:     p.Score,
				Comments:  p.NumComments,
				CreatedAt: created,
			}, c.now()))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].EngagementScore > items[j].EngagementScore
	})

	if len(items) > c.cfg.MaxPostsPerSub {
		items = items[:c.cfg.MaxPostsPerSub]
	}

	return items, nil
}

func (c *Crawler) fetchListing(ctx context.Context, sub, listing string) ([]postData, error) {
	url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", c.baseURL, sub, listing, listingLimit)
	if listing == "top" {
		url += "&t=day"
	}

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	posts := make([]postData, 0, len(envelope.Data.Children))

	for _, child := range envelope.Data.Children {
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil {
			continue
		}

		if p.ID == "" || p.Title == "" {
			continue
		}

		posts = append(posts, p)
	}

	return posts, nil
}

// attachThread fetches the discussion tree for one post and records the
// commenter→author interactions. Failures leave the item without a
// thread; the post itself is already kept.
func (c *Crawler) attachThread(ctx context.Context, item *domain.RankedItem, authorSubs map[string]map[string]struct{}) {
	url := fmt.Sprintf("%s.json?limit=%d&depth=%d&raw_json=1",
		item.Permalink, c.cfg.CommentMaxTop, c.cfg.CommentMaxDepth)

	body, err := c.get(ctx, url)
	if err != nil {
		c.logger.Debug().Err(err).Str("post", item.ID).Msg("thread fetch failed")

		return
	}

	// The endpoint returns a two-element array: the post listing and
	// the comment listing.
	var pages []listingEnvelope
	if err := json.Unmarshal(body, &pages); err != nil || len(pages) < 2 {
		return
	}

	item.Thread = c.parseComments(pages[1].Data.Children, item.Author, item.Community, 0, c.cfg.CommentMaxTop, authorSubs)
}

// parseComments walks one level of the tree. parentAuthor is the user
// being replied to at this level; depth counts from zero at the top.
func (c *Crawler) parseComments(
	children []thing,
	parentAuthor, community string,
	depth, limit int,
	authorSubs map[string]map[string]struct{},
) []*domain.Comment {
	if depth >= c.cfg.CommentMaxDepth {
		return nil
	}

	var out []*domain.Comment

	for _, child := range children {
		if len(out) >= limit {
			break
		}

		if child.Kind != kindComment {
			continue
		}

		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			continue
		}

		if cd.Author == "" || cd.Author == deletedAuthor || cd.Author == removedAuthor ||
			cd.Body == deletedAuthor || cd.Body == removedAuthor {
			continue
		}

		c.users.AddComment(cd.Author, parentAuthor, cd.Score)
		c.recordAuthor(authorSubs, cd.Author, community)

		comment := &domain.Comment{
			ID:        cd.ID,
			Author:    cd.Author,
			Body:      cd.Body,
			Score:     cd.Score,
			CreatedAt: time.Unix(int64(cd.CreatedUTC), 0).UTC(),
			ParentID:  cd.ParentID,
			Depth:     depth,
		}

		if len(cd.Replies) > 0 && cd.Replies[0] == '{' {
			var nested listingEnvelope
			if err := json.Unmarshal(cd.Replies, &nested); err == nil {
				comment.Replies = c.parseComments(
					nested.Data.Children, cd.Author, community,
					depth+1, c.cfg.CommentMaxReplies, authorSubs)
			}
		}

		out = append(out, comment)
	}

	return out
}

func (c *Crawler) recordAuthor(authorSubs map[string]map[string]struct{}, author, community string) {
	if author == "" || author == deletedAuthor || author == removedAuthor || community == "" {
		return
	}

	subs, ok := authorSubs[author]
	if !ok {
		subs = make(map[string]struct{})
		authorSubs[author] = subs
	}

	subs[community] = struct{}{}
}

func (c *Crawler) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("%w: %d from %s", errUnexpectedStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}
