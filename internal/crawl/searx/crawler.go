// Package searx crawls redundant metasearch mirrors with health-aware
// instance selection, retry with exponential backoff, and result
// enrichment (platform detection, engagement extraction, dedup).
package searx

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
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
	"github.com/grumpiblogged/intelligence/internal/platform/worker"
	"github.com/grumpiblogged/intelligence/internal/process/dedup"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRequestGap  = 2 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = 1 * time.Second

	searchPath        = "/search"
	responseFormat    = "json"
	attemptsPerMirror = 2

	userAgent = "grumpiblogged-intelligence/2.0 (AI research aggregator)"

	logKeyInstance = "instance"
	logKeyQuery    = "query"
	logKeyAttempt  = "attempt"
)

var errUnexpectedStatus = errors.New("searx unexpected status")

// Result is one enriched search result.
type Result struct {
	Title       string
	URL         string
	Content     string
	Platform    domain.Source
	Engine      string
	PublishedAt time.Time
	Metrics     domain.Engagement
	Score       float64
}

// Signal converts a result to its normalized form.
func (r Result) Signal() domain.Signal {
	source := r.Platform
	if source == domain.SourceUnknown {
		source = domain.SourceSearch
	}

	createdAt := r.PublishedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return domain.Signal{
		Source:    source,
		Title:     r.Title,
		URL:       r.URL,
		Content:   r.Content,
		Metrics:   r.Metrics,
		CreatedAt: createdAt,
	}
}

// Config holds the search crawler settings.
type Config struct {
	Instances   []string
	Timeout     time.Duration
	RequestGap  time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// Crawler queries a pool of metasearch mirrors. The dedup seen-set is
// session-scoped and shared with the rest of the crawl (owned by the
// orchestrator, passed in).
type Crawler struct {
	pool        *Pool
	httpClient  *http.Client
	seen        *dedup.Set
	requestGap  time.Duration
	maxRetries  int
	backoffBase time.Duration
	logger      *zerolog.Logger
}

func New(cfg Config, seen *dedup.Set, logger *zerolog.Logger) *Crawler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	gap := cfg.RequestGap
	if gap <= 0 {
		gap = defaultRequestGap
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	base := cfg.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}

	return &Crawler{
		pool:        NewPool(cfg.Instances),
		httpClient:  &http.Client{Timeout: timeout},
		seen:        seen,
		requestGap:  gap,
		maxRetries:  retries,
		backoffBase: base,
		logger:      logger,
	}
}

// Pool exposes the instance pool for health reporting.
func (c *Crawler) Pool() *Pool {
	return c.pool
}

// Search queries across instances until maxResults unique results are
// gathered or attempts (2x instance count) are exhausted. Individual
// instance failures are logged and penalized, never surfaced: the
// accumulated (possibly empty) result list is always returned.
func (c *Crawler) Search(ctx context.Context, query string, categories []string, timeRange string, maxResults int, engines []string) []Result {
	if len(categories) == 0 {
		categories = []string{"social media", "news", "general"}
	}

	var all []Result

	maxAttempts := c.pool.Size() * attemptsPerMirror

	for attempts := 0; len(all) < maxResults && attempts < maxAttempts; attempts++ {
		if ctx.Err() != nil {
			break
		}

		inst := c.pool.Select()
		if inst == nil {
			break
		}

		results, err := c.searchInstance(ctx, inst, query, categories, timeRange, engines)
		if err != nil {
			c.logger.Warn().Err(err).
				Str(logKeyInstance, inst.URL).
				Str(logKeyQuery, query).
				Msg("search instance failed")

			continue
		}

		for _, r := range results {
			fp := dedup.Fingerprint(r.URL, r.Title, r.Content)
			if !c.seen.Add(fp) {
				observability.SignalsDeduplicated.Inc()
				continue
			}

			all = append(all, r)
		}
	}

	// Most relevant and most recent first.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}

		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	if len(all) > maxResults {
		all = all[:maxResults]
	}

	return all
}

// searchInstance executes one search against a specific instance with
// retry and exponential backoff (1s, 2s, 4s). A fixed delay precedes
// every request regardless of outcome, to respect upstream rate limits.
func (c *Crawler) searchInstance(ctx context.Context, inst *Instance, query string, categories []string, timeRange string, engines []string) ([]Result, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase << (attempt - 1)

			c.logger.Debug().
				Str(logKeyInstance, inst.URL).
				Int(logKeyAttempt, attempt).
				Dur("backoff", backoff).
				Msg("retrying search instance")

			if err := worker.Wait(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := worker.Wait(ctx, c.requestGap); err != nil {
			return nil, err
		}

		results, err := c.doRequest(ctx, inst, query, categories, timeRange, engines)
		if err == nil {
			return results, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

func (c *Crawler) doRequest(ctx context.Context, inst *Instance, query string, categories []string, timeRange string, engines []string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", responseFormat)
	params.Set("time_range", timeRange)
	params.Set("categories", strings.Join(categories, ","))

	if len(engines) > 0 {
		params.Set("engines", strings.Join(engines, ","))
	}

	reqURL := strings.TrimSuffix(inst.URL, "/") + searchPath + "?" + params.Encode()

	start := time.Now()

	body, err := c.get(ctx, reqURL)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}

	c.pool.Report(inst, err == nil, elapsed)
	observability.SearchRequestDuration.WithLabelValues(inst.URL, status).Observe(elapsed.Seconds())
	observability.InstanceHealth.WithLabelValues(inst.URL).Set(inst.HealthScore)

	if err != nil {
		return nil, err
	}

	return parseResults(body)
}

func (c *Crawler) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	return body, nil
}

type searchResponse struct {
	Results []rawResult `json:"results"`
}

type rawResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"` //nolint:tagliatelle // upstream API uses camelCase
	Engine        string  `json:"engine"`
	Score         float64 `json:"score"`
}

// parseResults enriches raw rows. A malformed body is an error for the
// whole response; a malformed row is simply dropped.
func parseResults(body []byte) ([]Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search json: %w", err)
	}

	results := make([]Result, 0, len(resp.Results))

	for _, raw := range resp.Results {
		if raw.URL == "" && raw.Title == "" {
			continue
		}

		results = append(results, Result{
			Title:       raw.Title,
			URL:         raw.URL,
			Content:     raw.Content,
			Platform:    DetectPlatform(raw.URL),
			Engine:      raw.Engine,
			PublishedAt: ParseDate(raw.PublishedDate),
			Metrics:     ExtractEngagement(raw.Content),
			Score:       raw.Score,
		})
	}

	return results, nil
}
