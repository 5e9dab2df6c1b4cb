package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/grumpiblogged/intelligence/internal/core/domain"
	"github.com/grumpiblogged/intelligence/internal/platform/config"
	"github.com/grumpiblogged/intelligence/internal/platform/observability"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	rateLimitBurst = 5

	narrativeTemperature = 0.8
)

var errEmptyResponse = errors.New("empty completion response")

type openaiClient struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

func newOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), rateLimitBurst),
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("circuit breaker is open until %v", c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures++

	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

// complete runs one chat completion through the rate limiter and
// circuit breaker.
func (c *openaiClient) complete(ctx context.Context, model, prompt string, maxTokens int, temperature float32) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})

	observability.LLMRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("openai chat completion error: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion error: %w", errEmptyResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *openaiClient) TrendInsight(ctx context.Context, trend domain.Trend) (string, error) {
	return c.complete(ctx, c.cfg.LLMModel, trendPrompt(trend), trendTokens, 0)
}

func (c *openaiClient) StorySynthesis(ctx context.Context, story domain.CrossPlatformStory) (string, error) {
	return c.complete(ctx, c.cfg.LLMCreativeModel, storyPrompt(story), storyTokens, 0)
}

func (c *openaiClient) Predict(ctx context.Context, trend domain.Trend) (string, error) {
	return c.complete(ctx, c.cfg.LLMModel, predictionPrompt(trend), predictionTokens, 0)
}

func (c *openaiClient) Narrative(ctx context.Context, in NarrativeInput) (string, error) {
	return c.complete(ctx, c.cfg.LLMCreativeModel, narrativePrompt(in), narrativeTokens, narrativeTemperature)
}

func (c *openaiClient) WebSearch(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(
		"Report the most recent developments for the following topic as short factual bullet points, one per line:\n\n%s",
		query)

	return c.complete(ctx, c.cfg.LLMModel, prompt, webSearchTokens, 0)
}
