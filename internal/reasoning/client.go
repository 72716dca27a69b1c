// Package reasoning wraps the external text-reasoning service: response
// caching, a daily call budget, and cancellable exponential back-off. The
// control loop treats every failure here as survivable — the deterministic
// fallback engine covers for it.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/internal/metrics"
)

// ErrBudgetExhausted is returned once the daily call ceiling is reached.
// Callers route to the fallback engine without attempting network I/O.
var ErrBudgetExhausted = errors.New("reasoning call budget exhausted")

const (
	defaultMaxRetries  = 3
	defaultBackoffBase = 5 * time.Second
	defaultBackoffCap  = 30 * time.Second
)

// ChatModel is the slice of the eino model interface the client needs.
type ChatModel interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client is the reasoning-service client. The cache and call counter are
// shared across concurrent Ask calls and guarded by mu; everything else is
// immutable after construction.
type Client struct {
	model       ChatModel
	cache       *responseCache
	callTimeout time.Duration

	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration

	mu     sync.Mutex
	calls  int
	budget int
}

// NewClient wraps an already-constructed chat model.
func NewClient(m ChatModel, cacheTTL, callTimeout time.Duration, dailyBudget int) *Client {
	if callTimeout <= 0 {
		callTimeout = 45 * time.Second
	}
	return &Client{
		model:       m,
		cache:       newResponseCache(cacheTTL),
		callTimeout: callTimeout,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		budget:      dailyBudget,
	}
}

// NewClientFromConfig builds the provider-specific chat model and wraps it.
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	m, err := buildModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(m, cfg.CacheTTL(), cfg.CallTimeout(), cfg.DailyCallBudget), nil
}

func buildModel(ctx context.Context, cfg *config.Config) (ChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek", "":
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.MaxTokens,
		})
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		maxTokens := cfg.MaxTokens
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: &maxTokens,
		})
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
}

// Ask returns the raw reasoning text for the request. A cache hit
// short-circuits the network entirely; a budget breach fails fast.
func (c *Client) Ask(ctx context.Context, req *Request) (string, error) {
	key := req.Fingerprint()

	if text, ok := c.cache.get(key); ok {
		metrics.ReasoningCacheHits.Inc()
		return text, nil
	}

	c.mu.Lock()
	if c.budget > 0 && c.calls >= c.budget {
		c.mu.Unlock()
		metrics.ReasoningCalls.WithLabelValues("budget").Inc()
		return "", ErrBudgetExhausted
	}
	c.calls++
	c.mu.Unlock()

	messages := req.Messages()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return "", err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		msg, err := c.model.Generate(callCtx, messages)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			log.Printf("[WARN] reasoning call failed (attempt %d/%d): %v", attempt+1, c.maxRetries+1, err)
			continue
		}

		c.cache.set(key, msg.Content)
		metrics.ReasoningCalls.WithLabelValues("ok").Inc()
		return msg.Content, nil
	}

	metrics.ReasoningCalls.WithLabelValues("error").Inc()
	return "", fmt.Errorf("reasoning retries exhausted: %w", lastErr)
}

// sleepBackoff waits out the exponential delay for the given attempt and
// returns early if the context is cancelled, so Pause/Stop are never
// delayed by an in-flight retry.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase << (attempt - 1)
	if delay > c.backoffCap {
		delay = c.backoffCap
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CallCount reports how many network calls have been attempted today.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// ResetBudget zeroes the daily call counter at the session roll-over.
func (c *Client) ResetBudget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
