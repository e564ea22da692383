package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultHTTPTimeout = 60 * time.Second

// Provider names accepted by NewClient.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	Provider          string
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	Temperature       float64
	RequestsPerMinute int
}

// DefaultHTTPTimeout returns the default timeout used for LLM requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// ChatRequest is a single system+user exchange.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
	JSON        bool
}

// Backend performs one chat completion against a concrete provider.
type Backend interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	// Ping verifies credentials without generating text.
	Ping(ctx context.Context) error
}

// Client issues rate-limited chat completions. Requests are never retried.
type Client struct {
	backend     Backend
	limiter     *rate.Limiter
	temperature float64
	httpClient  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBackend replaces the provider backend.
func WithBackend(backend Backend) Option {
	return func(c *Client) {
		if backend != nil {
			c.backend = backend
		}
	}
}

// WithLimiter overrides the request limiter. A nil limiter disables limiting.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = normalizeConfig(cfg)
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.backend != nil {
		return client, nil
	}

	if cfg.APIKey == "" {
		return nil, errors.New("llm client: api key required")
	}
	switch cfg.Provider {
	case ProviderOpenRouter:
		client.backend = newHTTPBackend(cfg, client.httpClient)
	case ProviderOpenAI, "":
		client.backend = newOpenAIBackend(cfg, client.httpClient)
	default:
		return nil, fmt.Errorf("llm client: unsupported provider %q", cfg.Provider)
	}
	return client, nil
}

func normalizeConfig(cfg Config) Config {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	return cfg
}

// WithTemperature returns a client sharing the backend and limiter that
// samples at the given temperature.
func (c *Client) WithTemperature(temperature float64) *Client {
	clone := *c
	clone.temperature = temperature
	return &clone
}

// Temperature reports the sampling temperature used by Complete.
func (c *Client) Temperature() float64 {
	return c.temperature
}

// Complete sends the prompts and returns the model's text reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, "llm complete", systemPrompt, userPrompt, false)
}

// CompleteJSON issues a JSON-only chat completion request with the supplied prompts.
// It returns the raw JSON payload produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, "llm complete json", systemPrompt, userPrompt, true)
}

func (c *Client) chat(ctx context.Context, op, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", fmt.Errorf("%s: user prompt required", op)
	}
	if err := c.wait(ctx); err != nil {
		return "", fmt.Errorf("%s: rate limit: %w", op, err)
	}
	content, err := c.backend.Chat(ctx, ChatRequest{
		System:      systemPrompt,
		User:        userPrompt,
		Temperature: c.temperature,
		JSON:        jsonMode,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return content, nil
}

// HealthCheck verifies the API key against the provider's model listing.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
