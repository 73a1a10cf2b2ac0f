// Package gateway implements the external reasoning oracle boundary.
//
// The package sends the evidence context assembled by the analysis engine
// to a hosted language model and parses the structured judgment it
// returns. Providers (OpenAI, Anthropic) are abstracted behind a small
// CoreModel interface so cross-cutting concerns such as timeouts,
// retries, rate limiting and tracing compose as middleware without
// touching provider logic.
//
// Basic usage:
//
//	gw, err := gateway.New(gateway.Config{
//	    Provider: "anthropic",
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	resp, err := gw.Analyze(ctx, req)
//
// Every failure mode (transport error, timeout, malformed output) is
// surfaced as an error; the caller substitutes its local fallback.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-sentinel/internal/domain"
	"github.com/ahrav/go-sentinel/internal/ports"
)

// Default operational settings for the oracle boundary.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 8 * time.Second
	DefaultRequestRate    = rate.Limit(2)
	DefaultRequestBurst   = 4
	DefaultMaxTokens      = 1024
	DefaultTemperature    = 0.2
)

// CoreModel is the minimal surface a provider must implement. The
// middleware chain wraps any conforming implementation.
type CoreModel interface {
	// Complete sends a prompt to the model and returns the raw text
	// response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Model returns the configured model identifier.
	Model() string
}

// Middleware wraps a CoreModel to add cross-cutting behavior such as
// timeouts, retries or tracing.
type Middleware func(CoreModel) CoreModel

// Config holds the settings for building a gateway client.
type Config struct {
	// Provider selects the registered provider implementation.
	Provider string `yaml:"provider" validate:"required"`

	// APIKey authenticates requests to the provider.
	APIKey string `yaml:"api_key" validate:"required"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each individual oracle call.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries, RetryBaseDelay and RetryMaxDelay shape the retry
	// policy for transient failures.
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`

	// RequestRate and RequestBurst pace outbound calls.
	RequestRate  rate.Limit `yaml:"request_rate"`
	RequestBurst int        `yaml:"request_burst"`

	// Temperature and MaxTokens are passed through to the model.
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// Middleware replaces the default chain when non-nil.
	Middleware []Middleware `yaml:"-"`
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if c.RequestRate <= 0 {
		c.RequestRate = DefaultRequestRate
	}
	if c.RequestBurst <= 0 {
		c.RequestBurst = DefaultRequestBurst
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// ProviderFactory creates a CoreModel from configuration.
type ProviderFactory func(Config) (CoreModel, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider under a name. Providers
// call this from init; applications may add custom providers the same
// way.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Client turns a provider CoreModel into a ports.ReasoningGateway: it
// renders the evidence context as a prompt, calls the model through the
// middleware chain, and parses the structured judgment out of the reply.
type Client struct {
	core     CoreModel
	validate *validator.Validate
}

var _ ports.ReasoningGateway = (*Client)(nil)

// New builds a gateway client for the configured provider with the
// middleware chain applied. A nil Middleware slice selects the default
// chain of tracing, rate limiting, retry and timeout.
func New(config Config) (*Client, error) {
	config = config.withDefaults()

	if config.APIKey == "" {
		return nil, fmt.Errorf("gateway: %w", ErrEmptyAPIKey)
	}

	factory, ok := providerFactories[config.Provider]
	if !ok {
		return nil, fmt.Errorf("gateway: unknown provider %q", config.Provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("gateway: creating %s provider: %w", config.Provider, err)
	}

	chain := config.Middleware
	if chain == nil {
		chain = []Middleware{
			TracingMiddleware("reasoning-gateway"),
			RateLimitMiddleware(config.RequestRate, config.RequestBurst),
			RetryMiddleware(config.MaxRetries, config.RetryBaseDelay, config.RetryMaxDelay),
			TimeoutMiddleware(config.Timeout),
		}
	}
	// Apply in reverse order so the first middleware is the outermost.
	for i := len(chain) - 1; i >= 0; i-- {
		core = chain[i](core)
	}

	return NewClient(core), nil
}

// NewClient wraps an already-assembled CoreModel. Tests use this to
// inject a mock without a provider or middleware.
func NewClient(core CoreModel) *Client {
	return &Client{core: core, validate: validator.New()}
}

// Analyze sends one criterion's evidence context to the model and parses
// its judgment. Output that is not valid JSON or violates the response
// contract is reported as domain.ErrMalformedResponse so callers treat
// it exactly like a transport failure.
func (c *Client) Analyze(ctx context.Context, req domain.ReasoningRequest) (domain.ReasoningResponse, error) {
	prompt := RenderPrompt(req)

	raw, err := c.core.Complete(ctx, prompt)
	if err != nil {
		return domain.ReasoningResponse{}, err
	}

	jsonStr := ExtractJSON(raw)
	if jsonStr == "" {
		return domain.ReasoningResponse{}, fmt.Errorf(
			"%w: no JSON object in model output (%d chars)", domain.ErrMalformedResponse, len(raw))
	}

	var resp domain.ReasoningResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return domain.ReasoningResponse{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	if err := c.validate.Struct(resp); err != nil {
		return domain.ReasoningResponse{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return resp, nil
}

// Model returns the underlying model identifier, for diagnostics.
func (c *Client) Model() string { return c.core.Model() }
