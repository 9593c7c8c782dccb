// Package spoonacular is a client for the Spoonacular recipe API. Failed
// requests never surface as errors to callers: they are logged and treated
// as empty results.
package spoonacular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pbaille/pantry/internal/resolver"
)

// DefaultBaseURL is the public API host
const DefaultBaseURL = "https://api.spoonacular.com"

// Request outcomes passed to a Recorder
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status"
	OutcomeTransport = "transport"
)

// Config holds connection settings and result sizes
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int

	// Number is the result size for ingredient search
	Number int
	// RandomNumber is the result size for diet/random search
	RandomNumber int
	// SimilarNumber is the result size for similar-recipe lookup
	SimilarNumber int
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       10 * time.Second,
		RatePerSecond: 1,
		Burst:         5,
		Number:        30,
		RandomNumber:  15,
		SimilarNumber: 5,
	}
}

// Recorder receives one call per HTTP request and one per finished ladder
type Recorder interface {
	ObserveRequest(endpoint, step, outcome string, d time.Duration)
	ObserveLadder(ladder, step string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, string, time.Duration) {}
func (nopRecorder) ObserveLadder(string, string)                         {}

// StatusError is a non-200 response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Code, e.Body)
}

// Client talks to the recipe API
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	cfg       Config
	log       *zap.Logger
	rec       Recorder
	corrector *resolver.Resolver
}

// Option configures a Client
type Option func(*Client)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.rec = r }
}

// WithCorrector replaces the resolver used by the substitute ladder
func WithCorrector(r *resolver.Resolver) Option {
	return func(c *Client) { c.corrector = r }
}

// New creates a Client. A non-positive RatePerSecond disables rate limiting.
func New(cfg Config, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := max(cfg.Burst, 1)

	c := &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "pantry/1.0"),
		limiter:   rate.NewLimiter(limit, burst),
		cfg:       cfg,
		log:       log,
		rec:       nopRecorder{},
		corrector: resolver.New(resolver.CommonVocabulary, resolver.DefaultThreshold),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues one GET and decodes a 200 body into out. Errors are either a
// *StatusError or a transport failure.
func (c *Client) get(ctx context.Context, endpoint, step, path string, params map[string]string, out any) error {
	start := time.Now()
	err := c.do(ctx, path, params, out)

	outcome := OutcomeOK
	var se *StatusError
	switch {
	case errors.As(err, &se):
		outcome = OutcomeStatus
	case err != nil:
		outcome = OutcomeTransport
	}
	c.rec.ObserveRequest(endpoint, step, outcome, time.Since(start))

	if err != nil {
		c.log.Debug("api request failed",
			zap.String("endpoint", endpoint),
			zap.String("step", step),
			zap.Any("params", params),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	query := maps.Clone(params)
	if query == nil {
		query = map[string]string{}
	}
	query["apiKey"] = c.cfg.APIKey

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return &StatusError{Code: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
