// Package api is the HTTP client for the candidate analysis backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultUserAgent = "resume-radar/dev"
	DefaultTimeout   = 120 * time.Second
)

// ErrRateLimited is returned when the client-side limiter refuses a call
// before it reaches the server.
var ErrRateLimited = errors.New("request rate limited")

type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is the sustained number of requests per second. Zero
	// disables limiting.
	RateLimit float64
	RateBurst int
	Breaker   BreakerConfig
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string

	limiter  *rate.Limiter
	breakers *breakers
}

func New(logger *zap.Logger, cfg Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		APIURL:    baseURL,
		limiter:   limiter,
		breakers:  newBreakers(cfg.Breaker, logger),
	}
}

// Authenticated reports whether a bearer token is configured.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// call runs one guarded operation: rate limiting first, then the per
// operation circuit breaker. Nothing is retried.
func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w: %v", operation, ErrRateLimited, err)
		}
	}

	return c.breakers.execute(ctx, operation, fn)
}

func (c *Client) url(path string) string {
	return c.APIURL + path
}
