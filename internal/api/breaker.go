package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MinRequests:      5,
		FailureRatio:     0.6,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

func (c BreakerConfig) normalize() BreakerConfig {
	out := c
	def := DefaultBreakerConfig()

	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxCalls == 0 {
		out.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}

	return out
}

// breakers keeps one circuit breaker per API operation so a failing
// endpoint does not block the others.
type breakers struct {
	cfg    BreakerConfig
	logger *zap.Logger

	mu sync.Mutex
	m  map[string]*gobreaker.CircuitBreaker[any]
}

func newBreakers(cfg BreakerConfig, logger *zap.Logger) *breakers {
	return &breakers{
		cfg:    cfg.normalize(),
		logger: logger,
		m:      make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (b *breakers) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !b.cfg.Enabled {
		return fn(ctx)
	}

	_, err := b.get(operation).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (b *breakers) get(operation string) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, ok := b.m[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.HalfOpenMaxCalls,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	b.m[operation] = breaker
	return breaker
}

// countsAsFailure decides whether an error says something about the health
// of the backend. Client mistakes and cancellations do not.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	return true
}

// IsCircuitOpen reports whether err came from an open or saturated breaker
// rather than from the server.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
