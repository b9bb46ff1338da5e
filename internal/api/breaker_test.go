package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, Config{Breaker: BreakerConfig{
		Enabled:      true,
		MinRequests:  2,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	}})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.Health(ctx); err == nil {
			t.Fatalf("expected server error")
		}
	}

	_, err := client.Health(ctx)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected open circuit to stop requests, got %d hits", hits.Load())
	}

	// Other operations keep their own breaker.
	if _, err := client.GetConsent(ctx, "market_analysis"); IsCircuitOpen(err) {
		t.Fatalf("expected consent breaker to stay closed")
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, Config{Breaker: BreakerConfig{Enabled: true, MinRequests: 1, FailureRatio: 0.1, OpenTimeout: time.Minute}})

	for i := 0; i < 5; i++ {
		_, err := client.Health(context.Background())
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected status error on call %d, got %v", i, err)
		}
	}
	if hits.Load() != 5 {
		t.Fatalf("expected every request to reach the server, got %d", hits.Load())
	}
}

func TestCountsAsFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{&StatusError{StatusCode: http.StatusBadRequest}, false},
		{&StatusError{StatusCode: http.StatusUnauthorized}, false},
		{&StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{&StatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		if got := countsAsFailure(tt.err); got != tt.want {
			t.Errorf("countsAsFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
