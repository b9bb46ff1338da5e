// Package market fetches market intelligence for a candidate's skills.
//
// The server caches results for the requested number of hours. Asking for a
// zero hour cache is the only way to force fresh data.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// MaxSkills is how many skills a single request may carry.
	MaxSkills                 = 10
	DefaultCacheDurationHours = 1
	forceRefreshHours         = 0
)

// Fetcher performs the remote market intelligence call.
type Fetcher interface {
	FetchMarketIntelligence(ctx context.Context, req Request) (*Intelligence, error)
}

// Cache wraps a Fetcher with the cache duration policy. It performs no
// consent checks; callers decide whether market data may be requested.
type Cache struct {
	fetcher      Fetcher
	logger       *zap.Logger
	defaultHours int
	group        singleflight.Group
}

func NewCache(fetcher Fetcher, logger *zap.Logger, defaultHours int) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultHours <= 0 {
		defaultHours = DefaultCacheDurationHours
	}
	return &Cache{fetcher: fetcher, logger: logger, defaultHours: defaultHours}
}

var (
	ErrNoSkills  = errors.New("at least one skill is required")
	ErrEmptyData = errors.New("market intelligence response carries no data")
)

// FailedError reports a market response that came back with success set to
// false.
type FailedError struct {
	Detail string
}

func (e *FailedError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return "market intelligence failed"
	}
	return "market intelligence failed: " + e.Detail
}

// Fetch requests intelligence for skills with the given cache duration.
// Identical requests in flight at the same time share one remote call.
func (c *Cache) Fetch(ctx context.Context, skills []string, includeJobs bool, cacheDurationHours int) (*Intelligence, error) {
	if len(skills) == 0 {
		return nil, ErrNoSkills
	}
	if cacheDurationHours < 0 {
		cacheDurationHours = 0
	}

	req := Request{Skills: skills, IncludeJobs: includeJobs, CacheDurationHours: cacheDurationHours}
	key := fmt.Sprintf("%s|%t|%d", strings.Join(skills, "\x1f"), includeJobs, cacheDurationHours)

	// The shared call outlives any single caller; each caller stops waiting
	// when its own context ends. The HTTP client timeout bounds the call.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetcher.FetchMarketIntelligence(shared, req)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch market intelligence: %w", ctx.Err())
	}
	if res.Err != nil {
		return nil, fmt.Errorf("fetch market intelligence: %w", res.Err)
	}

	intel, _ := res.Val.(*Intelligence)
	if intel == nil {
		return nil, ErrEmptyData
	}
	if len(intel.Skipped) > 0 {
		c.logger.Warn("market intelligence partially decoded",
			zap.Int("skipped", len(intel.Skipped)),
			zap.Errors("errors", intel.Skipped),
		)
	}

	c.logger.Debug("market intelligence fetched",
		zap.Strings("skills", skills),
		zap.Bool("include_jobs", includeJobs),
		zap.Int("cache_duration_hours", cacheDurationHours),
		zap.Bool("shared", res.Shared),
		zap.Int("skills_analysed", len(intel.Skills())),
	)

	return intel, nil
}

// Load fetches with the default cache duration.
func (c *Cache) Load(ctx context.Context, skills []string, includeJobs bool) (*Intelligence, error) {
	return c.Fetch(ctx, skills, includeJobs, c.defaultHours)
}

// ForceRefresh bypasses the server cache.
func (c *Cache) ForceRefresh(ctx context.Context, skills []string, includeJobs bool) (*Intelligence, error) {
	return c.Fetch(ctx, skills, includeJobs, forceRefreshHours)
}

// TopSkills keeps the first n distinct, non-blank skill names. Anything past
// n is dropped.
func TopSkills(skills []string, n int) []string {
	seen := make(map[string]struct{}, len(skills))
	top := make([]string, 0, n)
	for _, skill := range skills {
		if len(top) >= n {
			break
		}
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		top = append(top, skill)
	}
	return top
}
