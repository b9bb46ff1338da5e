// Package consent keeps the candidate's consent grants. Every feature that
// sends data to third parties or keeps resume content asks this store first.
package consent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type Kind string

const (
	KindMarketAnalysis   Kind = "market_analysis"
	KindDataContribution Kind = "data_contribution"
	KindResumeStorage    Kind = "resume_storage"
)

// Kinds lists every consent kind in display order.
func Kinds() []Kind {
	return []Kind{KindMarketAnalysis, KindDataContribution, KindResumeStorage}
}

func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case KindMarketAnalysis, KindDataContribution, KindResumeStorage:
		return kind, nil
	}
	return "", fmt.Errorf("unknown consent kind %q", s)
}

// Status is a point-in-time copy of the grants.
type Status struct {
	MarketAnalysis   bool `json:"market_analysis"`
	DataContribution bool `json:"data_contribution"`
	ResumeStorage    bool `json:"resume_storage"`
}

func (s Status) Get(kind Kind) bool {
	switch kind {
	case KindMarketAnalysis:
		return s.MarketAnalysis
	case KindDataContribution:
		return s.DataContribution
	case KindResumeStorage:
		return s.ResumeStorage
	default:
		return false
	}
}

// Remote is the server side of consents. The server is the source of truth.
type Remote interface {
	GetConsent(ctx context.Context, kind Kind) (bool, error)
	SetConsent(ctx context.Context, kind Kind, granted bool) error
}

type Store struct {
	remote Remote
	logger *zap.Logger

	mu      sync.RWMutex
	granted map[Kind]bool
}

func NewStore(remote Remote, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		remote:  remote,
		logger:  logger,
		granted: make(map[Kind]bool),
	}
}

// Load refreshes every grant from the server. A kind that fails to load keeps
// its previous value. Errors are only logged.
func (s *Store) Load(ctx context.Context) Status {
	for _, kind := range Kinds() {
		granted, err := s.remote.GetConsent(ctx, kind)
		if err != nil {
			s.logger.Warn("loading consent failed",
				zap.String("kind", string(kind)),
				zap.Bool("kept_value", s.IsGranted(kind)),
				zap.Error(err),
			)
			continue
		}

		s.mu.Lock()
		s.granted[kind] = granted
		s.mu.Unlock()
	}

	status := s.Snapshot()
	s.logger.Debug("consents loaded",
		zap.Bool(string(KindMarketAnalysis), status.MarketAnalysis),
		zap.Bool(string(KindDataContribution), status.DataContribution),
		zap.Bool(string(KindResumeStorage), status.ResumeStorage),
	)

	return status
}

// SetGrant grants or revokes a consent on the server and mirrors the change
// locally only after the server accepted it.
func (s *Store) SetGrant(ctx context.Context, kind Kind, granted bool) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}

	if err := s.remote.SetConsent(ctx, kind, granted); err != nil {
		return fmt.Errorf("update %s consent: %w", kind, err)
	}

	s.mu.Lock()
	s.granted[kind] = granted
	s.mu.Unlock()

	s.logger.Info("consent updated", zap.String("kind", string(kind)), zap.Bool("granted", granted))
	return nil
}

// IsGranted reads the local snapshot. Unknown kinds and kinds never loaded
// are not granted.
func (s *Store) IsGranted(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.granted[kind]
}

func (s *Store) Snapshot() Status {
	return Status{
		MarketAnalysis:   s.IsGranted(KindMarketAnalysis),
		DataContribution: s.IsGranted(KindDataContribution),
		ResumeStorage:    s.IsGranted(KindResumeStorage),
	}
}
