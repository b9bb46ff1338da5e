package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/analysis"
)

var (
	ErrInvalidTransition     = errors.New("invalid session transition")
	ErrNoSession             = errors.New("no analysis session")
	ErrRefinementUnavailable = errors.New("refinement is not available for this session")
	ErrInvalidFeedback       = errors.New("invalid feedback")
)

// Machine owns the lifecycle of one analysis session. It is safe for
// concurrent use; remote calls are made without holding the lock.
type Machine struct {
	remote Remote
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	session *Session
}

func NewMachine(remote Remote, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{remote: remote, logger: logger, state: StateUncreated}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the session, or nil when none exists.
func (m *Machine) Snapshot() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone()
}

func (m *Machine) transition(to State) error {
	if !IsTransitionAllowed(m.state, to) {
		return &InvalidTransitionError{From: m.state, To: to}
	}
	m.logger.Debug("session state change", zap.String("from", string(m.state)), zap.String("to", string(to)))
	m.state = to
	return nil
}

// Create opens a session on the server. On failure the machine returns to
// UNCREATED and analysis can go on without iteration tracking.
func (m *Machine) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	m.mu.Lock()
	if err := m.transition(StateCreating); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	created, err := m.remote.CreateSession(ctx, req)
	if err == nil && (created == nil || strings.TrimSpace(created.Token) == "") {
		err = errors.New("server returned a session without a token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		_ = m.transition(StateUncreated)
		return nil, fmt.Errorf("create session: %w", err)
	}

	if created.normalize() {
		m.logger.Warn("session iteration above ceiling, clamped",
			zap.Int64("session_id", created.ID),
			zap.Int("max_iterations", created.MaxIterations),
		)
	}
	m.session = created
	if err := m.transition(StateActive); err != nil {
		return nil, err
	}

	m.logger.Info("analysis session created",
		zap.Int64("session_id", created.ID),
		zap.Int("current_iteration", created.CurrentIteration),
		zap.Int("max_iterations", created.MaxIterations),
	)

	return created.clone(), nil
}

// CanRefine reports whether a refinement may be offered. Both the iteration
// counter and the server's can_refine flag must allow it; the server may
// revoke the flag for reasons of its own.
func (m *Machine) CanRefine() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canRefineLocked()
}

func (m *Machine) canRefineLocked() bool {
	if m.session == nil {
		return false
	}
	if m.state != StateActive && m.state != StateAwaitingFeedback {
		return false
	}
	return m.session.CurrentIteration < m.session.MaxIterations && m.session.CanRefine
}

// SubmitFeedback records the candidate's feedback for the current iteration.
// It must succeed before a refinement is requested.
func (m *Machine) SubmitFeedback(ctx context.Context, feedback Feedback) error {
	if feedback.Satisfaction < 1 || feedback.Satisfaction > 5 {
		return fmt.Errorf("%w: satisfaction must be between 1 and 5, got %d", ErrInvalidFeedback, feedback.Satisfaction)
	}

	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	if !IsTransitionAllowed(m.state, StateAwaitingFeedback) {
		err := &InvalidTransitionError{From: m.state, To: StateAwaitingFeedback}
		m.mu.Unlock()
		return err
	}
	token := m.session.Token
	iteration := m.session.CurrentIteration
	m.mu.Unlock()

	if err := m.remote.SubmitFeedback(ctx, token, feedback); err != nil {
		return fmt.Errorf("submit feedback: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transition(StateAwaitingFeedback); err != nil {
		return err
	}
	m.session.Feedback = append(m.session.Feedback, FeedbackLog{
		Iteration:    iteration,
		Satisfaction: feedback.Satisfaction,
		Text:         feedback.Text,
		Areas:        feedback.Areas,
	})
	return nil
}

// RequestRefinement asks the server for a new iteration. The returned result
// replaces the previous one as a whole. The iteration counter is read back
// from the server, never incremented locally.
func (m *Machine) RequestRefinement(ctx context.Context, req RefinementRequest) (*analysis.Result, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	if m.state != StateAwaitingFeedback {
		err := &InvalidTransitionError{From: m.state, To: StateRefining}
		m.mu.Unlock()
		return nil, err
	}
	if !m.canRefineLocked() {
		m.mu.Unlock()
		return nil, ErrRefinementUnavailable
	}
	if err := m.transition(StateRefining); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	token := m.session.Token
	m.mu.Unlock()

	result, progress, err := m.refine(ctx, token, req)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		_ = m.transition(StateAwaitingFeedback)
		return nil, err
	}

	before := m.session.CurrentIteration
	m.session.apply(*progress)
	if m.session.CurrentIteration < before {
		m.logger.Warn("server reported a lower iteration, keeping the previous one",
			zap.Int("previous", before),
			zap.Int("reported", m.session.CurrentIteration),
		)
		m.session.CurrentIteration = before
	}
	m.session.normalize()
	m.session.Iterations = append(m.session.Iterations, Iteration{Number: m.session.CurrentIteration})

	if err := m.transition(StateActive); err != nil {
		return nil, err
	}

	m.logger.Info("analysis refined",
		zap.Int64("session_id", m.session.ID),
		zap.Int("current_iteration", m.session.CurrentIteration),
		zap.Int("max_iterations", m.session.MaxIterations),
		zap.Bool("can_refine", m.canRefineLocked()),
	)

	return result, nil
}

func (m *Machine) refine(ctx context.Context, token string, req RefinementRequest) (*analysis.Result, *Progress, error) {
	resp, err := m.remote.RefineAnalysis(ctx, token, req)
	if err != nil {
		return nil, nil, fmt.Errorf("refine analysis: %w", err)
	}
	if resp == nil {
		return nil, nil, fmt.Errorf("refine analysis: %w", analysis.ErrEmptyData)
	}

	result, err := analysis.Merge(&resp.Envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("refine analysis: %w", err)
	}

	if resp.Session != nil {
		return result, resp.Session, nil
	}

	fresh, err := m.remote.GetSession(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("reload session after refinement: %w", err)
	}
	return result, &Progress{
		CurrentIteration: fresh.CurrentIteration,
		MaxIterations:    fresh.MaxIterations,
		CanRefine:        fresh.CanRefine,
	}, nil
}

// Refine submits feedback and then requests a refinement built from it. The
// refinement is only requested after the feedback was accepted.
func (m *Machine) Refine(ctx context.Context, feedback Feedback) (*analysis.Result, error) {
	if !m.CanRefine() {
		return nil, ErrRefinementUnavailable
	}

	if m.State() == StateActive {
		if err := m.SubmitFeedback(ctx, feedback); err != nil {
			return nil, err
		}
	}

	return m.RequestRefinement(ctx, RefinementRequest{
		FeedbackType: FeedbackType(feedback.Satisfaction),
		Text:         feedback.Text,
		Areas:        feedback.Areas,
	})
}

// Complete closes the session on the server. The machine ends up TERMINAL
// even when the server call fails.
func (m *Machine) Complete(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil || m.state == StateTerminal {
		m.mu.Unlock()
		return nil
	}
	if err := m.transition(StateTerminal); err != nil {
		m.mu.Unlock()
		return err
	}
	token := m.session.Token
	m.mu.Unlock()

	if err := m.remote.CompleteSession(ctx, token); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}
