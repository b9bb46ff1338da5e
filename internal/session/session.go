package session

import (
	"context"
	"encoding/json"

	"github.com/spigell/resume-radar/internal/analysis"
)

// DefaultMaxIterations applies when the server does not send a ceiling.
const DefaultMaxIterations = 3

type Session struct {
	Token            string         `json:"session_token"`
	ID               int64          `json:"session_id"`
	CurrentIteration int            `json:"current_iteration"`
	MaxIterations    int            `json:"max_iterations"`
	CanRefine        bool           `json:"can_refine"`
	Iterations       []Iteration    `json:"iterations,omitempty"`
	Feedback         []FeedbackLog  `json:"feedback,omitempty"`
	Info             map[string]any `json:"session_info,omitempty"`
}

type Iteration struct {
	Number    int             `json:"iteration_number"`
	CreatedAt string          `json:"created_at,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

type FeedbackLog struct {
	Iteration    int      `json:"iteration"`
	Satisfaction int      `json:"satisfaction"`
	Text         string   `json:"feedback_text,omitempty"`
	Areas        []string `json:"areas_to_improve,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// Progress is the part of a session that changes with every refinement.
type Progress struct {
	CurrentIteration int  `json:"current_iteration"`
	MaxIterations    int  `json:"max_iterations"`
	CanRefine        bool `json:"can_refine"`
}

type CreateRequest struct {
	ResumeText     string         `json:"resume_text"`
	JobDescription string         `json:"job_description,omitempty"`
	Preferences    map[string]any `json:"preferences,omitempty"`
	// PersistResume asks the server to keep the resume with the session.
	// Only set when the candidate consented to resume storage.
	PersistResume bool `json:"persist_resume"`
}

type Feedback struct {
	// Satisfaction is a 1-5 rating.
	Satisfaction int      `json:"satisfaction"`
	Text         string   `json:"feedback_text"`
	Areas        []string `json:"areas_to_improve"`
}

type RefinementRequest struct {
	FeedbackType string   `json:"feedback_type"`
	Text         string   `json:"feedback_text"`
	Areas        []string `json:"focus_areas"`
}

// RefineResponse is the refinement endpoint body: the usual analysis
// envelope plus the session progress after the refinement, when the server
// includes it.
type RefineResponse struct {
	analysis.Envelope
	Session *Progress `json:"session,omitempty"`
}

// Remote is the server side of analysis sessions.
type Remote interface {
	CreateSession(ctx context.Context, req CreateRequest) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	SubmitFeedback(ctx context.Context, token string, feedback Feedback) error
	RefineAnalysis(ctx context.Context, token string, req RefinementRequest) (*RefineResponse, error)
	CompleteSession(ctx context.Context, token string) error
}

// normalize enforces the client side invariants on a server copy.
func (s *Session) normalize() (clamped bool) {
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.CurrentIteration < 0 {
		s.CurrentIteration = 0
	}
	if s.CurrentIteration > s.MaxIterations {
		s.CurrentIteration = s.MaxIterations
		clamped = true
	}
	if s.CurrentIteration >= s.MaxIterations {
		s.CanRefine = false
	}
	return clamped
}

func (s *Session) apply(p Progress) {
	s.CurrentIteration = p.CurrentIteration
	if p.MaxIterations > 0 {
		s.MaxIterations = p.MaxIterations
	}
	s.CanRefine = p.CanRefine
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Iterations = append([]Iteration(nil), s.Iterations...)
	c.Feedback = append([]FeedbackLog(nil), s.Feedback...)
	if s.Info != nil {
		c.Info = make(map[string]any, len(s.Info))
		for k, v := range s.Info {
			c.Info[k] = v
		}
	}
	return &c
}

// FeedbackType derives the refinement feedback type from a satisfaction
// rating.
func FeedbackType(satisfaction int) string {
	switch {
	case satisfaction <= 2:
		return "major_revision"
	case satisfaction == 3:
		return "refinement"
	default:
		return "minor_adjustment"
	}
}
