package api

import (
	"context"
	"strings"

	"github.com/spigell/resume-radar/internal/analysis"
)

const (
	analysisPath = "/api/ai/comprehensive-analysis"
	healthPath   = "/api/ai/health"
)

type Health struct {
	Status    string `json:"status"`
	Available bool   `json:"available"`
}

// Healthy reports whether the AI service can take analysis requests.
func (h *Health) Healthy() bool {
	if h == nil {
		return false
	}
	if h.Available {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(h.Status)) {
	case "healthy", "ok", "available":
		return true
	}
	return false
}

// Analyze runs one comprehensive analysis. A response with success=false is
// returned as is; the caller decides how to surface it.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (*analysis.Envelope, error) {
	if req.AnalysisType == "" {
		req.AnalysisType = analysis.DefaultAnalysisType
	}

	var env analysis.Envelope
	if err := c.postJSON(ctx, "analyze", analysisPath, req, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.getJSON(ctx, "health", healthPath, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
