package api

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/spigell/resume-radar/internal/analysis"
	"github.com/spigell/resume-radar/internal/session"
)

const sessionsPath = "/api/ai/sessions"

var errEmptyToken = errors.New("session token is empty")

func sessionPath(token string, action string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errEmptyToken
	}

	path := sessionsPath + "/" + url.PathEscape(token)
	if action != "" {
		path += "/" + action
	}
	return path, nil
}

func (c *Client) CreateSession(ctx context.Context, req session.CreateRequest) (*session.Session, error) {
	var s session.Session
	if err := c.postJSON(ctx, "create session", sessionsPath, req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetSession(ctx context.Context, token string) (*session.Session, error) {
	path, err := sessionPath(token, "")
	if err != nil {
		return nil, err
	}

	var s session.Session
	if err := c.getJSON(ctx, "get session", path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, token string, feedback session.Feedback) error {
	path, err := sessionPath(token, "feedback")
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "submit feedback", path, feedback, nil)
}

func (c *Client) RefineAnalysis(ctx context.Context, token string, req session.RefinementRequest) (*session.RefineResponse, error) {
	path, err := sessionPath(token, "refine")
	if err != nil {
		return nil, err
	}

	var resp session.RefineResponse
	if err := c.postJSON(ctx, "refine analysis", path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil && resp.Success {
		return nil, analysis.ErrEmptyData
	}
	return &resp, nil
}

func (c *Client) CompleteSession(ctx context.Context, token string) error {
	path, err := sessionPath(token, "complete")
	if err != nil {
		return err
	}
	return c.postJSON(ctx, "complete session", path, struct{}{}, nil)
}
