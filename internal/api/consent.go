package api

import (
	"context"
	"net/url"

	"github.com/spigell/resume-radar/internal/consent"
)

const consentPath = "/api/consent/"

type consentState struct {
	ConsentType string `json:"consent_type,omitempty"`
	Granted     bool   `json:"granted"`
}

func (c *Client) GetConsent(ctx context.Context, kind consent.Kind) (bool, error) {
	var state consentState
	if err := c.getJSON(ctx, "get consent", consentPath+url.PathEscape(string(kind)), &state); err != nil {
		return false, err
	}
	return state.Granted, nil
}

func (c *Client) SetConsent(ctx context.Context, kind consent.Kind, granted bool) error {
	return c.postJSON(ctx, "set consent", consentPath+url.PathEscape(string(kind)), consentState{Granted: granted}, nil)
}
