package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/resume-radar/internal/market"
)

const (
	marketPath      = "/api/market/intelligence"
	marketOperation = "market intelligence"
)

type marketEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// FetchMarketIntelligence unwraps the {success, data} envelope. A body with
// success set to false is an error even on a 2xx status.
func (c *Client) FetchMarketIntelligence(ctx context.Context, req market.Request) (*market.Intelligence, error) {
	var body json.RawMessage
	if err := c.postJSON(ctx, marketOperation, marketPath, req, &body); err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: %w", marketOperation, market.ErrEmptyData)
	}

	var env marketEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", marketOperation, err)
	}
	if !env.Success {
		return nil, &market.FailedError{Detail: parseDetail(body)}
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%s: %w", marketOperation, market.ErrEmptyData)
	}

	var intel market.Intelligence
	if err := json.Unmarshal(data, &intel); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", marketOperation, err)
	}
	return &intel, nil
}
