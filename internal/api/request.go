package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/logger"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-ID"
)

// StatusError is a non-2xx response. Detail carries the server's message
// when the body had one.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("%s: bad status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s: bad status: %s: %s", e.Operation, e.Status, e.Detail)
}

// formFile is the file part of a multipart upload.
type formFile struct {
	field string
	name  string
	data  []byte
}

func (c *Client) getJSON(ctx context.Context, operation, path string, target any) error {
	return c.call(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", contentType)

		return c.do(operation, req, target)
	})
}

func (c *Client) postJSON(ctx context.Context, operation, path string, body any, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", operation, err)
	}

	return c.call(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", contentType)

		c.logger.Debug("request body", zap.String(logger.FieldOperation, operation), logger.Preview(payload))

		return c.do(operation, req, target)
	})
}

func (c *Client) postFormData(ctx context.Context, operation, path string, data map[string]string, file *formFile, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range data {
		field, err := w.CreateFormField(key)
		if err != nil {
			return err
		}

		_, err = io.Copy(field, strings.NewReader(val))
		if err != nil {
			return err
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.name)
		if err != nil {
			return err
		}
		if _, err := part.Write(file.data); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	payload := b.Bytes()

	return c.call(ctx, operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Accept", contentType)

		return c.do(operation, req, target)
	})
}

// do sends the request and decodes a 2xx JSON body into target. A nil
// target discards the body.
func (c *Client) do(operation string, req *http.Request, target any) error {
	requestID := c.setHeaders(req)
	log := c.logger.With(zap.String(logger.FieldOperation, operation), zap.String(logger.FieldRequestID, requestID))

	log.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	log.Debug("got response", zap.Int("status", resp.StatusCode), logger.Preview(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     parseDetail(data),
		}
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) string {
	requestID := uuid.NewString()
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set(requestIDHeader, requestID)

	return requestID
}

// readBody reads the response, inflating it when the server gzipped it.
// Setting Accept-Encoding by hand turns off the transport's own
// decompression.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// parseDetail extracts a readable message from an error body. FastAPI sends
// either a plain detail string or a list of validation errors.
func parseDetail(data []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil {
			return strings.TrimSpace(detail)
		}

		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				msg := strings.TrimSpace(item.Msg)
				if msg == "" {
					continue
				}
				if len(item.Loc) > 0 {
					msg = fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], msg)
				}
				msgs = append(msgs, msg)
			}
			return strings.Join(msgs, "; ")
		}
	}

	if body.Message != "" {
		return strings.TrimSpace(body.Message)
	}
	return strings.TrimSpace(body.Error)
}
