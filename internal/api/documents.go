package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	documentsPath = "/api/documents/extract"
	// MaxDocumentSize is the upload ceiling enforced before any request.
	MaxDocumentSize = 5 << 20
)

var (
	ErrDocumentType     = errors.New("unsupported document type")
	ErrDocumentTooLarge = errors.New("document is too large")
	ErrDocumentEmpty    = errors.New("document is empty")
)

var documentTypes = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
}

type Extraction struct {
	Success  bool           `json:"success"`
	Text     string         `json:"text"`
	Method   string         `json:"method,omitempty"`
	Pages    int            `json:"pages,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// ValidateDocument checks an upload before it leaves the machine and returns
// the effective vision flag: vision extraction only applies to PDF files.
func ValidateDocument(name string, size int, useVision bool) (bool, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := documentTypes[ext]; !ok {
		return false, fmt.Errorf("%w: %q (want pdf, doc, docx or txt)", ErrDocumentType, ext)
	}
	if size == 0 {
		return false, ErrDocumentEmpty
	}
	if size > MaxDocumentSize {
		return false, fmt.Errorf("%w: %d bytes, limit is %d", ErrDocumentTooLarge, size, MaxDocumentSize)
	}

	return useVision && ext == ".pdf", nil
}

// ExtractDocument uploads a resume file and returns the text the server
// extracted from it.
func (c *Client) ExtractDocument(ctx context.Context, name string, data []byte, useVision bool) (*Extraction, error) {
	vision, err := ValidateDocument(name, len(data), useVision)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{"use_vision": strconv.FormatBool(vision)}
	file := &formFile{field: "file", name: filepath.Base(name), data: data}

	var extraction Extraction
	if err := c.postFormData(ctx, "extract document", documentsPath, fields, file, &extraction); err != nil {
		return nil, err
	}
	if !extraction.Success {
		detail := extraction.Detail
		if detail == "" {
			detail = "no text extracted"
		}
		return nil, fmt.Errorf("extract document: %s", detail)
	}
	return &extraction, nil
}
