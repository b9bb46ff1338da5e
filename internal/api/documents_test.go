package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		size       int
		vision     bool
		wantVision bool
		wantErr    error
	}{
		{name: "pdf keeps vision", file: "cv.PDF", size: 100, vision: true, wantVision: true},
		{name: "docx drops vision", file: "cv.docx", size: 100, vision: true, wantVision: false},
		{name: "txt without vision", file: "cv.txt", size: 1},
		{name: "exactly at the limit", file: "cv.doc", size: MaxDocumentSize},
		{name: "too large", file: "cv.pdf", size: MaxDocumentSize + 1, wantErr: ErrDocumentTooLarge},
		{name: "wrong type", file: "cv.png", size: 10, wantErr: ErrDocumentType},
		{name: "no extension", file: "resume", size: 10, wantErr: ErrDocumentType},
		{name: "empty", file: "cv.pdf", size: 0, wantErr: ErrDocumentEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision, err := ValidateDocument(tt.file, tt.size, tt.vision)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if vision != tt.wantVision {
				t.Fatalf("expected vision %v, got %v", tt.wantVision, vision)
			}
		})
	}
}

func TestExtractDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(MaxDocumentSize); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("use_vision"); got != "false" {
			t.Errorf("expected vision to be disabled for docx, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cv.docx" || string(data) != "content" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "text": "Jane Doe, Go engineer", "method": "docx"})
	}, Config{})

	extraction, err := client.ExtractDocument(context.Background(), "/tmp/cv.docx", []byte("content"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(extraction.Text, "Go engineer") {
		t.Fatalf("unexpected text %q", extraction.Text)
	}
}

func TestExtractDocumentRejectsBeforeUpload(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, Config{})

	if _, err := client.ExtractDocument(context.Background(), "cv.exe", []byte("x"), false); !errors.Is(err, ErrDocumentType) {
		t.Fatalf("expected ErrDocumentType, got %v", err)
	}
	if called {
		t.Fatalf("expected no request for an invalid document")
	}
}
