package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  kind  ", Value: "  market_analysis  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "kind" || fields[0].String != "market_analysis" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %v", entries[0].ContextMap()["foo"])
	}

	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestSessionFields(t *testing.T) {
	if fields := SessionFields(0, 2); len(fields) != 0 {
		t.Fatalf("expected no fields without a session, got %d", len(fields))
	}

	core, observed := observer.New(zapcore.InfoLevel)
	WithFields(zap.New(core), SessionFields(42, 2)...).Info("refined")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldSessionID] != int64(42) || ctx[FieldIteration] != int64(2) {
		t.Fatalf("unexpected session fields: %v", ctx)
	}
}

func TestWithRun(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	WithRun(zap.New(core), 7).Info("run started")

	if got := observed.All()[0].ContextMap()[FieldGeneration]; got != uint64(7) {
		t.Fatalf("expected generation 7, got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "returns empty when limit non-positive", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "truncates and adds ellipsis", input: "hello world", limit: 5, expect: "hello..."},
		{name: "trims surrounding whitespace", input: "  spaced  ", limit: 5, expect: "space..."},
		{name: "counts runes", input: "привет мир", limit: 6, expect: "привет..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	body := []byte(strings.Repeat("a", PreviewLimit+50))
	field := Preview(body)
	if len(field.String) != PreviewLimit+3 {
		t.Fatalf("expected truncated preview, got %d chars", len(field.String))
	}
}
