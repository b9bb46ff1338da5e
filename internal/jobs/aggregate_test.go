package jobs

import (
	"strings"
	"testing"
)

type stubBuckets struct {
	perSkill [][]Posting
	root     []Posting
}

func (s stubBuckets) SkillPostings() [][]Posting { return s.perSkill }
func (s stubBuckets) TopLevelPostings() []Posting { return s.root }

func titles(postings []Posting) []string {
	out := make([]string, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.Title)
	}
	return out
}

func TestIngestOrder(t *testing.T) {
	src := stubBuckets{
		perSkill: [][]Posting{
			{{Title: "go-1"}, {Title: "go-2"}},
			nil,
			{{Title: "k8s-1"}},
		},
		root: []Posting{{Title: "root-1"}},
	}

	got := titles(Ingest(src))
	expected := []string{"go-1", "go-2", "k8s-1", "root-1"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestIngestEmpty(t *testing.T) {
	if got := Ingest(stubBuckets{}); len(got) != 0 {
		t.Fatalf("expected no postings, got %d", len(got))
	}
	if got := Ingest(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice for nil source")
	}
}

func TestIngestKeepsDuplicates(t *testing.T) {
	dup := Posting{Title: "Go Dev", Company: "Acme", URL: "https://acme.test/1"}
	src := stubBuckets{perSkill: [][]Posting{{dup}}, root: []Posting{dup}}

	if got := Ingest(src); len(got) != 2 {
		t.Fatalf("expected duplicates to be kept, got %d", len(got))
	}
}

func TestDedupe(t *testing.T) {
	postings := []Posting{
		{Title: "Go Dev", Company: "Acme", URL: "https://acme.test/1", Source: "skill"},
		{Title: "go dev ", Company: "ACME", URL: "https://acme.test/1", Source: "root"},
		{Title: "Go Dev", Company: "Acme", URL: "https://acme.test/2"},
	}

	got := Dedupe(postings)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique postings, got %d", len(got))
	}
	if got[0].Source != "skill" {
		t.Fatalf("expected first occurrence to be kept, got source %q", got[0].Source)
	}
}

func TestDecodePostings(t *testing.T) {
	raw := []any{
		map[string]any{
			"title":            "Backend Engineer",
			"company":          "Acme",
			"salary":           "80k-120k",
			"validation_score": "0.75",
			"is_fresh":         true,
			"url":              "https://acme.test/jobs/1",
		},
		map[string]any{
			"title":  "Numeric salary",
			"salary": float64(90000),
		},
		"not an object",
	}

	postings, skipped := DecodePostings(raw)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped postings: %v", skipped)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	first := postings[0]
	if first.ValidationScore == nil || *first.ValidationScore != 0.75 {
		t.Fatalf("expected validation score 0.75, got %v", first.ValidationScore)
	}
	if !first.IsFresh || first.Salary != "80k-120k" {
		t.Fatalf("unexpected first posting: %+v", first)
	}

	if postings[1].Salary != "" {
		t.Fatalf("expected non-string salary to be dropped, got %q", postings[1].Salary)
	}
	if postings[1].ValidationScore != nil {
		t.Fatalf("expected missing score to stay nil")
	}
}

func TestDecodePostingsToleratesBadEntries(t *testing.T) {
	raw := []any{
		map[string]any{"title": "ok", "validation_score": 0.8},
		map[string]any{"title": "bad score", "validation_score": "n/a", "is_fresh": "maybe", "salary": "90k"},
		map[string]any{"title": map[string]any{"en": "nested"}},
		map[string]any{"title": "last"},
	}

	postings, skipped := DecodePostings(raw)
	if len(postings) != 3 {
		t.Fatalf("expected 3 postings, got %d: %+v", len(postings), postings)
	}
	if len(skipped) != 1 || !strings.Contains(skipped[0].Error(), "job posting 2") {
		t.Fatalf("expected the nested title entry to be skipped, got %v", skipped)
	}

	bad := postings[1]
	if bad.Title != "bad score" || bad.ValidationScore != nil || bad.IsFresh || bad.Salary != "90k" {
		t.Fatalf("expected unparseable fields zeroed and the rest kept, got %+v", bad)
	}
	if postings[0].ValidationScore == nil || *postings[0].ValidationScore != 0.8 {
		t.Fatalf("expected good posting untouched, got %+v", postings[0])
	}
	if postings[2].Title != "last" {
		t.Fatalf("expected decoding to continue after a bad entry, got %+v", postings[2])
	}
}
