package jobs

import (
	"reflect"
	"testing"
)

func score(v float64) *float64 { return &v }

func TestRepresentativeSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect float64
		ok     bool
	}{
		{name: "k range picks upper bound", input: "80k-120k", expect: 120000, ok: true},
		{name: "dollar with thousands separator", input: "$95,000", expect: 95000, ok: true},
		{name: "plain range", input: "80000-120000", expect: 120000, ok: true},
		{name: "single k", input: "80k", expect: 80000, ok: true},
		{name: "upper case K", input: "150K", expect: 150000, ok: true},
		{name: "k does not scale large numbers", input: "90000 or 100k", expect: 100000, ok: true},
		{name: "no digits", input: "Competitive", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := RepresentativeSalary(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestFilterSalaryAndScore(t *testing.T) {
	postings := []Posting{
		{Title: "Junior", Salary: "80k", ValidationScore: score(0.5)},
		{Title: "Senior", Salary: "150k", ValidationScore: score(0.9)},
	}
	criteria := Criteria{MinSalary: 100000, MaxSalary: 200000, MinValidationScore: 0.6}

	got := Filter(postings, criteria)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if got[0].Title != "Senior" {
		t.Fatalf("unexpected posting passed: %s", got[0].Title)
	}
}

func TestFilterFailOpenCases(t *testing.T) {
	criteria := Criteria{MinSalary: 100000, MaxSalary: 110000, MinValidationScore: 0.6}

	postings := []Posting{
		{Title: "competitive", Salary: "Competitive"},
		{Title: "no salary"},
		{Title: "unscored", Salary: "105k"},
		{Title: "threshold", Salary: "105k", ValidationScore: score(0.6)},
		{Title: "zero score", Salary: "105k", ValidationScore: score(0)},
	}

	got := Filter(postings, criteria)
	if len(got) != len(postings) {
		t.Fatalf("expected every posting to pass, got %d of %d", len(got), len(postings))
	}

	if Matches(Posting{ValidationScore: score(0.01)}, criteria) {
		t.Fatalf("expected a low non-zero score to be dropped")
	}
}

func TestFilterFreshAndLocation(t *testing.T) {
	postings := []Posting{
		{Title: "stale berlin", Location: "Berlin, Germany"},
		{Title: "fresh berlin", Location: "BERLIN", IsFresh: true},
		{Title: "fresh remote", Location: "Remote", IsFresh: true},
		{Title: "fresh unknown", IsFresh: true},
	}

	got := Filter(postings, Criteria{MaxSalary: DefaultMaxSalary, Location: "berlin", FreshOnly: true})
	if len(got) != 1 || got[0].Title != "fresh berlin" {
		t.Fatalf("unexpected filter result: %+v", got)
	}

	got = Filter(postings, Criteria{MaxSalary: DefaultMaxSalary, Location: "Berlin"})
	if len(got) != 2 {
		t.Fatalf("expected 2 berlin postings, got %d", len(got))
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	postings := []Posting{
		{Title: "a", Salary: "50k", ValidationScore: score(0.7)},
		{Title: "b", Salary: "250k"},
		{Title: "c", Salary: "n/a", ValidationScore: score(0.2)},
		{Title: "d", Location: "Remote", IsFresh: true},
	}

	once := Filter(postings, DefaultCriteria())
	twice := Filter(once, DefaultCriteria())
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %+v vs %+v", once, twice)
	}
	if len(once) != 2 {
		t.Fatalf("expected 2 postings after default filter, got %d", len(once))
	}
}

func TestPaginate(t *testing.T) {
	postings := make([]Posting, 5)

	if got := Paginate(postings, 3); len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	if got := Paginate(postings, 10); len(got) != 5 {
		t.Fatalf("expected 5, got %d", len(got))
	}
	if got := Paginate(postings, 0); len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}

func TestSteps(t *testing.T) {
	low := 0.3
	postings := []Posting{
		{Title: "stale", IsFresh: false},
		{Title: "unscored-berlin", IsFresh: true, Location: "Berlin"},
		{Title: "low-score", IsFresh: true, ValidationScore: &low, Location: "Berlin"},
		{Title: "remote", IsFresh: true, Location: "Remote"},
		{Title: "expensive", IsFresh: true, Location: "Berlin, DE", Salary: "$300,000"},
	}
	criteria := DefaultCriteria()
	criteria.FreshOnly = true
	criteria.Location = "berlin"

	steps := Steps(postings, criteria)
	expected := []Step{
		{Name: "fresh", Initial: 5, Dropped: 1, Left: 4},
		{Name: "validation_score", Initial: 4, Dropped: 1, Left: 3},
		{Name: "location", Initial: 3, Dropped: 1, Left: 2},
		{Name: "salary", Initial: 2, Dropped: 1, Left: 1},
		{Name: "excluded_company", Initial: 1, Dropped: 0, Left: 1},
	}
	if len(steps) != len(expected) {
		t.Fatalf("expected %d steps, got %d", len(expected), len(steps))
	}
	for i := range expected {
		if steps[i] != expected[i] {
			t.Fatalf("step %d: expected %+v, got %+v", i, expected[i], steps[i])
		}
	}

	if left := steps[len(steps)-1].Left; left != len(Filter(postings, criteria)) {
		t.Fatalf("expected last step to agree with Filter")
	}
}
