package jobs

import (
	"fmt"
	"testing"
)

func numberedPostings(n int) []Posting {
	postings := make([]Posting, 0, n)
	for i := 0; i < n; i++ {
		postings = append(postings, Posting{Title: fmt.Sprintf("job-%d", i), URL: fmt.Sprintf("https://jobs.test/%d", i)})
	}
	return postings
}

func TestBoardLoadMoreIsMonotonic(t *testing.T) {
	for _, n := range []int{0, 1, 10, 11, 25, 40} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			board := NewBoard(DefaultCriteria(), false)
			board.SetPostings(numberedPostings(n))

			calls := (n + PageSize - 1) / PageSize
			previous := len(board.Visible())
			for i := 0; i < calls; i++ {
				board.LoadMore()
				current := len(board.Visible())
				if current < previous {
					t.Fatalf("visible count decreased from %d to %d", previous, current)
				}
				previous = current
			}

			if got := len(board.Visible()); got != n {
				t.Fatalf("expected full collection of %d, got %d", n, got)
			}
			if board.HasMore() {
				t.Fatalf("expected no more pages")
			}

			limit := board.Limit()
			if board.LoadMore() {
				t.Fatalf("expected LoadMore to be a no-op when exhausted")
			}
			if board.Limit() != limit {
				t.Fatalf("limit changed after exhausted LoadMore: %d -> %d", limit, board.Limit())
			}
		})
	}
}

func TestBoardCriteriaChangeResetsLimit(t *testing.T) {
	board := NewBoard(DefaultCriteria(), false)
	board.SetPostings(numberedPostings(45))

	for board.LoadMore() {
	}
	if board.Limit() <= PageSize {
		t.Fatalf("expected limit to grow, got %d", board.Limit())
	}

	criteria := DefaultCriteria()
	criteria.Location = "anywhere"
	board.SetCriteria(criteria)
	if board.Limit() != PageSize {
		t.Fatalf("expected limit reset to %d, got %d", PageSize, board.Limit())
	}

	board.SetCriteria(criteria)
	if board.Limit() != PageSize {
		t.Fatalf("expected limit to stay at %d, got %d", PageSize, board.Limit())
	}
}

func TestBoardSetPostingsKeepsLimit(t *testing.T) {
	board := NewBoard(DefaultCriteria(), false)
	board.SetPostings(numberedPostings(30))
	board.LoadMore()

	board.SetPostings(numberedPostings(35))
	if board.Limit() != 2*PageSize {
		t.Fatalf("expected limit %d, got %d", 2*PageSize, board.Limit())
	}
}

func TestBoardDedupeAndStats(t *testing.T) {
	board := NewBoard(Criteria{MaxSalary: DefaultMaxSalary, MinValidationScore: 0.6}, true)

	postings := numberedPostings(3)
	postings = append(postings, postings[0])
	postings = append(postings, Posting{Title: "low", ValidationScore: score(0.1)})
	board.SetPostings(postings)

	stats := board.Stats()
	if stats.Total != 4 {
		t.Fatalf("expected 4 postings after dedupe, got %d", stats.Total)
	}
	if stats.Filtered != 3 || stats.Dropped != 1 || stats.Visible != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	board.Reset()
	if len(board.All()) != 0 {
		t.Fatalf("expected empty board after reset")
	}
}
