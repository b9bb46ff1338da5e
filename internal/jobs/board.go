package jobs

import "sync"

// PageSize is how many more postings every LoadMore reveals.
const PageSize = 10

// Board holds the job postings view: the collected postings, the active
// criteria and how many filtered postings are displayed.
type Board struct {
	mu       sync.RWMutex
	postings []Posting
	criteria Criteria
	limit    int
	dedupe   bool
}

// Stats summarizes the board for logging and display.
type Stats struct {
	Total    int
	Filtered int
	Visible  int
	Dropped  int
}

func NewBoard(criteria Criteria, dedupe bool) *Board {
	return &Board{
		postings: []Posting{},
		criteria: criteria,
		limit:    PageSize,
		dedupe:   dedupe,
	}
}

// SetPostings replaces the collection. The display limit is kept.
func (b *Board) SetPostings(postings []Posting) {
	if b.dedupe {
		postings = Dedupe(postings)
	}

	copied := make([]Posting, len(postings))
	copy(copied, postings)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.postings = copied
}

// SetCriteria applies new criteria and always resets the display limit to
// the first page.
func (b *Board) SetCriteria(c Criteria) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = c
	b.limit = PageSize
}

func (b *Board) Criteria() Criteria {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.criteria
}

// LoadMore reveals one more page. It is a no-op once every filtered posting
// is visible, so repeated calls never grow the limit past the collection.
func (b *Board) LoadMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := len(Filter(b.postings, b.criteria))
	if b.limit >= total {
		return false
	}
	b.limit += PageSize
	return true
}

func (b *Board) HasMore() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.limit < len(Filter(b.postings, b.criteria))
}

func (b *Board) Limit() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.limit
}

func (b *Board) All() []Posting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	copied := make([]Posting, len(b.postings))
	copy(copied, b.postings)
	return copied
}

func (b *Board) Filtered() []Posting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Filter(b.postings, b.criteria)
}

func (b *Board) Visible() []Posting {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Paginate(Filter(b.postings, b.criteria), b.limit)
}

func (b *Board) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	filtered := Filter(b.postings, b.criteria)
	return Stats{
		Total:    len(b.postings),
		Filtered: len(filtered),
		Visible:  len(Paginate(filtered, b.limit)),
		Dropped:  len(b.postings) - len(filtered),
	}
}

// Reset empties the board and returns to the first page.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.postings = []Posting{}
	b.limit = PageSize
}
