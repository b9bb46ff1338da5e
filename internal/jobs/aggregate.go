package jobs

// Buckets is implemented by market payloads that carry postings grouped per
// skill and at the top level.
type Buckets interface {
	// SkillPostings returns one slice per skill in payload order.
	SkillPostings() [][]Posting
	TopLevelPostings() []Posting
}

// Ingest flattens every per-skill bucket, in order, followed by the top
// level postings. No deduplication happens here.
func Ingest(src Buckets) []Posting {
	if src == nil {
		return []Posting{}
	}

	postings := make([]Posting, 0)
	for _, bucket := range src.SkillPostings() {
		postings = append(postings, bucket...)
	}

	return append(postings, src.TopLevelPostings()...)
}

// Dedupe drops postings whose Key was already seen, keeping the first one.
func Dedupe(postings []Posting) []Posting {
	seen := make(map[string]struct{}, len(postings))
	unique := make([]Posting, 0, len(postings))
	for _, posting := range postings {
		key := posting.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, posting)
	}
	return unique
}
