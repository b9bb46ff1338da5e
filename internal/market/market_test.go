package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/spigell/resume-radar/internal/jobs"
)

type recordingFetcher struct {
	mu       sync.Mutex
	requests []Request
	intel    *Intelligence
	err      error
	release  chan struct{}
}

func (f *recordingFetcher) FetchMarketIntelligence(_ context.Context, req Request) (*Intelligence, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.intel, f.err
}

func (f *recordingFetcher) calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

const samplePayload = `{
	"skills_analysis": {
		"Python": {"demand_score": "0.8", "job_postings": [{"title": "py-1", "salary": "100k"}]},
		"Go": {"job_count": 12, "job_postings": [{"title": "go-1"}, {"title": "go-2", "validation_score": 0.9}]},
		"Rust": {"demand_score": 0.4},
		"Elixir": "not analysed"
	},
	"job_postings": [{"title": "root-1", "salary": 120000}],
	"scraping_stats": {"sources_queried": 3, "total_scraped": "42"},
	"market_analysis": {"total_jobs": 57, "top_locations": ["Berlin", "Remote"], "hiring_velocity": "high"},
	"insights": ["Go demand is rising"],
	"metadata": {"generated_at": "2026-10-01T10:00:00Z", "cached": true}
}`

func TestIntelligenceDecodeKeepsSkillOrder(t *testing.T) {
	var intel Intelligence
	if err := json.Unmarshal([]byte(samplePayload), &intel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"Python", "Go", "Rust", "Elixir"}
	if got := intel.Skills(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected skills %v, got %v", expected, got)
	}

	python, _ := intel.SkillsAnalysis.Get("Python")
	if python.DemandScore != 0.8 {
		t.Fatalf("expected weakly decoded demand score, got %v", python.DemandScore)
	}
	if _, ok := python.Extra["job_postings"]; ok {
		t.Fatalf("expected job postings to be removed from extra fields")
	}

	if intel.ScrapingStats == nil || intel.ScrapingStats.TotalScraped != 42 {
		t.Fatalf("unexpected scraping stats: %+v", intel.ScrapingStats)
	}
	if intel.MarketAnalysis.TotalJobs != 57 || intel.MarketAnalysis.Extra["hiring_velocity"] != "high" {
		t.Fatalf("unexpected market analysis: %+v", intel.MarketAnalysis)
	}
	if len(intel.Insights.Recommendations) != 1 {
		t.Fatalf("expected list insights to become recommendations: %+v", intel.Insights)
	}
	if !intel.Metadata.Cached {
		t.Fatalf("expected metadata to be decoded")
	}
	if intel.JobPostings[0].Salary != "" {
		t.Fatalf("expected numeric root salary to be treated as absent")
	}
}

func TestIntelligenceIngestOrder(t *testing.T) {
	var intel Intelligence
	if err := json.Unmarshal([]byte(samplePayload), &intel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	postings := jobs.Ingest(&intel)
	got := make([]string, 0, len(postings))
	for _, p := range postings {
		got = append(got, p.Title)
	}

	expected := []string{"py-1", "go-1", "go-2", "root-1"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestIntelligenceDecodeEmptyPayload(t *testing.T) {
	var intel Intelligence
	if err := json.Unmarshal([]byte(`{"skills_analysis": null}`), &intel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs.Ingest(&intel)) != 0 {
		t.Fatalf("expected no postings")
	}

	if err := json.Unmarshal([]byte(`{"skills_analysis": {}}`), &intel); err != nil {
		t.Fatalf("unexpected error for empty skills: %v", err)
	}
	if len(intel.Skills()) != 0 {
		t.Fatalf("expected no skills")
	}
}

func TestIntelligenceDecodeSkipsBrokenParts(t *testing.T) {
	payload := `{
		"skills_analysis": {
			"Go": {"demand_score": "high", "job_postings": [{"title": "ok"}, {"title": "bad", "validation_score": "n/a"}, {"title": {"en": "x"}}]},
			"SQL": {"job_postings": [{"title": "sql-1"}]},
			"Rust": {"demand_score": {"value": 1}}
		},
		"job_postings": [{"title": "root", "is_fresh": "unknown"}],
		"market_analysis": {"total_jobs": "many", "top_locations": {"city": "Berlin"}},
		"insights": ["Go demand is rising"]
	}`

	var intel Intelligence
	if err := json.Unmarshal([]byte(payload), &intel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := intel.Skills(); !reflect.DeepEqual(got, []string{"Go", "SQL"}) {
		t.Fatalf("expected the unreadable skill to be dropped, got %v", got)
	}

	postings := jobs.Ingest(&intel)
	got := make([]string, 0, len(postings))
	for _, p := range postings {
		got = append(got, p.Title)
	}
	if !reflect.DeepEqual(got, []string{"ok", "bad", "sql-1", "root"}) {
		t.Fatalf("unexpected postings %v", got)
	}
	if postings[1].ValidationScore != nil {
		t.Fatalf("expected unparseable score to leave the posting unscored")
	}

	goSkill, _ := intel.SkillsAnalysis.Get("Go")
	if goSkill.DemandScore != 0 {
		t.Fatalf("expected unparseable demand score to be zeroed, got %v", goSkill.DemandScore)
	}
	if intel.MarketAnalysis.TotalJobs != 0 || len(intel.MarketAnalysis.TopLocations) != 0 {
		t.Fatalf("expected unreadable market analysis to be dropped, got %+v", intel.MarketAnalysis)
	}
	if len(intel.Insights.Recommendations) != 1 {
		t.Fatalf("expected insights to survive, got %+v", intel.Insights)
	}

	// the nested title posting, the Rust skill and the market analysis
	if len(intel.Skipped) != 3 {
		t.Fatalf("expected 3 skipped parts, got %d: %v", len(intel.Skipped), intel.Skipped)
	}
}

type blockingFetcher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (f *blockingFetcher) FetchMarketIntelligence(ctx context.Context, _ Request) (*Intelligence, error) {
	f.once.Do(func() { close(f.started) })
	<-f.release
	f.ctxErr <- ctx.Err()
	return &Intelligence{}, nil
}

func TestCacheCallerCancellationDoesNotFailOthers(t *testing.T) {
	fetcher := &blockingFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 2),
	}
	cache := NewCache(fetcher, nil, 1)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Load(firstCtx, []string{"Go"}, true)
		firstErr <- err
	}()
	<-fetcher.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := cache.Load(context.Background(), []string{"Go"}, true)
		secondErr <- err
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to stop with context.Canceled, got %v", err)
	}

	close(fetcher.release)
	if err := <-fetcher.ctxErr; err != nil {
		t.Fatalf("expected the shared fetch to keep running, got %v", err)
	}
	if err := <-secondErr; err != nil {
		t.Fatalf("expected the other caller to succeed, got %v", err)
	}
}

func TestCacheDurations(t *testing.T) {
	fetcher := &recordingFetcher{intel: &Intelligence{}}
	cache := NewCache(fetcher, nil, 0)
	ctx := context.Background()

	if _, err := cache.Load(ctx, []string{"Go"}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.ForceRefresh(ctx, []string{"Go"}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := fetcher.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].CacheDurationHours != DefaultCacheDurationHours {
		t.Fatalf("expected default duration %d, got %d", DefaultCacheDurationHours, calls[0].CacheDurationHours)
	}
	if calls[1].CacheDurationHours != 0 {
		t.Fatalf("expected forced refresh to use 0 hours, got %d", calls[1].CacheDurationHours)
	}
	if !calls[1].IncludeJobs {
		t.Fatalf("expected include_jobs to be forwarded")
	}
}

func TestCacheErrors(t *testing.T) {
	fetcher := &recordingFetcher{err: errors.New("upstream down")}
	cache := NewCache(fetcher, nil, 2)

	if _, err := cache.Load(context.Background(), nil, true); !errors.Is(err, ErrNoSkills) {
		t.Fatalf("expected ErrNoSkills, got %v", err)
	}
	if len(fetcher.calls()) != 0 {
		t.Fatalf("expected no remote call without skills")
	}

	_, err := cache.Load(context.Background(), []string{"Go"}, false)
	if !errors.Is(err, fetcher.err) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if fetcher.calls()[0].CacheDurationHours != 2 {
		t.Fatalf("expected configured default duration")
	}
}

func TestCacheCoalescesConcurrentRequests(t *testing.T) {
	fetcher := &recordingFetcher{intel: &Intelligence{}, release: make(chan struct{})}
	cache := NewCache(fetcher, nil, 1)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(context.Background(), []string{"Go", "SQL"}, true)
			errs <- err
		}()
	}

	for len(fetcher.calls()) == 0 {
	}
	close(fetcher.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := len(fetcher.calls()); n < 1 || n > 3 {
		t.Fatalf("unexpected number of remote calls: %d", n)
	}
}

func TestTopSkills(t *testing.T) {
	skills := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		skills = append(skills, fmt.Sprintf("skill-%d", i))
	}

	top := TopSkills(skills, MaxSkills)
	if len(top) != MaxSkills {
		t.Fatalf("expected %d skills, got %d", MaxSkills, len(top))
	}
	if top[0] != "skill-0" || top[9] != "skill-9" {
		t.Fatalf("expected leading skills to be kept: %v", top)
	}

	got := TopSkills([]string{" Go ", "go", "", "SQL"}, MaxSkills)
	if !reflect.DeepEqual(got, []string{"Go", "SQL"}) {
		t.Fatalf("unexpected cleanup result: %v", got)
	}
}
