package market

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/spigell/resume-radar/internal/jobs"
)

// Request is the body of the market intelligence endpoint.
type Request struct {
	Skills             []string `json:"skills"`
	IncludeJobs        bool     `json:"include_jobs"`
	CacheDurationHours int      `json:"cache_duration_hours"`
}

// Intelligence is the market payload. Skills keep the order the server sent
// them in.
type Intelligence struct {
	SkillsAnalysis *orderedmap.OrderedMap[string, SkillAnalysis] `json:"skills_analysis"`
	JobPostings    []jobs.Posting                               `json:"job_postings,omitempty"`
	ScrapingStats  *ScrapingStats                               `json:"scraping_stats,omitempty"`
	MarketAnalysis MarketAnalysis                               `json:"market_analysis"`
	Insights       Insights                                     `json:"insights"`
	Metadata       Metadata                                     `json:"metadata"`

	// Skipped describes the parts of the payload dropped while decoding:
	// postings, skills or sections that could not be read at all.
	Skipped []error `json:"-"`
}

type SkillAnalysis struct {
	DemandScore   float64        `json:"demand_score,omitempty" mapstructure:"demand_score"`
	JobCount      int            `json:"job_count,omitempty" mapstructure:"job_count"`
	AverageSalary string         `json:"average_salary,omitempty" mapstructure:"average_salary"`
	GrowthTrend   string         `json:"growth_trend,omitempty" mapstructure:"growth_trend"`
	JobPostings   []jobs.Posting `json:"job_postings,omitempty" mapstructure:"-"`
	Extra         map[string]any `json:"-" mapstructure:",remain"`
}

type ScrapingStats struct {
	SourcesQueried int      `json:"sources_queried,omitempty" mapstructure:"sources_queried"`
	TotalScraped   int      `json:"total_scraped,omitempty" mapstructure:"total_scraped"`
	Validated      int      `json:"validated,omitempty" mapstructure:"validated"`
	Fresh          int      `json:"fresh,omitempty" mapstructure:"fresh"`
	Errors         []string `json:"errors,omitempty" mapstructure:"errors"`
}

type MarketAnalysis struct {
	TotalJobs      int            `json:"total_jobs,omitempty" mapstructure:"total_jobs"`
	AverageSalary  string         `json:"average_salary,omitempty" mapstructure:"average_salary"`
	TopLocations   []string       `json:"top_locations,omitempty" mapstructure:"top_locations"`
	TrendingSkills []string       `json:"trending_skills,omitempty" mapstructure:"trending_skills"`
	Extra          map[string]any `json:"-" mapstructure:",remain"`
}

type Insights struct {
	Summary         string         `json:"summary,omitempty" mapstructure:"summary"`
	Recommendations []string       `json:"recommendations,omitempty" mapstructure:"recommendations"`
	Extra           map[string]any `json:"-" mapstructure:",remain"`
}

type Metadata struct {
	GeneratedAt string `json:"generated_at,omitempty" mapstructure:"generated_at"`
	Cached      bool   `json:"cached,omitempty" mapstructure:"cached"`
	CacheHours  int    `json:"cache_duration_hours,omitempty" mapstructure:"cache_duration_hours"`
}

type rawIntelligence struct {
	SkillsAnalysis json.RawMessage `json:"skills_analysis"`
	JobPostings    []any           `json:"job_postings"`
	ScrapingStats  map[string]any  `json:"scraping_stats"`
	MarketAnalysis map[string]any  `json:"market_analysis"`
	Insights       any             `json:"insights"`
	Metadata       map[string]any  `json:"metadata"`
}

// UnmarshalJSON decodes the loosely typed payload. Unknown and mistyped
// fields never fail the whole payload unless they are structurally broken.
func (i *Intelligence) UnmarshalJSON(data []byte) error {
	var raw rawIntelligence
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode market intelligence: %w", err)
	}

	skills, skipped, err := decodeSkills(raw.SkillsAnalysis)
	if err != nil {
		return err
	}

	postings, bad := jobs.DecodePostings(raw.JobPostings)
	for _, err := range bad {
		skipped = append(skipped, fmt.Errorf("top level: %w", err))
	}

	out := Intelligence{
		SkillsAnalysis: skills,
		JobPostings:    postings,
		Skipped:        skipped,
	}

	if raw.ScrapingStats != nil {
		stats := &ScrapingStats{}
		if err := weakDecode(raw.ScrapingStats, stats); err != nil {
			out.skip("scraping stats", err)
		} else {
			out.ScrapingStats = stats
		}
	}

	var analysis MarketAnalysis
	if err := weakDecode(raw.MarketAnalysis, &analysis); err != nil {
		out.skip("market analysis", err)
	} else {
		out.MarketAnalysis = analysis
	}

	var insights Insights
	switch v := raw.Insights.(type) {
	case map[string]any:
		err = weakDecode(v, &insights)
	case []any:
		err = weakDecode(v, &insights.Recommendations)
	case string:
		insights.Summary = v
	}
	if err != nil {
		out.skip("insights", err)
	} else {
		out.Insights = insights
	}

	var metadata Metadata
	if err := weakDecode(raw.Metadata, &metadata); err != nil {
		out.skip("metadata", err)
	} else {
		out.Metadata = metadata
	}

	*i = out
	return nil
}

func decodeSkills(data json.RawMessage) (*orderedmap.OrderedMap[string, SkillAnalysis], []error, error) {
	skills := orderedmap.New[string, SkillAnalysis]()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return skills, nil, nil
	}

	entries := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(trimmed, entries); err != nil {
		return nil, nil, fmt.Errorf("decode skills analysis: %w", err)
	}

	var skipped []error
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		var entry any
		if err := json.Unmarshal(pair.Value, &entry); err != nil {
			return nil, nil, fmt.Errorf("decode skill %q: %w", pair.Key, err)
		}

		var analysis SkillAnalysis
		if obj, ok := entry.(map[string]any); ok {
			if err := weakDecode(obj, &analysis); err != nil {
				skipped = append(skipped, fmt.Errorf("skill %q: %w", pair.Key, err))
				continue
			}
			if list, ok := obj["job_postings"].([]any); ok {
				postings, bad := jobs.DecodePostings(list)
				for _, err := range bad {
					skipped = append(skipped, fmt.Errorf("skill %q: %w", pair.Key, err))
				}
				analysis.JobPostings = postings
			}
			delete(analysis.Extra, "job_postings")
		}

		skills.Set(pair.Key, analysis)
	}

	return skills, skipped, nil
}

func (i *Intelligence) skip(section string, err error) {
	i.Skipped = append(i.Skipped, fmt.Errorf("%s: %w", section, err))
}

func weakDecode(input any, target any) error {
	if input == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       jobs.LenientScalarHook,
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// SkillPostings returns each skill's postings in payload order.
func (i *Intelligence) SkillPostings() [][]jobs.Posting {
	if i == nil || i.SkillsAnalysis == nil {
		return nil
	}
	buckets := make([][]jobs.Posting, 0, i.SkillsAnalysis.Len())
	for pair := i.SkillsAnalysis.Oldest(); pair != nil; pair = pair.Next() {
		buckets = append(buckets, pair.Value.JobPostings)
	}
	return buckets
}

func (i *Intelligence) TopLevelPostings() []jobs.Posting {
	if i == nil {
		return nil
	}
	return i.JobPostings
}

// Skills returns the analysed skill names in payload order.
func (i *Intelligence) Skills() []string {
	if i == nil || i.SkillsAnalysis == nil {
		return nil
	}
	names := make([]string, 0, i.SkillsAnalysis.Len())
	for pair := i.SkillsAnalysis.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
