package jobs

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMinSalary          = 0
	DefaultMaxSalary          = 200000
	DefaultMinValidationScore = 0.6
)

var digitRuns = regexp.MustCompile(`\d+`)

// Criteria narrows the postings shown to the user.
type Criteria struct {
	MinSalary          float64  `mapstructure:"min-salary"`
	MaxSalary          float64  `mapstructure:"max-salary"`
	Location           string   `mapstructure:"location"`
	FreshOnly          bool     `mapstructure:"fresh-only"`
	MinValidationScore float64  `mapstructure:"min-validation-score"`
	ExcludeCompanies   []string `mapstructure:"exclude-companies"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		MinSalary:          DefaultMinSalary,
		MaxSalary:          DefaultMaxSalary,
		MinValidationScore: DefaultMinValidationScore,
	}
}

// Filter returns the postings passing every rule of the criteria, in input
// order. The input is not modified.
//
// Freshness and location are strict. Validation score and salary fail open:
// an unscored (nil or zero) posting or one without a parseable salary passes.
func Filter(postings []Posting, c Criteria) []Posting {
	filtered := make([]Posting, 0, len(postings))
	for _, posting := range postings {
		if Matches(posting, c) {
			filtered = append(filtered, posting)
		}
	}
	return filtered
}

func Matches(p Posting, c Criteria) bool {
	for _, r := range rules {
		if !r.keep(p, c) {
			return false
		}
	}
	return true
}

type rule struct {
	name string
	keep func(Posting, Criteria) bool
}

var rules = []rule{
	{name: "fresh", keep: keepFresh},
	{name: "validation_score", keep: keepScored},
	{name: "location", keep: keepLocation},
	{name: "salary", keep: keepSalary},
	{name: "excluded_company", keep: keepCompany},
}

func keepFresh(p Posting, c Criteria) bool {
	return !c.FreshOnly || p.IsFresh
}

// keepScored treats a zero score like a missing one: the scraper reports 0
// for postings it did not validate.
func keepScored(p Posting, c Criteria) bool {
	if p.ValidationScore == nil || *p.ValidationScore == 0 {
		return true
	}
	return *p.ValidationScore >= c.MinValidationScore
}

func keepLocation(p Posting, c Criteria) bool {
	return c.Location == "" || strings.Contains(strings.ToLower(p.Location), strings.ToLower(c.Location))
}

func keepSalary(p Posting, c Criteria) bool {
	salary, ok := RepresentativeSalary(string(p.Salary))
	if !ok {
		return true
	}
	return salary >= c.MinSalary && salary <= c.MaxSalary
}

// Step describes what one rule did when the rules run in sequence.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Steps applies the rules one after another and reports how many postings
// each of them dropped. The last step's Left equals len(Filter(postings, c)).
func Steps(postings []Posting, c Criteria) []Step {
	steps := make([]Step, 0, len(rules))
	current := postings
	for _, r := range rules {
		next := make([]Posting, 0, len(current))
		for _, p := range current {
			if r.keep(p, c) {
				next = append(next, p)
			}
		}
		steps = append(steps, Step{
			Name:    r.name,
			Initial: len(current),
			Dropped: len(current) - len(next),
			Left:    len(next),
		})
		current = next
	}
	return steps
}

// RepresentativeSalary extracts the largest amount mentioned in a salary
// string, so a range resolves to its upper bound. Commas are treated as
// thousands separators. When the text mentions "k", amounts below 1000 are
// read as thousands. ok is false when the text holds no digits.
func RepresentativeSalary(salary string) (float64, bool) {
	if salary == "" {
		return 0, false
	}

	runs := digitRuns.FindAllString(strings.ReplaceAll(salary, ",", ""), -1)
	if len(runs) == 0 {
		return 0, false
	}

	thousands := strings.ContainsAny(salary, "kK")

	best := 0.0
	found := false
	for _, run := range runs {
		value, err := strconv.ParseFloat(run, 64)
		if err != nil {
			continue
		}
		if thousands && value < 1000 {
			value *= 1000
		}
		if !found || value > best {
			best = value
			found = true
		}
	}

	return best, found
}

// Paginate returns at most limit leading entries of filtered.
func Paginate(filtered []Posting, limit int) []Posting {
	if limit <= 0 {
		return []Posting{}
	}
	if limit > len(filtered) {
		limit = len(filtered)
	}
	return filtered[:limit]
}
