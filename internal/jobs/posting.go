package jobs

import (
	"crypto/sha256"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

type Posting struct {
	Title           string   `json:"title" mapstructure:"title"`
	Company         string   `json:"company" mapstructure:"company"`
	Location        string   `json:"location" mapstructure:"location"`
	PostedDate      string   `json:"posted_date" mapstructure:"posted_date"`
	Description     string   `json:"description" mapstructure:"description"`
	Source          string   `json:"source" mapstructure:"source"`
	Salary          Salary   `json:"salary,omitempty" mapstructure:"salary"`
	ValidationScore *float64 `json:"validation_score,omitempty" mapstructure:"validation_score"`
	IsFresh         bool     `json:"is_fresh,omitempty" mapstructure:"is_fresh"`
	CompanyDomain   string   `json:"company_domain,omitempty" mapstructure:"company_domain"`
	ContactEmail    string   `json:"contact_email,omitempty" mapstructure:"contact_email"`
	URL             string   `json:"url,omitempty" mapstructure:"url"`
}

// Salary is the free-form salary text of a posting ("80k", "$80,000",
// "80000-120000"). Empty means the posting carries no salary.
type Salary string

// Key identifies a posting by its title, company and url. Postings have no
// stable id upstream, so this is the closest thing to identity.
func (p Posting) Key() string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(p.Title)),
		strings.ToLower(strings.TrimSpace(p.Company)),
		strings.ToLower(strings.TrimSpace(p.URL)),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%x", sum[:])
}

var salaryType = reflect.TypeOf(Salary(""))

// salaryHook keeps only string salaries. Anything else the backend sends in
// that field (numbers, objects) is dropped so the posting counts as having
// no salary at all.
func salaryHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != salaryType {
		return data, nil
	}
	if from.Kind() != reflect.String {
		return "", nil
	}
	return data, nil
}

// LenientScalarHook zeroes numeric and boolean fields whose string value
// cannot be parsed, so "n/a" in a score leaves the posting unscored instead
// of failing it.
func LenientScalarHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	target := to
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" {
		return data, nil
	}

	var err error
	switch target.Kind() {
	case reflect.Float32, reflect.Float64:
		_, err = strconv.ParseFloat(s, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		_, err = strconv.ParseInt(s, 0, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		_, err = strconv.ParseUint(s, 0, 64)
	case reflect.Bool:
		_, err = strconv.ParseBool(s)
	default:
		return data, nil
	}
	if err == nil {
		return data, nil
	}

	if to.Kind() == reflect.Ptr {
		return nil, nil
	}
	return reflect.Zero(to).Interface(), nil
}

// DecodePostings converts loosely typed posting objects, as they come out of
// a generic JSON decode, into postings. Numeric fields delivered as strings
// are accepted and unparseable ones are zeroed. Entries that are not objects
// or still cannot be decoded are skipped; the returned errors describe the
// skipped objects.
func DecodePostings(raw []any) ([]Posting, []error) {
	postings := make([]Posting, 0, len(raw))
	var skipped []error
	for idx, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		var posting Posting
		cfg := &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(salaryHook, LenientScalarHook),
			WeaklyTypedInput: true,
			Result:           &posting,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("decode job posting %d: %w", idx, err))
			continue
		}
		if err := decoder.Decode(obj); err != nil {
			skipped = append(skipped, fmt.Errorf("decode job posting %d: %w", idx, err))
			continue
		}

		postings = append(postings, posting)
	}

	return postings, skipped
}
