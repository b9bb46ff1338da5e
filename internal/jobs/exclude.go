package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ExcludedCompanies is the on-disk list of employers the user never wants
// to see. The file may be empty.
type ExcludedCompanies struct {
	Items []ExcludedCompany `json:"items"`
}

type ExcludedCompany struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// ReadExcludedCompanies loads an exclude file. An empty file yields an empty
// list.
func ReadExcludedCompanies(path string) (*ExcludedCompanies, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() == 0 {
		return &ExcludedCompanies{}, nil
	}

	var excluded ExcludedCompanies
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedCompanies) Names() []string {
	names := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		if name := strings.TrimSpace(item.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func keepCompany(p Posting, c Criteria) bool {
	company := strings.ToLower(strings.TrimSpace(p.Company))
	if company == "" {
		return true
	}
	for _, excluded := range c.ExcludeCompanies {
		if strings.ToLower(strings.TrimSpace(excluded)) == company {
			return false
		}
	}
	return true
}
