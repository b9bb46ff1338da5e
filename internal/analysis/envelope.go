package analysis

import (
	"errors"
	"strings"
)

// Envelope is the response body of the analysis and refinement endpoints.
type Envelope struct {
	Success  bool     `json:"success"`
	Data     *Result  `json:"data"`
	Metadata Metadata `json:"metadata"`
	Detail   string   `json:"detail,omitempty"`
}

const genericFailure = "analysis failed"

// Request is the body of the comprehensive analysis endpoint.
type Request struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description,omitempty"`
	AnalysisType   string `json:"analysis_type"`
}

const DefaultAnalysisType = "comprehensive"

// FailedError reports a response that came back with success set to false.
type FailedError struct {
	Detail string
}

func (e *FailedError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return genericFailure
	}
	return genericFailure + ": " + e.Detail
}

var ErrEmptyData = errors.New("analysis response carries no data")

// Merge builds the iteration result from an envelope. The nested data is the
// base, but its metadata is replaced by the envelope's metadata: only the
// outer one carries authoritative confidence and timing.
func Merge(env *Envelope) (*Result, error) {
	if env == nil {
		return nil, ErrEmptyData
	}
	if !env.Success {
		return nil, &FailedError{Detail: env.Detail}
	}
	if env.Data == nil {
		return nil, ErrEmptyData
	}

	merged := *env.Data
	merged.Metadata = env.Metadata
	return &merged, nil
}
