package analysis

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestMergeUsesOuterMetadata(t *testing.T) {
	raw := `{
		"success": true,
		"data": {
			"final_assessment": {"executive_summary": {"overall_score": 78, "recommendation": "strong"}},
			"metadata": {"confidence": 0.1, "processing_time": 1, "timestamp": "inner"}
		},
		"metadata": {"confidence": 0.92, "processing_time": 12.5, "timestamp": "2026-01-02T03:04:05Z"}
	}`

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	result, err := Merge(&env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Metadata{Confidence: 0.92, ProcessingTime: 12.5, Timestamp: "2026-01-02T03:04:05Z"}
	if result.Metadata != expected {
		t.Fatalf("expected outer metadata %+v, got %+v", expected, result.Metadata)
	}
	if result.FinalAssessment.ExecutiveSummary.OverallScore != 78 {
		t.Fatalf("expected nested data to be kept")
	}
	if env.Data.Metadata.Timestamp != "inner" {
		t.Fatalf("expected envelope data to stay untouched")
	}
}

func TestMergeFailures(t *testing.T) {
	if _, err := Merge(nil); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("expected ErrEmptyData for nil envelope, got %v", err)
	}

	_, err := Merge(&Envelope{Success: false, Detail: "resume too short"})
	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedError, got %v", err)
	}
	if failed.Error() != "analysis failed: resume too short" {
		t.Fatalf("unexpected message: %q", failed.Error())
	}

	if (&FailedError{}).Error() != "analysis failed" {
		t.Fatalf("expected generic message without detail")
	}

	if _, err := Merge(&Envelope{Success: true}); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("expected ErrEmptyData for missing data, got %v", err)
	}
}

func TestSkillNames(t *testing.T) {
	raw := `{
		"agent_results": {
			"skills_extraction": {
				"success": true,
				"confidence": 0.8,
				"data": {
					"technical_skills": ["Go", {"name": "Kubernetes", "category": "infra"}, " "],
					"skills": [{"name": "go"}, "PostgreSQL"],
					"soft_skills": ["Mentoring"]
				}
			}
		}
	}`

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}

	expected := []string{"Go", "Kubernetes", "PostgreSQL", "Mentoring"}
	if got := result.SkillNames(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}

	var empty *Result
	if len(empty.SkillNames()) != 0 {
		t.Fatalf("expected no skills for nil result")
	}
}
