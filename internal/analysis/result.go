// Package analysis models the output of one comprehensive resume analysis
// iteration and the rule that assembles it from the server envelope.
package analysis

import (
	"encoding/json"
	"strings"
)

// Result is the immutable output of one analysis iteration.
type Result struct {
	AgentResults    AgentResults    `json:"agent_results"`
	FinalAssessment FinalAssessment `json:"final_assessment"`
	Metadata        Metadata        `json:"metadata"`
}

type AgentResults struct {
	SkillsExtraction AgentResult[SkillsData]    `json:"skills_extraction"`
	ResumeQuality    AgentResult[QualityData]   `json:"resume_quality"`
	JobMatching      *AgentResult[MatchingData] `json:"job_matching,omitempty"`
}

type AgentResult[T any] struct {
	Success    bool    `json:"success"`
	Data       T       `json:"data"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

type SkillsData struct {
	TechnicalSkills []Skill  `json:"technical_skills,omitempty"`
	SoftSkills      []Skill  `json:"soft_skills,omitempty"`
	Skills          []Skill  `json:"skills,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	ExperienceYears float64  `json:"experience_years,omitempty"`
}

// Skill accepts both the plain string form and the object form the agents
// emit.
type Skill struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Proficiency string  `json:"proficiency,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

func (s *Skill) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Skill{Name: strings.TrimSpace(name)}
		return nil
	}

	type plain Skill
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	obj.Name = strings.TrimSpace(obj.Name)
	*s = Skill(obj)
	return nil
}

type QualityData struct {
	OverallScore  float64            `json:"overall_score"`
	SectionScores map[string]float64 `json:"section_scores,omitempty"`
	Strengths     []string           `json:"strengths,omitempty"`
	Improvements  []string           `json:"improvements,omitempty"`
	ATSScore      float64            `json:"ats_score,omitempty"`
}

type MatchingData struct {
	MatchScore    float64  `json:"match_score"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
	Summary       string   `json:"summary,omitempty"`
}

type FinalAssessment struct {
	ExecutiveSummary         ExecutiveSummary `json:"executive_summary"`
	RiskAssessment           RiskAssessment   `json:"risk_assessment"`
	NextSteps                []string         `json:"next_steps,omitempty"`
	SkillGaps                []SkillGap       `json:"skill_gaps,omitempty"`
	StrategicRecommendations []Recommendation `json:"strategic_recommendations,omitempty"`
}

type ExecutiveSummary struct {
	// OverallScore is on a 0-100 scale.
	OverallScore   float64  `json:"overall_score"`
	Recommendation string   `json:"recommendation"`
	KeyStrengths   []string `json:"key_strengths,omitempty"`
	KeyConcerns    []string `json:"key_concerns,omitempty"`
}

type RiskAssessment struct {
	Level   string   `json:"level,omitempty"`
	Factors []string `json:"factors,omitempty"`
}

type SkillGap struct {
	Skill      string `json:"skill"`
	Importance string `json:"importance,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type Metadata struct {
	Confidence     float64 `json:"confidence"`
	ProcessingTime float64 `json:"processing_time"`
	Timestamp      string  `json:"timestamp"`
}

// SkillNames returns the extracted skill names in the order the agent
// reported them: technical, then generic, then soft skills. Blank and
// repeated names are skipped.
func (r *Result) SkillNames() []string {
	if r == nil {
		return nil
	}

	data := r.AgentResults.SkillsExtraction.Data
	groups := [][]Skill{data.TechnicalSkills, data.Skills, data.SoftSkills}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, group := range groups {
		for _, skill := range group {
			key := strings.ToLower(skill.Name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, skill.Name)
		}
	}
	return names
}
