package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spigell/resume-radar/internal/analysis"
	"github.com/spigell/resume-radar/internal/consent"
	"github.com/spigell/resume-radar/internal/jobs"
	"github.com/spigell/resume-radar/internal/market"
	"github.com/spigell/resume-radar/internal/session"
)

func renderResult(w io.Writer, r *analysis.Result) {
	if r == nil {
		fmt.Fprintln(w, "No analysis result.")
		return
	}

	summary := r.FinalAssessment.ExecutiveSummary
	fmt.Fprintf(w, "Overall score: %.0f/100 (confidence %.0f%%)\n", summary.OverallScore, r.Metadata.Confidence*100)
	if summary.Recommendation != "" {
		fmt.Fprintf(w, "Recommendation: %s\n", summary.Recommendation)
	}
	renderList(w, "Key strengths", summary.KeyStrengths)
	renderList(w, "Key concerns", summary.KeyConcerns)

	if skills := r.SkillNames(); len(skills) > 0 {
		fmt.Fprintf(w, "Skills: %s\n", strings.Join(skills, ", "))
	}

	quality := r.AgentResults.ResumeQuality
	if quality.Success {
		fmt.Fprintf(w, "Resume quality: %.0f\n", quality.Data.OverallScore)
		renderList(w, "Improvements", quality.Data.Improvements)
	}

	if match := r.AgentResults.JobMatching; match != nil && match.Success {
		fmt.Fprintf(w, "Job match: %.0f%%\n", match.Data.MatchScore)
		renderList(w, "Missing skills", match.Data.MissingSkills)
	}

	if risk := r.FinalAssessment.RiskAssessment; risk.Level != "" {
		fmt.Fprintf(w, "Risk: %s\n", risk.Level)
		renderList(w, "Risk factors", risk.Factors)
	}

	if gaps := r.FinalAssessment.SkillGaps; len(gaps) > 0 {
		fmt.Fprintln(w, "Skill gaps:")
		for _, gap := range gaps {
			fmt.Fprintf(w, "  - %s", gap.Skill)
			if gap.Importance != "" {
				fmt.Fprintf(w, " [%s]", gap.Importance)
			}
			if gap.Suggestion != "" {
				fmt.Fprintf(w, ": %s", gap.Suggestion)
			}
			fmt.Fprintln(w)
		}
	}

	if recs := r.FinalAssessment.StrategicRecommendations; len(recs) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range recs {
			fmt.Fprintf(w, "  - %s", rec.Title)
			if rec.Priority != "" {
				fmt.Fprintf(w, " (%s)", rec.Priority)
			}
			fmt.Fprintln(w)
			if rec.Description != "" {
				fmt.Fprintf(w, "    %s\n", rec.Description)
			}
		}
	}

	renderList(w, "Next steps", r.FinalAssessment.NextSteps)
}

func renderList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func renderSession(w io.Writer, s *session.Session, canRefine bool) {
	if s == nil {
		fmt.Fprintln(w, "Session: unavailable, refinement disabled.")
		return
	}
	state := "refinement available"
	if !canRefine {
		state = "refinement unavailable"
	}
	fmt.Fprintf(w, "Session %d: iteration %d of %d, %s.\n", s.ID, s.CurrentIteration, s.MaxIterations, state)
}

func renderPostings(w io.Writer, postings []jobs.Posting, stats jobs.Stats) {
	if stats.Total == 0 {
		fmt.Fprintln(w, "No job postings.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tCOMPANY\tLOCATION\tSALARY\tSCORE\tSOURCE")
	for i, p := range postings {
		score := "-"
		if p.ValidationScore != nil {
			score = fmt.Sprintf("%.2f", *p.ValidationScore)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", i+1, p.Title, p.Company, p.Location, dash(string(p.Salary)), score, dash(p.Source))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Showing %d of %d matching postings (%d collected, %d filtered out).\n",
		stats.Visible, stats.Filtered, stats.Total, stats.Dropped)
}

func renderInsights(w io.Writer, intel *market.Intelligence) {
	if intel == nil {
		fmt.Fprintln(w, "No market data.")
		return
	}

	for _, name := range intel.Skills() {
		s, _ := intel.SkillsAnalysis.Get(name)
		fmt.Fprintf(w, "%s: demand %.2f, %d jobs", name, s.DemandScore, s.JobCount)
		if s.AverageSalary != "" {
			fmt.Fprintf(w, ", average salary %s", s.AverageSalary)
		}
		fmt.Fprintln(w)
	}
	if m := intel.MarketAnalysis; m.TotalJobs > 0 {
		fmt.Fprintf(w, "Market: %d jobs", m.TotalJobs)
		if len(m.TopLocations) > 0 {
			fmt.Fprintf(w, ", top locations %s", strings.Join(m.TopLocations, ", "))
		}
		fmt.Fprintln(w)
	}

	if intel.Insights.Summary != "" {
		fmt.Fprintln(w, intel.Insights.Summary)
	}
	renderList(w, "Insights", intel.Insights.Recommendations)
}

func renderConsent(w io.Writer, status consent.Status) {
	for _, kind := range consent.Kinds() {
		state := "not granted"
		if status.Get(kind) {
			state = "granted"
		}
		fmt.Fprintf(w, "%-18s %s\n", kind, state)
	}
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
