package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/consent"
	"github.com/spigell/resume-radar/internal/jobs"
	"github.com/spigell/resume-radar/internal/orchestrator"
	"github.com/spigell/resume-radar/internal/session"
)

const (
	PromptRefine      = "Refine the analysis"
	PromptShowJobs    = "Show job postings"
	PromptLoadMore    = "Load more job postings"
	PromptFilter      = "Change job filters"
	PromptRefresh     = "Refresh market data"
	PromptInsights    = "Show market insights"
	PromptShowResult  = "Show the analysis again"
	PromptExit        = "Exit"
	PromptYes         = "Yes"
	PromptNo          = "No"
	defaultFeedbackOK = 4
)

var errExit = errors.New("exit requested")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume and collect matching job postings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (pdf, doc, docx or txt)")
	analyzeCmd.Flags().StringP("job-description", "J", "", "optional file with a job description to match against")
	analyzeCmd.Flags().Bool("vision", false, "use vision extraction for PDF resumes")
	analyzeCmd.Flags().String("analysis-type", "", "analysis type sent to the backend")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "offer refinement and job browsing after the analysis")

	_ = analyzeCmd.MarkFlagRequired("resume")
	viper.BindPFlag("analysis.type", analyzeCmd.Flags().Lookup("analysis-type"))
}

func analyze(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	resumePath, _ := cmd.Flags().GetString("resume")
	vision, _ := cmd.Flags().GetBool("vision")
	resumeText, err := readResume(ctx, a, resumePath, vision)
	if err != nil {
		return err
	}

	var jobDescription string
	if path, _ := cmd.Flags().GetString("job-description"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading job description: %w", err)
		}
		jobDescription = string(data)
	}

	a.consent.Load(ctx)
	if _, err := a.orch.CheckHealth(ctx); err != nil {
		a.logger.Warn("ai health check failed", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	result, err := a.orch.Run(ctx, orchestrator.Input{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
		Progress:       progressLogger(a.logger),
	})
	if err != nil {
		return err
	}
	renderResult(out, result)

	// The session and market loads finish in the background.
	a.orch.Wait()
	renderSession(out, a.orch.Session(), a.orch.CanRefine())
	renderPostings(out, a.board.Visible(), a.board.Stats())

	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive {
		return nil
	}

	for {
		if err := interact(ctx, a, cmd); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

// readResume reads plain text locally and sends other formats to the
// extraction endpoint.
func readResume(ctx context.Context, a *application, path string, vision bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return string(data), nil
	}

	extraction, err := a.client.ExtractDocument(ctx, path, data, vision)
	if err != nil {
		return "", fmt.Errorf("extracting resume text: %w", err)
	}
	a.logger.Debug("resume extracted", zap.String("method", extraction.Method), zap.Int("chars", len(extraction.Text)))

	return extraction.Text, nil
}

func progressLogger(log *zap.Logger) orchestrator.ProgressFunc {
	return func(e orchestrator.Event) {
		log.Info(string(e.Stage), zap.Int("progress", e.Percent), zap.Uint64("run", e.Generation))
	}
}

func interact(ctx context.Context, a *application, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	items := make([]string, 0, 8)
	if a.orch.CanRefine() {
		items = append(items, PromptRefine)
	}
	items = append(items, PromptShowJobs)
	if a.board.HasMore() {
		items = append(items, PromptLoadMore)
	}
	items = append(items, PromptFilter, PromptRefresh, PromptInsights, PromptShowResult, PromptExit)

	prompt := promptui.Select{Label: "What next?", Items: items}
	_, action, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return errExit
		}
		return err
	}

	switch action {
	case PromptRefine:
		feedback, err := askFeedback()
		if err != nil {
			return err
		}
		result, err := a.orch.Refine(ctx, feedback)
		if err != nil {
			if errors.Is(err, session.ErrRefinementUnavailable) {
				fmt.Fprintln(out, "Refinement is no longer available for this session.")
				return nil
			}
			a.logger.Warn("refinement failed", zap.Error(err))
			fmt.Fprintf(out, "Refinement failed: %v\n", err)
			return nil
		}
		renderResult(out, result)
		a.orch.Wait()
		renderSession(out, a.orch.Session(), a.orch.CanRefine())
	case PromptShowJobs:
		renderPostings(out, a.board.Visible(), a.board.Stats())
	case PromptLoadMore:
		a.board.LoadMore()
		renderPostings(out, a.board.Visible(), a.board.Stats())
	case PromptFilter:
		criteria, err := askCriteria(a.board.Criteria())
		if err != nil {
			return err
		}
		a.board.SetCriteria(criteria)
		logSteps(a.logger, a.board.All(), criteria)
		renderPostings(out, a.board.Visible(), a.board.Stats())
	case PromptRefresh:
		if !a.consent.IsGranted(consent.KindMarketAnalysis) {
			fmt.Fprintln(out, "Market analysis consent is not granted; run 'resume-radar consent grant market_analysis'.")
			return nil
		}
		if err := a.orch.RefreshJobs(ctx); err != nil {
			fmt.Fprintf(out, "Refreshing market data failed: %v\n", err)
			return nil
		}
		renderPostings(out, a.board.Visible(), a.board.Stats())
	case PromptInsights:
		renderInsights(out, a.orch.Intelligence())
	case PromptShowResult:
		renderResult(out, a.orch.Result())
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func askFeedback() (session.Feedback, error) {
	ratings := []string{"1 - not useful", "2 - needs major changes", "3 - okay", "4 - good", "5 - excellent"}
	satisfaction := promptui.Select{
		Label:     "How satisfied are you with this analysis?",
		Items:     ratings,
		CursorPos: defaultFeedbackOK - 1,
	}
	idx, _, err := satisfaction.Run()
	if err != nil {
		return session.Feedback{}, err
	}

	text, err := (&promptui.Prompt{Label: "What should be improved"}).Run()
	if err != nil {
		return session.Feedback{}, err
	}

	areas, err := (&promptui.Prompt{Label: "Focus areas (comma separated, optional)"}).Run()
	if err != nil {
		return session.Feedback{}, err
	}

	return session.Feedback{
		Satisfaction: idx + 1,
		Text:         strings.TrimSpace(text),
		Areas:        splitList(areas),
	}, nil
}

func askCriteria(current jobs.Criteria) (jobs.Criteria, error) {
	next := current

	number := func(label string, value float64) (float64, error) {
		prompt := promptui.Prompt{
			Label:   label,
			Default: strconv.FormatFloat(value, 'f', -1, 64),
			Validate: func(s string) error {
				_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				return err
			},
		}
		s, err := prompt.Run()
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}

	var err error
	if next.MinSalary, err = number("Minimum salary", current.MinSalary); err != nil {
		return current, err
	}
	if next.MaxSalary, err = number("Maximum salary", current.MaxSalary); err != nil {
		return current, err
	}
	if next.MinValidationScore, err = number("Minimum validation score", current.MinValidationScore); err != nil {
		return current, err
	}

	location, err := (&promptui.Prompt{Label: "Location contains", Default: current.Location}).Run()
	if err != nil {
		return current, err
	}
	next.Location = strings.TrimSpace(location)

	fresh := promptui.Select{Label: "Only fresh postings?", Items: []string{PromptNo, PromptYes}}
	_, answer, err := fresh.Run()
	if err != nil {
		return current, err
	}
	next.FreshOnly = answer == PromptYes

	return next, nil
}

func logSteps(log *zap.Logger, postings []jobs.Posting, criteria jobs.Criteria) {
	for _, step := range jobs.Steps(postings, criteria) {
		log.Debug("filter step",
			zap.String("name", step.Name),
			zap.Int("initial", step.Initial),
			zap.Int("dropped", step.Dropped),
			zap.Int("left", step.Left),
		)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
