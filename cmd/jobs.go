package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-radar/internal/consent"
	"github.com/spigell/resume-radar/internal/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Look up market data and job postings for a set of skills",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringSlice("skills", nil, "skills to look up, comma separated (at most 10 are sent)")
	jobsCmd.Flags().Bool("refresh", false, "bypass the server cache")
	jobsCmd.Flags().Float64("min-salary", jobs.DefaultMinSalary, "minimum salary")
	jobsCmd.Flags().Float64("max-salary", jobs.DefaultMaxSalary, "maximum salary")
	jobsCmd.Flags().String("location", "", "location substring, case insensitive")
	jobsCmd.Flags().Bool("fresh-only", false, "only show fresh postings")
	jobsCmd.Flags().Float64("min-validation-score", jobs.DefaultMinValidationScore, "minimum validation score for scored postings")
	jobsCmd.Flags().Int("limit", jobs.PageSize, "how many postings to print")
	jobsCmd.Flags().Bool("insights", false, "print market insights as well")

	_ = jobsCmd.MarkFlagRequired("skills")

	viper.BindPFlag("jobs.filter.min-salary", jobsCmd.Flags().Lookup("min-salary"))
	viper.BindPFlag("jobs.filter.max-salary", jobsCmd.Flags().Lookup("max-salary"))
	viper.BindPFlag("jobs.filter.location", jobsCmd.Flags().Lookup("location"))
	viper.BindPFlag("jobs.filter.fresh-only", jobsCmd.Flags().Lookup("fresh-only"))
	viper.BindPFlag("jobs.filter.min-validation-score", jobsCmd.Flags().Lookup("min-validation-score"))
}

func listJobs(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	out := cmd.OutOrStdout()

	a.consent.Load(ctx)
	if !a.consent.IsGranted(consent.KindMarketAnalysis) {
		fmt.Fprintln(out, "Market analysis consent is not granted; run 'resume-radar consent grant market_analysis'.")
		return nil
	}

	skills, _ := cmd.Flags().GetStringSlice("skills")
	refresh, _ := cmd.Flags().GetBool("refresh")
	if err := a.orch.LoadJobs(ctx, skills, refresh); err != nil {
		return err
	}

	criteria := a.board.Criteria()
	logSteps(a.logger, a.board.All(), criteria)
	a.logger.Info("job postings collected", zap.Int("count", a.board.Stats().Total))

	limit, _ := cmd.Flags().GetInt("limit")
	filtered := a.board.Filtered()
	visible := jobs.Paginate(filtered, limit)
	stats := a.board.Stats()
	stats.Visible = len(visible)
	renderPostings(out, visible, stats)

	if insights, _ := cmd.Flags().GetBool("insights"); insights {
		renderInsights(out, a.orch.Intelligence())
	}

	return nil
}
