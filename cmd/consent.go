package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-radar/internal/consent"
)

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Show or change the data consents stored on the server",
	Args:  cobra.NoArgs,
	RunE:  showConsent,
}

var consentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the data consents stored on the server",
	Args:  cobra.NoArgs,
	RunE:  showConsent,
}

var consentGrantCmd = &cobra.Command{
	Use:       "grant KIND",
	Short:     "Grant a consent (market_analysis, data_contribution, resume_storage)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConsent(cmd, args[0], true)
	},
}

var consentRevokeCmd = &cobra.Command{
	Use:       "revoke KIND",
	Short:     "Revoke a consent",
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConsent(cmd, args[0], false)
	},
}

func init() {
	consentCmd.AddCommand(consentShowCmd, consentGrantCmd, consentRevokeCmd)
	rootCmd.AddCommand(consentCmd)
}

func showConsent(cmd *cobra.Command, _ []string) error {
	return withConsent(cmd, func(ctx context.Context, a *application) error {
		renderConsent(cmd.OutOrStdout(), a.consent.Load(ctx))
		return nil
	})
}

func kindNames() []string {
	kinds := consent.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}

func setConsent(cmd *cobra.Command, name string, granted bool) error {
	kind, err := consent.ParseKind(name)
	if err != nil {
		return err
	}

	return withConsent(cmd, func(ctx context.Context, a *application) error {
		a.consent.Load(ctx)
		if err := a.orch.SetConsent(ctx, kind, granted); err != nil {
			return err
		}
		renderConsent(cmd.OutOrStdout(), a.consent.Snapshot())
		return nil
	})
}

func withConsent(cmd *cobra.Command, fn func(context.Context, *application) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close(ctx)

	return fn(ctx, a)
}
