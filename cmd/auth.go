package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/resume-radar/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the API token",
}

var authSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store the API bearer token in the token file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		prompt := promptui.Prompt{
			Label: "API token",
			Mask:  '*',
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token is empty")
				}
				return nil
			},
		}
		token, err := prompt.Run()
		if err != nil {
			return err
		}

		src := secrets.Source{Name: "api token", File: config.TokenFile}
		if err := secrets.Save(src, token); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", config.TokenFile)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authSaveCmd)
	rootCmd.AddCommand(authCmd)
}
