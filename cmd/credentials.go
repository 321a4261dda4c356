// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/keychain"
	"onoffice/cli/internal/logging"
	"onoffice/cli/internal/terminal"
)

var (
	credToken  string
	credSecret string
)

// credentialsCmd groups the keychain credential commands.
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage API credentials stored in the OS keychain",
	Long: `The credentials commands store the onOffice API token and secret in the OS
keychain. Stored credentials are used when ONOFFICE_API_TOKEN,
ONOFFICE_API_SECRET and the config file do not provide them.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API token and secret",
	Long: `The set command stores the API token and secret in the OS keychain.
Values not given as flags are prompted for; the secret is read without echo.`,
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

		token := credToken
		if token == "" {
			prompt := "API token: "
			v, err := p.Line(prompt)
			if err != nil {
				return clierrors.Wrap(clierrors.Validation, "API token is required", err)
			}
			terminal.ClearPreviousLines(cmd.OutOrStdout(), len(prompt)+len(v))
			token = v
		}
		secret := credSecret
		if secret == "" {
			v, err := p.Secret("API secret: ")
			if err != nil {
				return clierrors.Wrap(clierrors.Validation, "API secret is required", err)
			}
			secret = v
		}
		if token == "" || secret == "" {
			return clierrors.New(clierrors.Validation, "API token and secret are required")
		}

		km, err := keychain.GetManager()
		if err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Secure storage is not available", err)
		}
		if err := km.SaveCredentials(keychain.Credentials{Token: token, Secret: secret}); err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Failed to store credentials", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✅ Credentials stored in the OS keychain")
		return nil
	},
}

var credentialsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored credentials (masked)",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Secure storage is not available", err)
		}
		creds, err := km.LoadCredentials()
		if err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Failed to read credentials", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Token:  %s\n", logging.Redact(creds.Token))
		fmt.Fprintf(out, "Secret: %s\n", logging.Redact(creds.Secret))
		return nil
	},
}

var credentialsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored credentials",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Secure storage is not available", err)
		}
		if err := km.Clear(); err != nil {
			return clierrors.Wrap(clierrors.Unclassified, "Failed to remove credentials", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✅ Credentials have been removed")
		return nil
	},
}

func init() {
	credentialsSetCmd.Flags().StringVar(&credToken, "token", "", "API token (prompted when omitted)")
	credentialsSetCmd.Flags().StringVar(&credSecret, "secret", "", "API secret (prompted when omitted)")
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsShowCmd, credentialsClearCmd)
	rootCmd.AddCommand(credentialsCmd)
}
