// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the onoffice CLI.
// It implements the search, get, fields and entities commands against the
// onOffice API plus credential management, using the Cobra CLI framework.
// Each command renders either human-readable tables or JSON envelopes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	clierrors "onoffice/cli/internal/errors"
	"onoffice/cli/internal/output"
)

var (
	configPath string
	debugMode  bool
	apiClaim   string

	// jsonOutput is bound to every command's --json flag.
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "onoffice",
	Short: "Search and inspect onOffice CRM records from the command line",
	Long: `onoffice is a command-line client for the onOffice real-estate CRM API.

It searches records of an entity with filter expressions, fetches single
records by id, and lists the fields available for an entity. Results are shown
as tables, or as JSON envelopes with --json for scripting.

Credentials are read from ONOFFICE_API_TOKEN and ONOFFICE_API_SECRET, from the
config file, or from the OS keychain (see 'onoffice credentials set').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI application and exits with 0 on success, 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command tree for args. It is the single place where a
// failure is converted into an error payload and an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	f := output.NewFormatter(output.ModeFor(jsonOutput), stdout, stderr)
	if ferr := f.Failure(classify(err)); ferr != nil {
		fmt.Fprintln(stderr, err)
	}
	return 1
}

// classify maps errors that carry no kind to validation failures. Transport
// errors are classified by the dispatcher, so what remains here comes from
// argument and flag parsing.
func classify(err error) error {
	if _, ok := clierrors.As(err); ok {
		return err
	}
	return clierrors.New(clierrors.Validation, err.Error())
}

// addJSONFlag registers --json on c.
func addJSONFlag(c *cobra.Command) {
	c.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

// exactArgs is cobra.ExactArgs with the usage line in the error message.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return clierrors.Newf(clierrors.Validation,
				"%s expects %d argument(s), got %d. Usage: %s", cmd.Name(), n, len(args), cmd.UseLine())
		}
		return nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/onoffice/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log API requests to stderr")
	rootCmd.PersistentFlags().StringVar(&apiClaim, "api-claim", "", "Extended API claim (overrides api.claim)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.Wrap(clierrors.Validation, "Invalid flag", err)
	})
}
