// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"onoffice/cli/internal/query"
)

var getSelect []string

// getCmd fetches a single record by id.
var getCmd = &cobra.Command{
	Use:   "get <entity> <id>",
	Short: "Fetch a single record by id",
	Long: `The get command fetches one record of an entity by its numeric id.

Examples:
  onoffice get estate 1234
  onoffice get address 42 --select Name,Vorname --json`,
	Args: exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		var res *query.GetResult
		err = sess.spin("Fetching "+args[0]+" #"+args[1]+"...", func() error {
			var err error
			res, err = sess.dispatcher.Get(cmd.Context(), args[0], args[1], cleanFields(getSelect))
			return err
		})
		if err != nil {
			return err
		}
		return sess.formatter.Success(res.Record, res.Meta)
	},
}

func init() {
	getCmd.Flags().StringSliceVar(&getSelect, "select", nil, "Fields to return (repeatable or comma-separated)")
	addJSONFlag(getCmd)
	rootCmd.AddCommand(getCmd)
}
