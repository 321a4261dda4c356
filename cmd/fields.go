// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"onoffice/cli/internal/query"
)

var (
	fieldsFilter string
	fieldsField  string
	fieldsFull   bool
)

// fieldsCmd lists the fields available for an entity.
var fieldsCmd = &cobra.Command{
	Use:   "fields <entity>",
	Short: "List available fields for an entity",
	Long: `The fields command lists the fields of an entity's module with their types.
It is available for estate, address, activity and searchcriteria unless
field_modules is configured.

--filter matches names case-insensitively as a substring, or as a wildcard
pattern when it contains '*'. --field shows a single field including its
permitted values.

Examples:
  onoffice fields estate --filter "*preis*"
  onoffice fields estate --field objekttyp
  onoffice fields address --full --json`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		opts := query.FieldsOptions{
			Filter: strings.TrimSpace(fieldsFilter),
			Field:  strings.TrimSpace(fieldsField),
			Full:   fieldsFull,
		}

		var res *query.FieldsResult
		err = sess.spin("Loading fields for "+args[0]+"...", func() error {
			var err error
			res, err = sess.dispatcher.Fields(cmd.Context(), args[0], opts)
			return err
		})
		if err != nil {
			return err
		}
		return sess.formatter.Success(res.Data, res.Meta)
	},
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsFilter, "filter", "", "Filter fields by name (case-insensitive, supports wildcards: *preis*)")
	fieldsCmd.Flags().StringVar(&fieldsField, "field", "", "Show details for a single field including permitted values")
	fieldsCmd.Flags().BoolVar(&fieldsFull, "full", false, "Show full field details including permitted values")
	addJSONFlag(fieldsCmd)
	rootCmd.AddCommand(fieldsCmd)
}
