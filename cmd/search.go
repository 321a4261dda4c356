// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"onoffice/cli/internal/query"
	"onoffice/cli/internal/where"
)

var (
	searchWhere       []string
	searchSelect      []string
	searchLimit       string
	searchOffset      string
	searchOrderBy     string
	searchOrderByDesc string
)

// searchCmd searches records of an entity.
var searchCmd = &cobra.Command{
	Use:   "search <entity>",
	Short: "Search records of an entity",
	Long: `The search command queries records of an entity. Filters are given as
'field operator value' expressions and are combined with AND.

Supported operators: =, !=, <, >, <=, >=, like, not like.
Values true, false and null and numbers are typed; everything else is a string.

Examples:
  onoffice search estate --where "status=1" --where "kaufpreis<500000"
  onoffice search address --where "Ort like %Aachen%" --select Name,Vorname --limit 20
  onoffice search estate --orderByDesc kaufpreis --json`,
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clauses, err := where.ParseMany(searchWhere)
		if err != nil {
			return err
		}

		opts := query.Options{
			Select:      cleanFields(searchSelect),
			Where:       clauses,
			OrderBy:     strings.TrimSpace(searchOrderBy),
			OrderByDesc: strings.TrimSpace(searchOrderByDesc),
		}
		if cmd.Flags().Changed("limit") {
			n := intFlag(searchLimit, 0)
			opts.Limit = &n
		}
		if cmd.Flags().Changed("offset") {
			n := intFlag(searchOffset, -1)
			opts.Offset = &n
		}

		sess, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		sess.log.Debug().
			Str("entity", args[0]).
			Int("where", len(clauses)).
			Strs("select", opts.Select).
			Msg("search")

		var res *query.SearchResult
		err = sess.spin("Searching "+args[0]+"...", func() error {
			var err error
			res, err = sess.dispatcher.Search(cmd.Context(), args[0], opts)
			return err
		})
		if err != nil {
			return err
		}
		return sess.formatter.Success(res.Records, res.Meta)
	},
}

// cleanFields trims field names and drops empty ones.
func cleanFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// intFlag parses an integer flag value. Text that is not an integer yields
// invalid, which the dispatcher rejects after the entity has been resolved.
func intFlag(value string, invalid int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return invalid
	}
	return n
}

func init() {
	searchCmd.Flags().StringArrayVar(&searchWhere, "where", nil, "Filter expression 'field op value' (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchSelect, "select", nil, "Fields to return (repeatable or comma-separated)")
	searchCmd.Flags().StringVar(&searchLimit, "limit", "", "Maximum number of records")
	searchCmd.Flags().StringVar(&searchOffset, "offset", "", "Number of records to skip")
	searchCmd.Flags().StringVar(&searchOrderBy, "orderBy", "", "Sort ascending by field")
	searchCmd.Flags().StringVar(&searchOrderByDesc, "orderByDesc", "", "Sort descending by field")
	addJSONFlag(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
