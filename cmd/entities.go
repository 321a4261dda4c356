// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"onoffice/cli/internal/output"
)

// entitiesCmd lists the configured entities.
var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List the entities that can be queried",
	Args:  exactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		names := sess.registry.Names()
		infos := make([]output.EntityInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, output.EntityInfo{Name: name, Resource: sess.registry.Resource(name)})
		}
		return sess.formatter.Success(infos, output.EntitiesMeta{Count: len(infos)})
	},
}

func init() {
	addJSONFlag(entitiesCmd)
	rootCmd.AddCommand(entitiesCmd)
}
