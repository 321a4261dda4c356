// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the onoffice CLI.
// It searches, fetches and introspects onOffice CRM records from the terminal.
package main

import (
	"onoffice/cli/cmd"
)

func main() {
	cmd.Execute()
}
