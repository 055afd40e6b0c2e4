// Package cmd wires configuration, logging, and the chat pipeline into
// the skydocs command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skydocs",
	Short: "skydocs - retrieval-grounded documentation assistant",
	Long: `skydocs answers questions about a document corpus by searching
ingested pages and grounding every answer in the retrieved content.

Commands:
  serve    start the HTTP API server
  ask      answer a single question from the terminal
  ingest   split documents into page files and store them
  version  show version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
