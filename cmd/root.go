// Package cmd defines the farego command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "farego",
	Short: "farego - intelligent bus inquiry assistant",
	Long: `farego answers questions about bus schedules, routes, and fares.

It serves an HTTP API backed by a Gemini agent with a retrieval-augmented
knowledge base, Wikipedia lookup, and news search. Conversations are
persisted to PostgreSQL.

Run "farego serve" to start the API server, or "farego ask" for a
one-shot question from the terminal.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
