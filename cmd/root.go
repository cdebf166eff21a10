package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invio/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invio",
	Short: "Invio CLI - invoices as records on an Ethereum ledger",
	Long: `Invio is a command-line interface for creating, querying, and paying
invoices stored on an Ethereum invoice-ledger contract.

Drafts are edited locally as JSON files; submission turns a draft into
exactly one on-chain record. Querying and payment always read the
current chain state, so what you see is what the contract stores.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invio CLI executed")

		fmt.Println("Welcome to Invio!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
