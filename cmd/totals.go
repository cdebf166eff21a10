package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invio/internal/draft"
	"invio/internal/logger"
)

var totalsCmd = &cobra.Command{
	Use:   "totals [draft-file]",
	Short: "Recompute a draft's totals locally",
	Long: `Recompute per-line amounts, the subtotal, and the tax-inclusive
total of a draft file from its line items, entirely offline. The
on-chain amount the draft would submit as is printed alongside, in the
currency's smallest unit (wei for ETH, 6 decimals for USDC).

Use this to fix up a hand-edited draft before submission.`,
	Example: `  # Print the recomputed draft
  invio totals draft.json

  # Apply a tax rate and write the result back
  invio totals draft.json --tax 19 -o draft.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)

	totalsCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	totalsCmd.Flags().String("tax", "", "Tax percent to apply before recomputing")
}

func runTotals(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("totals")

	outputPath, _ := cmd.Flags().GetString("output")
	taxValue, _ := cmd.Flags().GetString("tax")

	d, err := loadDraft(args[0])
	if err != nil {
		return err
	}

	form := draft.FromDraft(d)
	if taxValue != "" {
		form.SetTaxPercent(taxValue)
	}
	d = form.Draft()

	log.Info().
		Str("invoice_number", d.InvoiceNumber).
		Float64("subtotal", d.Subtotal).
		Float64("total", d.Total).
		Str("currency", d.Currency).
		Msg("Draft totals recomputed")

	if amount, err := draft.SmallestUnit(d.Total, d.Currency); err == nil {
		fmt.Printf("On-chain amount: %s (%s)\n", amount.String(), d.Currency)
	} else if errors.Is(err, draft.ErrInexactAmount) {
		log.Warn().Err(err).Msg("Total is not representable on chain as-is")
	}

	if outputPath == "" {
		return printJSON(d)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write draft file: %w", err)
	}
	fmt.Printf("Draft written to %s\n", outputPath)
	return nil
}
