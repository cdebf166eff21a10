package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"invio/internal/extract"
	"invio/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import [pdf-file]",
	Short: "Extract a draft invoice from a PDF using Google Document AI",
	Long: `Process a PDF invoice with Google Document AI's invoice parser and
turn the result into a draft file ready for review and submission.

Line items, dates, the client, and the currency are pre-filled from the
document; totals are recomputed from the extracted line items. The
draft never leaves your machine until you run "invio create" on it.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_PROJECT_ID - Your Google Cloud project ID
  GOOGLE_LOCATION - Processing location (us, eu, etc.)
  GOOGLE_PROCESSOR_ID - Your Document AI invoice processor ID`,
	Example: `  # Extract to stdout
  invio import invoice.pdf

  # Write a draft file next to the PDF
  invio import invoice.pdf -o draft.json

  # Then submit it
  invio create draft.json --attach invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	importCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]
	if err := validatePDF(pdfPath); err != nil {
		return err
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	extractor, err := extract.New(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Document AI extractor")
		return err
	}
	defer func() {
		if closeErr := extractor.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close extractor")
		}
	}()

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer pdfFile.Close()

	start := time.Now()
	d, err := extractor.Extract(ctx, pdfFile)
	if err != nil {
		log.Error().Err(err).Str("file", pdfPath).Msg("Invoice extraction failed")
		return err
	}

	log.Info().
		Str("file", pdfPath).
		Str("invoice_number", d.InvoiceNumber).
		Int("line_items", len(d.Items)).
		Dur("duration", time.Since(start)).
		Msg("Invoice imported")

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

func validatePDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file not found: %s", path)
		}
		return fmt.Errorf("error accessing PDF file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("PDF file is empty: %s", path)
	}
	if info.Size() > extract.MaxDocumentSizeBytes {
		return fmt.Errorf("PDF file too large (%d bytes), maximum is %d bytes",
			info.Size(), extract.MaxDocumentSizeBytes)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		importLog := logger.WithComponent("import")
		importLog.Warn().
			Str("file", path).
			Msg("File does not have .pdf extension")
	}
	return nil
}
