package cmd

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invio/internal/logger"
	"invio/pkg/models"
)

var createCmd = &cobra.Command{
	Use:   "create [draft-file]",
	Short: "Submit a draft invoice to the ledger contract",
	Long: `Submit a local draft file as one on-chain invoice record.

The draft is a JSON file with line items, a client, and a payment
currency (ETH or USDC). Totals are recomputed from the line items
before submission, so stale amounts in the file never reach the chain.
The recipient is taken from the draft's client address when it is a
valid Ethereum address, otherwise from FALLBACK_RECIPIENT.

Required environment variables:
  ETH_RPC_URL - JSON-RPC endpoint of an Ethereum node
  ETH_PRIVATE_KEY - Hex private key of the creator account
  INVOICE_CONTRACT_ADDRESS - Ledger contract (optional on known chains)`,
	Example: `  # Submit a draft
  invio create draft.json

  # Attach a document reference (content hash of the file)
  invio create draft.json --attach invoice.pdf

  # Override the recipient address
  invio create draft.json --recipient 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().String("attach", "", "File whose content hash is stored as the attachment reference")
	createCmd.Flags().String("recipient", "", "Recipient address, overrides the draft's client address")
	createCmd.Flags().Int("timeout", 120, "Operation timeout in seconds")
}

func runCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create")

	attachPath, _ := cmd.Flags().GetString("attach")
	recipient, _ := cmd.Flags().GetString("recipient")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	d, err := loadDraft(args[0])
	if err != nil {
		return err
	}
	if recipient != "" {
		d.ClientAddress = recipient
	}

	attachmentRef := ""
	if attachPath != "" {
		attachmentRef, err = hashAttachment(attachPath)
		if err != nil {
			return err
		}
		log.Info().
			Str("file", attachPath).
			Str("ref", attachmentRef).
			Msg("Attachment hashed")
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	sess, svc, err := openService(ctx, log)
	if err != nil {
		return friendlyError(err)
	}
	defer sess.Close()

	hash, err := svc.Submit(ctx, d, attachmentRef)
	if err != nil {
		log.Error().Err(err).Msg("Invoice submission failed")
		return friendlyError(err)
	}

	fmt.Printf("Invoice submitted: %s\n", hash.Hex())
	return nil
}

func loadDraft(path string) (*models.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft file %s: %w", path, err)
	}
	return &d, nil
}

// hashAttachment stores a verifiable reference to the source document
// without putting the document itself on chain.
func hashAttachment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment: %w", err)
	}
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data)), nil
}
