package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"invio/internal/logger"
)

var payCmd = &cobra.Command{
	Use:   "pay [invoice-id]",
	Short: "Pay a pending invoice with the active account",
	Long: `Pay one invoice by its numeric id. The active account must be the
invoice's recipient and the invoice must be unpaid; the attached value
is exactly the amount stored on the ledger.

Requires ETH_PRIVATE_KEY for the paying account.`,
	Example: `  invio pay 3`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().Int("timeout", 120, "Operation timeout in seconds")
}

func runPay(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pay")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %s", args[0])
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	sess, svc, err := openService(ctx, log)
	if err != nil {
		return friendlyError(err)
	}
	defer sess.Close()

	hash, err := svc.Pay(ctx, id)
	if err != nil {
		log.Error().Err(err).Uint64("invoice_id", id).Msg("Invoice payment failed")
		return friendlyError(err)
	}

	fmt.Printf("Payment submitted: %s\n", hash.Hex())
	return nil
}
