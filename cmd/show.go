package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"invio/internal/logger"
)

var showCmd = &cobra.Command{
	Use:   "show [invoice-id]",
	Short: "Show one invoice as stored on the ledger",
	Long: `Fetch a single invoice by its numeric id and print it as JSON,
together with the active account's relationship to it: whether it
created the invoice, whether it owes it, and whether it can pay it
right now.`,
	Example: `  invio show 3`,
	Args:    cobra.ExactArgs(1),
	RunE:    runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Int("timeout", 60, "Operation timeout in seconds")
}

func runShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("show")

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

	det, err := svc.Detail(ctx, id)
	if err != nil {
		log.Error().Err(err).Uint64("invoice_id", id).Msg("Invoice lookup failed")
		return friendlyError(err)
	}

	return printJSON(det)
}
