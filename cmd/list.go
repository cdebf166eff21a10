package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"invio/internal/logger"
)

var listCmd = &cobra.Command{
	Use:   "list [address]",
	Short: "List invoices created by and owed by an account",
	Long: `Query the ledger contract for the two invoice partitions of an
account: invoices the account created, and pending invoices where the
account is the recipient.

The address argument is optional when ETH_PRIVATE_KEY is configured;
the active account is used then. Output is JSON on stdout.`,
	Example: `  # List for the active account
  invio list

  # List for an explicit address
  invio list 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266

  # Dashboard numbers instead of the full lists
  invio list --metrics`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("metrics", false, "Print aggregate numbers instead of the invoice lists")
	listCmd.Flags().Int("timeout", 60, "Operation timeout in seconds")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("list")

	showMetrics, _ := cmd.Flags().GetBool("metrics")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	sess, svc, err := openService(ctx, log)
	if err != nil {
		return friendlyError(err)
	}
	defer sess.Close()

	var account common.Address
	if len(args) == 1 {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid address: %s", args[0])
		}
		account = common.HexToAddress(args[0])
	} else if addr, ok := sess.Account(); ok {
		account = addr
	} else {
		return fmt.Errorf("no address given and no active account configured")
	}

	var out any
	if showMetrics {
		out, err = svc.MetricsFor(ctx, account)
	} else {
		out, err = svc.ListForAccount(ctx, account)
	}
	if err != nil {
		log.Error().Err(err).Str("account", account.Hex()).Msg("Invoice query failed")
		return friendlyError(err)
	}

	return printJSON(out)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
