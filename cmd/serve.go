package cmd

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"invio/internal/config"
	"invio/internal/logger"
	"invio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the invoicing operations as a JSON HTTP API",
	Long: `Run an HTTP server exposing invoice queries, submission, and payment
over JSON. Without ETH_PRIVATE_KEY the server runs read-only: queries
work, writes are rejected.

The server re-reads chain state on every request; there is no cache to
invalidate and no state to migrate.`,
	Example: `  # Serve on the configured address (LISTEN_ADDR, default :8080)
  invio serve

  # Serve on an explicit address
  invio serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address, overrides LISTEN_ADDR")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		addr = cfg.ListenAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, svc, err := openService(ctx, log)
	if err != nil {
		return friendlyError(err)
	}
	defer sess.Close()

	// Log chain switches while the server runs; contract addresses are
	// resolved at startup, so a switch warrants a restart.
	unsubscribe := sess.OnChainChanged(func(id *big.Int) {
		log.Warn().
			Str("chain_id", id.String()).
			Msg("Connected node switched chains, restart to re-resolve contracts")
	})
	defer unsubscribe()

	srv := server.New(svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}
