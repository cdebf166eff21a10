package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"invio/internal/chains"
	"invio/internal/config"
	"invio/internal/invoicing"
	"invio/internal/ledger"
	"invio/internal/wallet"
)

// openService dials the configured RPC endpoint and assembles the full
// stack: wallet session, ledger client bound to the chain's contract
// address, and the invoicing service on top. The caller owns the
// session and must Close it.
func openService(ctx context.Context, log zerolog.Logger) (*wallet.Session, *invoicing.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	sess, err := wallet.Open(ctx, cfg.RPCURL, cfg.RPCAPIKey, cfg.PrivateKey)
	if err != nil {
		return nil, nil, err
	}

	// Contract addresses follow the connected chain; explicit env
	// overrides win over the registry.
	addrs := chains.Resolve(cfg.ChainID)
	if id := sess.ChainID(); id.IsUint64() {
		addrs = chains.ResolveID(id.Uint64())
	}
	if cfg.LedgerAddress != "" {
		addrs.Ledger = common.HexToAddress(cfg.LedgerAddress)
	}
	if cfg.TokenAddress != "" {
		addrs.Token = common.HexToAddress(cfg.TokenAddress)
	}

	var fallback common.Address
	if common.IsHexAddress(cfg.FallbackRecipient) {
		fallback = common.HexToAddress(cfg.FallbackRecipient)
	}

	log.Info().
		Str("rpc_url", cfg.RPCURL).
		Str("chain_id", sess.ChainID().String()).
		Str("ledger", addrs.Ledger.Hex()).
		Msg("Connected to invoice ledger")

	client := ledger.NewClient(sess.EthClient(), addrs.Ledger, sess.ChainID(), sess.Key())
	svc := invoicing.NewService(client, sess, fallback)
	return sess, svc, nil
}

// friendlyError prefixes known failures with what to do about them;
// unknown errors pass through with their original message intact.
func friendlyError(err error) error {
	switch {
	case errors.Is(err, wallet.ErrProviderUnavailable):
		return fmt.Errorf("cannot reach the RPC node, check ETH_RPC_URL: %w", err)
	case errors.Is(err, invoicing.ErrNoWallet), errors.Is(err, ledger.ErrReadOnly):
		return fmt.Errorf("no signing account configured, set ETH_PRIVATE_KEY: %w", err)
	case errors.Is(err, wallet.ErrBadPrivateKey):
		return fmt.Errorf("ETH_PRIVATE_KEY does not parse as a hex key: %w", err)
	case errors.Is(err, ledger.ErrInvoiceNotFound):
		return fmt.Errorf("no invoice with that id on this chain: %w", err)
	case errors.Is(err, invoicing.ErrNoRecipient):
		return fmt.Errorf("draft has no valid client address and FALLBACK_RECIPIENT is unset: %w", err)
	default:
		return err
	}
}

// signalContext returns a context that ends on timeout, SIGINT, or
// SIGTERM.
func signalContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling operation")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
