// Package wallet provides an explicit wallet-session handle: the
// active account, the connected chain, and the RPC client, threaded
// through construction instead of living in ambient global state.
// Chain changes are observed through an explicit subscription that
// returns an unsubscribe handle.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"invio/internal/logger"
)

var (
	// ErrProviderUnavailable is returned when no RPC node can be
	// reached. Without a provider neither reads nor writes can run.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrBadPrivateKey is returned when the configured private key
	// does not parse.
	ErrBadPrivateKey = errors.New("invalid private key")
)

// defaultPollInterval is how often the session re-checks the node's
// chain id when chain-change subscribers exist.
const defaultPollInterval = 15 * time.Second

// Session is the wallet-session handle. A session without a private
// key is read-only: Account reports no active account and write
// operations are refused downstream.
type Session struct {
	log zerolog.Logger
	eth *ethclient.Client
	key *ecdsa.PrivateKey

	account common.Address

	// chainFn is how the session asks the node for its chain id;
	// swapped out in tests.
	chainFn func(context.Context) (*big.Int, error)

	pollInterval time.Duration

	mu       sync.Mutex
	chainID  *big.Int
	nextSub  int
	subs     map[int]func(*big.Int)
	pollStop chan struct{}
}

// Open dials the RPC endpoint and establishes a session. privKeyHex
// may be empty for a read-only session. apiKey, when set, is attached
// as a bearer token for hosted RPC providers.
func Open(ctx context.Context, rpcURL, apiKey, privKeyHex string) (*Session, error) {
	var opts []rpc.ClientOption
	if apiKey != "" {
		opts = append(opts, rpc.WithHeader("Authorization", "Bearer "+apiKey))
	}

	rpcClient, err := rpc.DialOptions(ctx, rpcURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	eth := ethclient.NewClient(rpcClient)

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s := &Session{
		log:          logger.WithComponent("wallet"),
		eth:          eth,
		chainFn:      eth.ChainID,
		pollInterval: defaultPollInterval,
		chainID:      chainID,
		subs:         make(map[int]func(*big.Int)),
	}

	if privKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("%w: %v", ErrBadPrivateKey, err)
		}
		s.key = key
		s.account = crypto.PubkeyToAddress(key.PublicKey)
		s.log.Info().
			Str("account", s.account.Hex()).
			Str("chain_id", chainID.String()).
			Msg("Wallet session opened")
	} else {
		s.log.Info().
			Str("chain_id", chainID.String()).
			Msg("Read-only session opened, no private key configured")
	}

	return s, nil
}

// Account returns the active account and whether one is present.
func (s *Session) Account() (common.Address, bool) {
	return s.account, s.key != nil
}

// Key returns the signing key, nil for a read-only session.
func (s *Session) Key() *ecdsa.PrivateKey {
	return s.key
}

// ChainID returns the chain id observed most recently.
func (s *Session) ChainID() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.chainID)
}

// EthClient exposes the underlying RPC connection so collaborators
// (the ledger client) share one dial.
func (s *Session) EthClient() *ethclient.Client {
	return s.eth
}

// OnChainChanged registers fn to be called with the new chain id
// whenever the node reports a different chain. The returned function
// unsubscribes; the last unsubscribe stops the background poll.
func (s *Session) OnChainChanged(fn func(newChainID *big.Int)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	if s.pollStop == nil {
		s.pollStop = make(chan struct{})
		go s.poll(s.pollStop)
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			if len(s.subs) == 0 && s.pollStop != nil {
				close(s.pollStop)
				s.pollStop = nil
			}
			s.mu.Unlock()
		})
	}
}

func (s *Session) poll(stop chan struct{}) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.pollInterval)
			s.pollOnce(ctx)
			cancel()
		}
	}
}

// pollOnce asks the node for its chain id and notifies subscribers on
// change. Poll failures are logged and skipped, not propagated; the
// next tick retries.
func (s *Session) pollOnce(ctx context.Context) {
	chainID, err := s.chainFn(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Chain id poll failed")
		return
	}

	s.mu.Lock()
	changed := s.chainID.Cmp(chainID) != 0
	if changed {
		s.log.Info().
			Str("old", s.chainID.String()).
			Str("new", chainID.String()).
			Msg("Chain changed")
		s.chainID = new(big.Int).Set(chainID)
	}
	var fns []func(*big.Int)
	if changed {
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(new(big.Int).Set(chainID))
	}
}

// Close releases the RPC connection and stops any poller.
func (s *Session) Close() {
	s.mu.Lock()
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
	s.mu.Unlock()
	if s.eth != nil {
		s.eth.Close()
	}
}
