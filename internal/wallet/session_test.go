package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invio/internal/logger"
)

func newTestSession(chainID int64, chainFn func(context.Context) (*big.Int, error)) *Session {
	return &Session{
		log:          logger.WithComponent("wallet-test"),
		chainFn:      chainFn,
		pollInterval: time.Minute,
		chainID:      big.NewInt(chainID),
		subs:         make(map[int]func(*big.Int)),
		// Non-nil so OnChainChanged does not start the background
		// poller; tests drive pollOnce directly.
		pollStop: make(chan struct{}),
	}
}

func TestPollOnceNotifiesOnChange(t *testing.T) {
	next := big.NewInt(31337)
	s := newTestSession(31337, func(context.Context) (*big.Int, error) {
		return new(big.Int).Set(next), nil
	})

	var got []*big.Int
	unsub := s.OnChainChanged(func(id *big.Int) {
		got = append(got, id)
	})
	defer unsub()

	// Same chain id: no notification
	s.pollOnce(context.Background())
	assert.Empty(t, got)

	// Chain switched: one notification with the new id
	next = big.NewInt(11155111)
	s.pollOnce(context.Background())
	assert.Len(t, got, 1)
	assert.Zero(t, big.NewInt(11155111).Cmp(got[0]))
	assert.Zero(t, big.NewInt(11155111).Cmp(s.ChainID()))

	// Stable again: still one
	s.pollOnce(context.Background())
	assert.Len(t, got, 1)
}

func TestPollOnceSkipsFailures(t *testing.T) {
	s := newTestSession(31337, func(context.Context) (*big.Int, error) {
		return nil, errors.New("connection refused")
	})

	called := false
	unsub := s.OnChainChanged(func(*big.Int) { called = true })
	defer unsub()

	s.pollOnce(context.Background())
	assert.False(t, called)
	assert.Zero(t, big.NewInt(31337).Cmp(s.ChainID()), "chain id unchanged on poll failure")
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	next := big.NewInt(1)
	s := newTestSession(31337, func(context.Context) (*big.Int, error) {
		return new(big.Int).Set(next), nil
	})

	calls := 0
	unsub := s.OnChainChanged(func(*big.Int) { calls++ })

	s.pollOnce(context.Background())
	assert.Equal(t, 1, calls)

	unsub()
	unsub() // Idempotent

	next = big.NewInt(2)
	s.pollOnce(context.Background())
	assert.Equal(t, 1, calls)
}

func TestReadOnlySessionHasNoAccount(t *testing.T) {
	s := newTestSession(31337, nil)
	addr, ok := s.Account()
	assert.False(t, ok)
	assert.Zero(t, addr)
}
