// Package invoicing implements the application operations over the
// ledger client: submitting a draft as exactly one on-chain create,
// partitioning invoices for an account, and paying a pending invoice.
// There is no cache between operations; every call re-queries the
// ledger, so observed state is only as stale as the last call.
package invoicing

import (
	"context"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"invio/internal/draft"
	"invio/internal/ledger"
	"invio/internal/logger"
	"invio/pkg/models"
)

// Wallet is the slice of the wallet session the service needs: the
// active account, if any.
type Wallet interface {
	Account() (common.Address, bool)
}

// AccountInvoices holds the two partitions for an account: invoices it
// created and unpaid invoices it owes. The sets come straight from the
// ledger, unmerged and in ledger order.
type AccountInvoices struct {
	Created []models.Invoice `json:"created"`
	Pending []models.Invoice `json:"pending"`
}

// Detail is a single invoice projected for a viewer.
type Detail struct {
	Invoice     *models.Invoice `json:"invoice"`
	IsCreator   bool            `json:"isCreator"`
	IsRecipient bool            `json:"isRecipient"`
	// Payable is true only when the viewer is the recipient and the
	// invoice is unpaid; the pay action is offered exactly then.
	Payable bool `json:"payable"`
}

// Metrics are the dashboard numbers for an account. Values are in the
// smallest currency unit.
type Metrics struct {
	TotalCreated  int      `json:"totalCreated"`
	TotalPending  int      `json:"totalPending"`
	TotalPaid     int      `json:"totalPaid"`
	TotalValue    *big.Int `json:"totalValue"`
	ReceivedValue *big.Int `json:"receivedValue"`
}

// Service wires the wallet session and the ledger client together.
type Service struct {
	log               zerolog.Logger
	ledger            ledger.Ledger
	wallet            Wallet
	fallbackRecipient common.Address

	creating atomic.Bool
	paying   atomic.Bool
}

// NewService builds a service. fallbackRecipient is used when a draft
// carries no parseable client address; it may be zero, in which case
// such drafts are rejected at submission.
func NewService(l ledger.Ledger, w Wallet, fallbackRecipient common.Address) *Service {
	return &Service{
		log:               logger.WithComponent("invoicing"),
		ledger:            l,
		wallet:            w,
		fallbackRecipient: fallbackRecipient,
	}
}

// Submit turns a draft into exactly one createInvoice call: recipient
// from the draft's client address or the configured fallback, amount
// from the recomputed total converted to the smallest unit, and the
// first line item's description (or a fallback label) as the on-chain
// description. The draft itself stays client-local and is left intact
// on failure so the user can retry.
//
// At most one submission is in flight per service instance; a
// concurrent second call is refused with ErrSubmissionInFlight.
func (s *Service) Submit(ctx context.Context, d *models.Draft, attachmentRef string) (common.Hash, error) {
	account, ok := s.wallet.Account()
	if !ok {
		return common.Hash{}, ErrNoWallet
	}

	if !s.creating.CompareAndSwap(false, true) {
		return common.Hash{}, ErrSubmissionInFlight
	}
	defer s.creating.Store(false)

	// Re-derive totals so a hand-edited draft file cannot submit a
	// total inconsistent with its line items.
	form := draft.FromDraft(d)
	d = form.Draft()

	amount, err := draft.SmallestUnit(d.Total, d.Currency)
	if err != nil {
		return common.Hash{}, err
	}

	recipient := s.fallbackRecipient
	if addr := strings.TrimSpace(d.ClientAddress); common.IsHexAddress(addr) {
		recipient = common.HexToAddress(addr)
	}
	if recipient == (common.Address{}) {
		return common.Hash{}, ErrNoRecipient
	}

	description := submitDescription(d)

	s.log.Info().
		Str("creator", account.Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Str("currency", d.Currency).
		Str("invoice_number", d.InvoiceNumber).
		Msg("Submitting invoice")

	return s.ledger.CreateInvoice(ctx, recipient, amount, description, attachmentRef)
}

func submitDescription(d *models.Draft) string {
	if len(d.Items) > 0 && d.Items[0].Description != "" {
		return d.Items[0].Description
	}
	if d.InvoiceNumber != "" {
		return "Invoice " + d.InvoiceNumber
	}
	return "Invoice"
}

// ListForAccount issues the two independent partition reads for the
// address. A zero address yields two empty sets with no network call,
// keeping "not connected" separate from "connected with no invoices";
// a failing read returns an error, keeping it separate from both.
func (s *Service) ListForAccount(ctx context.Context, account common.Address) (*AccountInvoices, error) {
	if account == (common.Address{}) {
		return &AccountInvoices{
			Created: []models.Invoice{},
			Pending: []models.Invoice{},
		}, nil
	}

	created, err := s.ledger.InvoicesByUser(ctx, account)
	if err != nil {
		return nil, err
	}
	pending, err := s.ledger.PendingInvoices(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AccountInvoices{Created: created, Pending: pending}, nil
}

// Detail resolves one invoice and projects it for the active account.
func (s *Service) Detail(ctx context.Context, id uint64) (*Detail, error) {
	inv, err := s.ledger.Invoice(ctx, id)
	if err != nil {
		return nil, err
	}

	det := &Detail{Invoice: inv}
	if account, ok := s.wallet.Account(); ok {
		det.IsCreator = account == inv.Creator
		det.IsRecipient = account == inv.Recipient
		det.Payable = inv.PayableBy(account)
	}
	return det, nil
}

// Pay pays one invoice once: the active account must be the
// recipient and the invoice unpaid, and the attached value is the
// stored amount exactly as the ledger reported it. The local view is
// not mutated on success; callers re-query to observe isPaid.
func (s *Service) Pay(ctx context.Context, id uint64) (common.Hash, error) {
	account, ok := s.wallet.Account()
	if !ok {
		return common.Hash{}, ErrNoWallet
	}

	if !s.paying.CompareAndSwap(false, true) {
		return common.Hash{}, ErrPaymentInFlight
	}
	defer s.paying.Store(false)

	inv, err := s.ledger.Invoice(ctx, id)
	if err != nil {
		return common.Hash{}, err
	}
	if inv.IsPaid {
		return common.Hash{}, ErrAlreadyPaid
	}
	if inv.Recipient != account {
		return common.Hash{}, ErrNotRecipient
	}

	s.log.Info().
		Uint64("invoice_id", id).
		Str("amount", inv.Amount.String()).
		Str("payer", account.Hex()).
		Msg("Paying invoice")

	return s.ledger.PayInvoice(ctx, id, inv.Amount)
}

// MetricsFor computes the dashboard numbers for an account from a
// fresh partition read.
func (s *Service) MetricsFor(ctx context.Context, account common.Address) (*Metrics, error) {
	list, err := s.ListForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		TotalCreated:  len(list.Created),
		TotalPending:  len(list.Pending),
		TotalValue:    new(big.Int),
		ReceivedValue: new(big.Int),
	}
	for i := range list.Created {
		inv := &list.Created[i]
		m.TotalValue.Add(m.TotalValue, inv.Amount)
		if inv.IsPaid {
			m.TotalPaid++
			m.ReceivedValue.Add(m.ReceivedValue, inv.Amount)
		}
	}
	return m, nil
}
