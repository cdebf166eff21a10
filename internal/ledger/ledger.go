// Package ledger is the client for the on-chain invoice ledger
// contract. The contract is the source of truth for invoice state:
// this package only issues calls and decodes results, it never
// recomputes amounts or mutates payment status locally.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"invio/pkg/models"
)

// Ledger is the query/command surface of the invoice contract.
type Ledger interface {
	// CreateInvoice records a new invoice and returns the transaction
	// hash. Amount is in the chain's smallest unit.
	CreateInvoice(ctx context.Context, recipient common.Address, amount *big.Int, description, attachmentRef string) (common.Hash, error)

	// PayInvoice pays the invoice, attaching amount as the transaction
	// value. Callers pass the invoice's stored amount exactly; the
	// contract enforces correctness.
	PayInvoice(ctx context.Context, id uint64, amount *big.Int) (common.Hash, error)

	// Invoice resolves a single invoice by id.
	Invoice(ctx context.Context, id uint64) (*models.Invoice, error)

	// InvoicesByUser returns every invoice created by the address, in
	// the order the contract returns them.
	InvoicesByUser(ctx context.Context, user common.Address) ([]models.Invoice, error)

	// PendingInvoices returns the unpaid invoices where the address is
	// the recipient, in the order the contract returns them.
	PendingInvoices(ctx context.Context, user common.Address) ([]models.Invoice, error)
}
