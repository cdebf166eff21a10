package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"invio/pkg/models"
)

// NormalizeInvoice converts either representation the contract hands
// back into the named Invoice form.
//
// The invoices(uint256) getter returns the struct flattened into nine
// positional values; the list views return named tuples decoded into
// chainInvoice. Callers never see the difference: both go through
// here, and anything else is reported as ErrUnexpectedShape.
func NormalizeInvoice(v any) (*models.Invoice, error) {
	switch data := v.(type) {
	case chainInvoice:
		return fromChainInvoice(&data)
	case *chainInvoice:
		return fromChainInvoice(data)
	case []any:
		return fromPositional(data)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnexpectedShape, v)
}

func fromChainInvoice(ci *chainInvoice) (*models.Invoice, error) {
	if ci.Id == nil || ci.Amount == nil {
		return nil, fmt.Errorf("%w: missing id or amount", ErrUnexpectedShape)
	}
	return &models.Invoice{
		ID:            ci.Id.Uint64(),
		Creator:       ci.Creator,
		Recipient:     ci.Recipient,
		Amount:        new(big.Int).Set(ci.Amount),
		Description:   ci.Description,
		AttachmentRef: ci.IpfsHash,
		IsPaid:        ci.IsPaid,
		CreatedAt:     bigToUint64(ci.CreatedAt),
		PaidAt:        bigToUint64(ci.PaidAt),
	}, nil
}

// Positional layout: id, creator, recipient, amount, description,
// attachmentRef, isPaid, createdAt, paidAt.
func fromPositional(fields []any) (*models.Invoice, error) {
	if len(fields) != 9 {
		return nil, fmt.Errorf("%w: %d positional fields, want 9", ErrUnexpectedShape, len(fields))
	}

	id, ok := fields[0].(*big.Int)
	if !ok {
		return nil, shapeErr("id", fields[0])
	}
	creator, ok := fields[1].(common.Address)
	if !ok {
		return nil, shapeErr("creator", fields[1])
	}
	recipient, ok := fields[2].(common.Address)
	if !ok {
		return nil, shapeErr("recipient", fields[2])
	}
	amount, ok := fields[3].(*big.Int)
	if !ok {
		return nil, shapeErr("amount", fields[3])
	}
	description, ok := fields[4].(string)
	if !ok {
		return nil, shapeErr("description", fields[4])
	}
	attachmentRef, ok := fields[5].(string)
	if !ok {
		return nil, shapeErr("attachmentRef", fields[5])
	}
	isPaid, ok := fields[6].(bool)
	if !ok {
		return nil, shapeErr("isPaid", fields[6])
	}
	createdAt, ok := fields[7].(*big.Int)
	if !ok {
		return nil, shapeErr("createdAt", fields[7])
	}
	paidAt, ok := fields[8].(*big.Int)
	if !ok {
		return nil, shapeErr("paidAt", fields[8])
	}

	return &models.Invoice{
		ID:            id.Uint64(),
		Creator:       creator,
		Recipient:     recipient,
		Amount:        new(big.Int).Set(amount),
		Description:   description,
		AttachmentRef: attachmentRef,
		IsPaid:        isPaid,
		CreatedAt:     createdAt.Uint64(),
		PaidAt:        paidAt.Uint64(),
	}, nil
}

func shapeErr(field string, v any) error {
	return fmt.Errorf("%w: field %s has type %T", ErrUnexpectedShape, field, v)
}

func bigToUint64(n *big.Int) uint64 {
	if n == nil {
		return 0
	}
	return n.Uint64()
}
