package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Invoice is the on-chain invoice record as stored by the ledger
// contract. Fields are immutable once created except IsPaid/PaidAt,
// which the contract sets exactly once on successful payment.
type Invoice struct {
	// Core identifiers
	ID uint64 `json:"id"` // Unique, monotonically assigned by the contract

	// Parties
	Creator   common.Address `json:"creator"`   // Account that created the invoice
	Recipient common.Address `json:"recipient"` // Account obligated to pay

	// Amount in the chain's smallest currency unit (wei-equivalent).
	// The contract is the source of truth; clients never recompute it.
	Amount *big.Int `json:"amount"`

	// Optional metadata
	Description   string `json:"description"`   // Free text, may be empty
	AttachmentRef string `json:"attachmentRef"` // Off-chain content reference (e.g. sha256/IPFS hash), may be empty

	// Payment status
	IsPaid bool `json:"isPaid"`

	// Timestamps (seconds since epoch)
	CreatedAt uint64 `json:"createdAt"` // Set at creation, never changes
	PaidAt    uint64 `json:"paidAt"`    // Zero until paid, set exactly once
}

// Pending reports whether the invoice can still be paid.
func (inv *Invoice) Pending() bool {
	return !inv.IsPaid
}

// PayableBy reports whether the given account is allowed to pay this
// invoice: payment authority belongs to the recipient, and only while
// the invoice is unpaid.
func (inv *Invoice) PayableBy(account common.Address) bool {
	return !inv.IsPaid && account != (common.Address{}) && account == inv.Recipient
}
