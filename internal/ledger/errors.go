package ledger

import (
	"errors"
	"fmt"
)

// Common ledger client errors
var (
	// ErrReadOnly is returned when a write operation is attempted on a
	// client that has no signing key.
	ErrReadOnly = errors.New("no signing key, ledger client is read-only")

	// ErrInvoiceNotFound is returned when the contract has no invoice
	// under the requested id.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrUnexpectedShape is returned when the contract returns invoice
	// data in a representation the normalizer does not recognize.
	ErrUnexpectedShape = errors.New("unexpected invoice data shape")

	// ErrReadFailed is returned when a contract read fails at the RPC
	// level. Distinct from an empty result set.
	ErrReadFailed = errors.New("ledger read failed")

	// ErrTxFailed is returned when a write transaction is rejected,
	// reverts, or cannot be submitted. The underlying node message is
	// preserved for the user.
	ErrTxFailed = errors.New("ledger transaction failed")
)

// LedgerError wraps errors with the operation that produced them.
type LedgerError struct {
	// Op is the operation that failed (e.g. "CreateInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ledger: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ledger: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *LedgerError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapErr(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var lerr *LedgerError
	if errors.As(err, &lerr) {
		return err
	}
	return &LedgerError{Op: op, Err: err, Details: details}
}
