package invoicing

import "errors"

var (
	// ErrNoWallet is returned when a write operation runs without an
	// active account. No network call is made in this case.
	ErrNoWallet = errors.New("no wallet connected")

	// ErrNoRecipient is returned when neither the draft's client
	// address nor the configured fallback yields a recipient.
	ErrNoRecipient = errors.New("no recipient address")

	// ErrSubmissionInFlight is returned when a second create
	// submission starts while one is pending. Submissions are refused,
	// not queued.
	ErrSubmissionInFlight = errors.New("invoice submission already in flight")

	// ErrPaymentInFlight is returned when a second payment starts
	// while one is pending.
	ErrPaymentInFlight = errors.New("invoice payment already in flight")

	// ErrAlreadyPaid is returned when paying an invoice whose isPaid
	// flag is already set. No write call is issued.
	ErrAlreadyPaid = errors.New("invoice is already paid")

	// ErrNotRecipient is returned when the active account is not the
	// invoice's recipient. Payment authority belongs to the recipient
	// only.
	ErrNotRecipient = errors.New("active account is not the invoice recipient")
)
