package draft

import "errors"

var (
	// ErrInvalidField is returned when SetLineField is called with a
	// field name the draft does not have. This is a programming-level
	// contract violation, not user input: it fails the edit, never the
	// session.
	ErrInvalidField = errors.New("invalid line item field")

	// ErrLineIndex is returned when a line item index is out of range.
	ErrLineIndex = errors.New("line item index out of range")

	// ErrUnknownCurrency is returned when a draft selects a payment
	// currency without a known decimal precision.
	ErrUnknownCurrency = errors.New("unknown payment currency")

	// ErrInexactAmount is returned when a total has more decimal places
	// than the selected currency supports. The conversion to the
	// smallest unit must be exact; rounding would silently change the
	// amount the recipient owes.
	ErrInexactAmount = errors.New("total is not representable in the currency's smallest unit")

	// ErrInvalidAmount is returned for totals that cannot be converted
	// at all (negative, NaN, infinite).
	ErrInvalidAmount = errors.New("total is not a valid amount")
)
