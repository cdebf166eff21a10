package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials indicates no Google credentials were found
	// in the environment.
	ErrMissingCredentials = errors.New("missing Document AI credentials")

	// ErrInvalidConfiguration indicates required configuration is
	// absent or malformed.
	ErrInvalidConfiguration = errors.New("invalid Document AI configuration")

	// ErrInvalidPDF indicates the uploaded file is not a readable PDF.
	ErrInvalidPDF = errors.New("invalid PDF document")

	// ErrDocumentTooLarge indicates the PDF exceeds the processing
	// size limit.
	ErrDocumentTooLarge = errors.New("document exceeds size limit")

	// ErrProcessorNotFound indicates the configured processor does not
	// exist in the project/location.
	ErrProcessorNotFound = errors.New("document processor not found")

	// ErrExtractionFailed indicates processing ran but produced no
	// usable invoice data.
	ErrExtractionFailed = errors.New("invoice extraction failed")
)

// ExtractError carries the failing operation alongside the underlying
// error so callers can match sentinels with errors.Is while logs keep
// the call site.
type ExtractError struct {
	Op      string
	Err     error
	Details string
}

func (e *ExtractError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("extract: %s: %v", e.Op, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapErr(op string, err error, details string) error {
	return &ExtractError{Op: op, Err: err, Details: details}
}
