// Package draft keeps an in-progress invoice consistent with user
// edits: per-line amounts, the subtotal, and the tax-inclusive total
// are derived values and recomputed on every change. Nothing here
// touches the network or persists state; a draft lives exactly as long
// as the edit session that created it.
package draft

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"invio/internal/logger"
	"invio/pkg/models"
)

// Line item field names accepted by SetLineField.
const (
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldRate        = "rate"
)

// Form wraps a draft and maintains its derived totals.
type Form struct {
	log zerolog.Logger
	d   *models.Draft
}

// NewForm creates a fresh draft the way the invoice form opens: a
// generated invoice number, issue date today, due date in 30 days, one
// blank line item, and ETH as the payment currency.
func NewForm() *Form {
	now := time.Now()
	d := &models.Draft{
		InvoiceNumber: fmt.Sprintf("INV-%d", 1000+rand.Intn(9000)),
		IssueDate:     now.Format("2006-01-02"),
		DueDate:       now.Add(30 * 24 * time.Hour).Format("2006-01-02"),
		Currency:      "ETH",
		Items:         []models.LineItem{{Quantity: 1}},
	}
	return &Form{log: logger.WithComponent("draft"), d: d}
}

// FromDraft wraps an existing draft (e.g. loaded from a JSON file),
// guarantees the at-least-one-line invariant, and recomputes every
// derived value so stale amounts in the input cannot leak through.
func FromDraft(d *models.Draft) *Form {
	if d.Currency == "" {
		d.Currency = "ETH"
	}
	if len(d.Items) == 0 {
		d.Items = []models.LineItem{{Quantity: 1}}
	}
	f := &Form{log: logger.WithComponent("draft"), d: d}
	for i := range d.Items {
		d.Items[i].Amount = d.Items[i].Quantity * d.Items[i].Rate
	}
	f.recompute()
	return f
}

// Draft returns the wrapped draft.
func (f *Form) Draft() *models.Draft {
	return f.d
}

// SetLineField applies a single edit to line item index. For quantity
// and rate the value is parsed as a non-negative number (anything
// unparseable counts as 0) and the line amount plus the totals are
// recomputed. For description the raw string is stored as-is. Any
// other field name is rejected with ErrInvalidField.
func (f *Form) SetLineField(index int, field, value string) error {
	if index < 0 || index >= len(f.d.Items) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}

	switch field {
	case FieldQuantity:
		f.d.Items[index].Quantity = parseNumber(value)
	case FieldRate:
		f.d.Items[index].Rate = parseNumber(value)
	case FieldDescription:
		f.d.Items[index].Description = value
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	item := &f.d.Items[index]
	item.Amount = item.Quantity * item.Rate
	f.recompute()
	return nil
}

// AddLine appends a blank line item (quantity 1, rate 0). The new
// line's amount is 0, so the totals are unchanged.
func (f *Form) AddLine() {
	f.d.Items = append(f.d.Items, models.LineItem{Quantity: 1})
}

// RemoveLine deletes a line item and recomputes the totals. A draft
// always keeps at least one line: removing the last remaining line is
// a no-op, as is an out-of-range index.
func (f *Form) RemoveLine(index int) {
	if len(f.d.Items) == 1 {
		return
	}
	if index < 0 || index >= len(f.d.Items) {
		return
	}
	f.d.Items = append(f.d.Items[:index], f.d.Items[index+1:]...)
	f.recompute()
}

// SetTaxPercent updates the tax rate (non-negative percent, invalid
// input counts as 0) and recomputes the total from the current
// subtotal.
func (f *Form) SetTaxPercent(value string) {
	f.d.Tax = parseNumber(value)
	f.d.Total = f.d.Subtotal + f.d.Subtotal*(f.d.Tax/100)
}

func (f *Form) recompute() {
	var subtotal float64
	for _, item := range f.d.Items {
		subtotal += item.Amount
	}
	f.d.Subtotal = subtotal
	f.d.Total = subtotal + subtotal*(f.d.Tax/100)
}

// parseNumber parses a non-negative decimal. Empty, unparseable, and
// negative values all degrade to 0 rather than failing the edit.
func parseNumber(value string) float64 {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}
