package models

// LineItem is a single row of a draft invoice. Amount is derived as
// Quantity * Rate and kept consistent by the draft form; it is never
// entered directly.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Draft is a client-local invoice in progress. It is never persisted
// on-chain as-is: on submission only the recipient, the total
// (converted to the smallest currency unit), and a description make it
// into the ledger; everything else exists for the human reading the
// invoice.
//
// ClientAddress holds the payer's wallet address in hex form. When it
// does not parse as an address, submission falls back to the
// configured default recipient.
type Draft struct {
	InvoiceNumber string `json:"invoiceNumber"`
	IssueDate     string `json:"issueDate"` // YYYY-MM-DD
	DueDate       string `json:"dueDate"`   // YYYY-MM-DD

	ClientName    string `json:"clientName"`
	ClientEmail   string `json:"clientEmail"`
	ClientAddress string `json:"clientAddress"`

	// Currency selects the payment currency ("ETH" or "USDC") and with
	// it the decimal precision of the smallest-unit conversion.
	Currency string `json:"currency"`

	Items []LineItem `json:"items"`
	Notes string     `json:"notes"`

	// Derived; recomputed on every edit, in decimal currency units.
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"` // Percent, not an absolute amount
	Total    float64 `json:"total"`
}
