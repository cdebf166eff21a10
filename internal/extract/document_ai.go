// Package extract turns invoice PDFs into editable drafts using Google
// Document AI's invoice processor. The output is a draft, not a ledger
// record: extraction pre-fills the form and the user reviews before
// anything is submitted.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"invio/internal/draft"
	"invio/internal/logger"
	"invio/pkg/models"
)

// MaxDocumentSizeBytes is the processing size limit (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

const dateLayout = "2006-01-02"

// Config holds the Document AI processor coordinates.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// Extractor wraps a Document AI client configured for invoice parsing.
type Extractor struct {
	client *documentai.DocumentProcessorClient
	config Config
	log    zerolog.Logger
}

// New builds an extractor from the environment.
// Requires: GOOGLE_PROJECT_ID (or GOOGLE_CLOUD_PROJECT) and credentials
// via GOOGLE_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_LOCATION (default "us"), GOOGLE_PROCESSOR_ID.
func New(ctx context.Context) (*Extractor, error) {
	const op = "New"

	config := Config{
		ProjectID:   getEnvVar("GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		Location:    getEnvVar("GOOGLE_LOCATION", "GOOGLE_CLOUD_LOCATION"),
		ProcessorID: getEnvVar("GOOGLE_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_ID"),
		Timeout:     60 * time.Second,
	}

	if config.ProjectID == "" {
		return nil, wrapErr(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, wrapErr(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, wrapErr(op, err, fmt.Sprintf("failed to create Document AI client for location %s", config.Location))
	}

	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("extract"),
	}, nil
}

// NewWithConfig builds an extractor around an existing client, used in
// tests.
func NewWithConfig(config Config, client *documentai.DocumentProcessorClient) *Extractor {
	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("extract"),
	}
}

// Extract processes one invoice PDF and returns a draft with totals
// recomputed from the extracted line items.
func (e *Extractor) Extract(ctx context.Context, pdf io.Reader) (*models.Draft, error) {
	const op = "Extract"

	pdfBytes, err := io.ReadAll(pdf)
	if err != nil {
		return nil, wrapErr(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxDocumentSizeBytes {
		return nil, wrapErr(op, ErrDocumentTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, wrapErr(op, ErrInvalidPDF, "missing PDF header")
	}

	processCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := e.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, e.processError(op, err)
	}
	if resp.Document == nil {
		return nil, wrapErr(op, ErrExtractionFailed, "no document in response")
	}

	d := e.draftFromDocument(resp.Document)

	e.log.Info().
		Str("invoice_number", d.InvoiceNumber).
		Str("client", d.ClientName).
		Int("line_items", len(d.Items)).
		Float64("total", d.Total).
		Msg("Invoice extraction completed")

	return d, nil
}

func (e *Extractor) processorName() string {
	processorID := e.config.ProcessorID
	if processorID == "" {
		processorID = "default-invoice-processor"
	}
	if e.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			e.config.ProjectID, e.config.Location, processorID, e.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, processorID)
}

// processError maps Document AI transport errors onto the package
// sentinels.
func (e *Extractor) processError(op string, err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return wrapErr(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"):
		return wrapErr(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", e.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return wrapErr(op, ErrInvalidPDF, "document format not supported or corrupted")
	default:
		return wrapErr(op, ErrExtractionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// draftFromDocument maps invoice-processor entities onto a draft. The
// mapping is best-effort: fields the processor did not find stay at
// their bootstrap defaults, and totals are always re-derived from the
// line items rather than trusted from the document.
func (e *Extractor) draftFromDocument(doc *documentaipb.Document) *models.Draft {
	d := draft.NewForm().Draft()
	d.Items = nil

	var netAmount, vatAmount float64

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)

		e.log.Debug().
			Str("entity_type", entity.Type).
			Str("value", value).
			Float32("confidence", entity.Confidence).
			Msg("Processing Document AI entity")

		switch entity.Type {
		case "invoice_id", "invoice_number":
			if value != "" {
				d.InvoiceNumber = value
			}
		case "invoice_date":
			if date, ok := entityDate(entity); ok {
				d.IssueDate = date.Format(dateLayout)
			}
		case "due_date":
			if date, ok := entityDate(entity); ok {
				d.DueDate = date.Format(dateLayout)
			}
		case "receiver_name", "buyer_name", "customer_name":
			d.ClientName = value
		case "receiver_email", "customer_email":
			d.ClientEmail = value
		case "receiver_address", "customer_address":
			d.ClientAddress = value
		case "currency":
			d.Currency = normalizeCurrency(value)
		case "net_amount", "subtotal_amount":
			if v, ok := entityAmount(entity); ok {
				netAmount = v
			}
		case "total_tax_amount", "vat_amount":
			if v, ok := entityAmount(entity); ok {
				vatAmount = v
			}
		case "line_item":
			if item, ok := lineItemFrom(entity); ok {
				d.Items = append(d.Items, item)
			}
		case "notes", "remittance_advice":
			d.Notes = value
		}
	}

	// The document states absolute tax; the draft stores a percentage
	// applied to the subtotal.
	if netAmount > 0 && vatAmount > 0 {
		d.Tax = vatAmount / netAmount * 100
	}

	return draft.FromDraft(d).Draft()
}

// lineItemFrom assembles a line item from a line_item entity's
// properties. Quantity defaults to 1 and the rate falls back to the
// line amount, so a description-plus-amount row still round-trips.
func lineItemFrom(entity *documentaipb.Document_Entity) (models.LineItem, bool) {
	item := models.LineItem{Quantity: 1}
	var amount float64

	for _, prop := range entity.Properties {
		value := strings.TrimSpace(prop.MentionText)
		switch prop.Type {
		case "line_item/description":
			item.Description = value
		case "line_item/quantity":
			if v, ok := entityAmount(prop); ok && v > 0 {
				item.Quantity = v
			}
		case "line_item/unit_price":
			if v, ok := entityAmount(prop); ok {
				item.Rate = v
			}
		case "line_item/amount":
			if v, ok := entityAmount(prop); ok {
				amount = v
			}
		}
	}

	if item.Rate == 0 && amount > 0 {
		item.Rate = amount / item.Quantity
	}
	if item.Description == "" && item.Rate == 0 {
		return models.LineItem{}, false
	}
	return item, true
}

// entityDate reads a date from the normalized value when present,
// falling back to parsing the mention text.
func entityDate(entity *documentaipb.Document_Entity) (time.Time, bool) {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if dv := nv.GetDateValue(); dv != nil {
			return time.Date(int(dv.Year), time.Month(dv.Month), int(dv.Day), 0, 0, 0, 0, time.UTC), true
		}
	}

	dateStr := strings.TrimSpace(entity.MentionText)
	if dateStr == "" {
		return time.Time{}, false
	}
	formats := []string{
		dateLayout,
		"02.01.2006",
		"01/02/2006",
		"2006/01/02",
		"January 2, 2006",
		"Jan 2, 2006",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// entityAmount reads a numeric value from the normalized money value
// when present, falling back to parsing the mention text.
func entityAmount(entity *documentaipb.Document_Entity) (float64, bool) {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if mv := nv.GetMoneyValue(); mv != nil {
			return float64(mv.Units) + float64(mv.Nanos)/1e9, true
		}
		if text := nv.GetText(); text != "" {
			if v, ok := parseDecimal(text); ok {
				return v, true
			}
		}
	}
	return parseDecimal(entity.MentionText)
}

// parseDecimal parses amounts in both English (1,234.50) and German
// (1.234,50) formats, stripping currency symbols.
func parseDecimal(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	for _, sym := range []string{" ", "€", "$", "EUR", "USD", "ETH", "USDC"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	if cleaned == "" {
		return 0, false
	}

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			// Both separators: treat dots as thousands, comma as decimal
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else if parts := strings.Split(cleaned, ","); len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeCurrency maps document currency codes onto the payment
// currencies the ledger supports. Fiat dollar amounts map to USDC;
// everything else settles in ETH.
func normalizeCurrency(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "$", "USD", "US$", "USDC", "DOLLAR", "DOLLARS":
		return "USDC"
	default:
		return "ETH"
	}
}

func getEnvVar(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// Close releases the Document AI client.
func (e *Extractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
