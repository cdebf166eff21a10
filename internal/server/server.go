// Package server exposes the invoicing operations over HTTP as a small
// JSON API. Every response is shaped by the same service layer the CLI
// uses; the server adds routing, request ids, and error-to-status
// mapping, nothing more.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invio/internal/draft"
	"invio/internal/invoicing"
	"invio/internal/ledger"
	"invio/internal/logger"
	"invio/pkg/models"
)

// Invoicing is the slice of the invoicing service the API needs.
// *invoicing.Service satisfies it; tests substitute a fake.
type Invoicing interface {
	Submit(ctx context.Context, d *models.Draft, attachmentRef string) (common.Hash, error)
	ListForAccount(ctx context.Context, account common.Address) (*invoicing.AccountInvoices, error)
	Detail(ctx context.Context, id uint64) (*invoicing.Detail, error)
	Pay(ctx context.Context, id uint64) (common.Hash, error)
	MetricsFor(ctx context.Context, account common.Address) (*invoicing.Metrics, error)
}

// Server hosts the JSON API.
type Server struct {
	log zerolog.Logger
	app *fiber.App
	svc Invoicing
}

// New builds the app and registers all routes.
func New(svc Invoicing) *Server {
	s := &Server{
		log: logger.WithComponent("server"),
		app: fiber.New(fiber.Config{AppName: "invio"}),
		svc: svc,
	}

	s.app.Use(s.requestID)

	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")
	api.Get("/invoices", s.listInvoices)
	api.Post("/invoices", s.createInvoice)
	api.Get("/invoices/:id", s.getInvoice)
	api.Post("/invoices/:id/pay", s.payInvoice)
	api.Get("/metrics", s.metrics)

	return s
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("HTTP API listening")
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// requestID tags each request with a uuid, echoes it in the response,
// and logs the outcome.
func (s *Server) requestID(c fiber.Ctx) error {
	id := c.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("X-Request-ID", id)
	c.Locals("request_id", id)

	err := c.Next()

	s.log.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Msg("Request handled")
	return err
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// fail maps a service error onto an HTTP status. Precondition failures
// are the caller's problem, missing invoices are 404, busy guards are
// conflicts, and anything the chain refused or the node dropped is a
// bad gateway.
func (s *Server) fail(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, invoicing.ErrNoWallet),
		errors.Is(err, invoicing.ErrNoRecipient),
		errors.Is(err, ledger.ErrReadOnly),
		errors.Is(err, draft.ErrUnknownCurrency),
		errors.Is(err, draft.ErrInexactAmount),
		errors.Is(err, draft.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvoiceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, invoicing.ErrAlreadyPaid),
		errors.Is(err, invoicing.ErrNotRecipient),
		errors.Is(err, invoicing.ErrSubmissionInFlight),
		errors.Is(err, invoicing.ErrPaymentInFlight):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrReadFailed),
		errors.Is(err, ledger.ErrTxFailed):
		status = http.StatusBadGateway
	}

	requestID, _ := c.Locals("request_id").(string)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", requestID).Msg("Request failed")
	}
	return c.Status(status).JSON(errorBody{Error: err.Error(), RequestID: requestID})
}
