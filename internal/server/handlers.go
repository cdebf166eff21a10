package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"invio/pkg/models"
)

func (s *Server) health(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// listInvoices returns the created/pending partitions for ?address=.
// An absent address is the not-connected state and yields two empty
// sets; a present but malformed one is rejected.
func (s *Server) listInvoices(c fiber.Ctx) error {
	account, err := queryAddress(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}

	list, err := s.svc.ListForAccount(c.Context(), account)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

type createRequest struct {
	Draft         models.Draft `json:"draft"`
	AttachmentRef string       `json:"attachmentRef"`
}

type txResponse struct {
	TxHash string `json:"txHash"`
}

func (s *Server) createInvoice(c fiber.Ctx) error {
	var req createRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorBody{Error: "malformed request body"})
	}

	hash, err := s.svc.Submit(c.Context(), &req.Draft, req.AttachmentRef)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(txResponse{TxHash: hash.Hex()})
}

func (s *Server) getInvoice(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}

	det, err := s.svc.Detail(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(det)
}

func (s *Server) payInvoice(c fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}

	hash, err := s.svc.Pay(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(txResponse{TxHash: hash.Hex()})
}

func (s *Server) metrics(c fiber.Ctx) error {
	account, err := queryAddress(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}

	m, err := s.svc.MetricsFor(c.Context(), account)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(m)
}

func queryAddress(c fiber.Ctx) (common.Address, error) {
	raw := strings.TrimSpace(fiber.Query[string](c, "address"))
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address: %s", raw)
	}
	return common.HexToAddress(raw), nil
}

func pathID(c fiber.Ctx) (uint64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid invoice id: %s", raw)
	}
	return id, nil
}
