package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invio/internal/invoicing"
	"invio/internal/ledger"
	"invio/pkg/models"
)

type fakeService struct {
	listAddr    *common.Address
	list        *invoicing.AccountInvoices
	listErr     error
	detail      *invoicing.Detail
	detailErr   error
	submitRef   string
	submitDraft *models.Draft
	submitErr   error
	payID       uint64
	payErr      error
	metrics     *invoicing.Metrics
}

func (f *fakeService) Submit(_ context.Context, d *models.Draft, attachmentRef string) (common.Hash, error) {
	f.submitDraft = d
	f.submitRef = attachmentRef
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return common.HexToHash("0xaa"), nil
}

func (f *fakeService) ListForAccount(_ context.Context, account common.Address) (*invoicing.AccountInvoices, error) {
	f.listAddr = &account
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.list != nil {
		return f.list, nil
	}
	return &invoicing.AccountInvoices{Created: []models.Invoice{}, Pending: []models.Invoice{}}, nil
}

func (f *fakeService) Detail(_ context.Context, _ uint64) (*invoicing.Detail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail, nil
}

func (f *fakeService) Pay(_ context.Context, id uint64) (common.Hash, error) {
	f.payID = id
	if f.payErr != nil {
		return common.Hash{}, f.payErr
	}
	return common.HexToHash("0xbb"), nil
}

func (f *fakeService) MetricsFor(_ context.Context, _ common.Address) (*invoicing.Metrics, error) {
	if f.metrics != nil {
		return f.metrics, nil
	}
	return &invoicing.Metrics{TotalValue: new(big.Int), ReceivedValue: new(big.Int)}, nil
}

func doRequest(t *testing.T, svc Invoicing, method, target string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := New(svc).App().Test(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	resp := doRequest(t, &fakeService{}, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestListInvoices(t *testing.T) {
	addr := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	svc := &fakeService{list: &invoicing.AccountInvoices{
		Created: []models.Invoice{{ID: 1, Creator: addr, Amount: big.NewInt(5)}},
		Pending: []models.Invoice{},
	}}

	resp := doRequest(t, svc, http.MethodGet, "/api/invoices?address="+addr.Hex(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.listAddr)
	assert.Equal(t, addr, *svc.listAddr)

	got := decode[invoicing.AccountInvoices](t, resp)
	require.Len(t, got.Created, 1)
	assert.Equal(t, uint64(1), got.Created[0].ID)
	assert.Empty(t, got.Pending)
}

func TestListInvoicesNoAddress(t *testing.T) {
	svc := &fakeService{}
	resp := doRequest(t, svc, http.MethodGet, "/api/invoices", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.listAddr)
	assert.Equal(t, common.Address{}, *svc.listAddr)
}

func TestListInvoicesBadAddress(t *testing.T) {
	svc := &fakeService{}
	resp := doRequest(t, svc, http.MethodGet, "/api/invoices?address=nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.listAddr, "service not called for a malformed address")
}

func TestGetInvoice(t *testing.T) {
	svc := &fakeService{detail: &invoicing.Detail{
		Invoice: &models.Invoice{ID: 7, Amount: big.NewInt(10)},
		Payable: true,
	}}

	resp := doRequest(t, svc, http.MethodGet, "/api/invoices/7", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[invoicing.Detail](t, resp)
	assert.Equal(t, uint64(7), got.Invoice.ID)
	assert.True(t, got.Payable)
}

func TestGetInvoiceNotFound(t *testing.T) {
	svc := &fakeService{detailErr: ledger.ErrInvoiceNotFound}
	resp := doRequest(t, svc, http.MethodGet, "/api/invoices/99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInvoiceBadID(t *testing.T) {
	resp := doRequest(t, &fakeService{}, http.MethodGet, "/api/invoices/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateInvoice(t *testing.T) {
	svc := &fakeService{}
	body := createRequest{
		Draft: models.Draft{
			InvoiceNumber: "INV-1001",
			Currency:      "ETH",
			Items:         []models.LineItem{{Description: "Design", Quantity: 2, Rate: 100}},
		},
		AttachmentRef: "sha256:abc",
	}

	resp := doRequest(t, svc, http.MethodPost, "/api/invoices", body)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.NotNil(t, svc.submitDraft)
	assert.Equal(t, "INV-1001", svc.submitDraft.InvoiceNumber)
	assert.Equal(t, "sha256:abc", svc.submitRef)

	got := decode[txResponse](t, resp)
	assert.Equal(t, common.HexToHash("0xaa").Hex(), got.TxHash)
}

func TestCreateInvoiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no wallet", invoicing.ErrNoWallet, http.StatusBadRequest},
		{"in flight", invoicing.ErrSubmissionInFlight, http.StatusConflict},
		{"tx failed", ledger.ErrTxFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{submitErr: tt.err}
			resp := doRequest(t, svc, http.MethodPost, "/api/invoices", createRequest{})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPayInvoice(t *testing.T) {
	svc := &fakeService{}
	resp := doRequest(t, svc, http.MethodPost, "/api/invoices/3/pay", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, uint64(3), svc.payID)
}

func TestPayInvoiceConflicts(t *testing.T) {
	for _, err := range []error{invoicing.ErrAlreadyPaid, invoicing.ErrNotRecipient, invoicing.ErrPaymentInFlight} {
		svc := &fakeService{payErr: err}
		resp := doRequest(t, svc, http.MethodPost, "/api/invoices/3/pay", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, err.Error())
	}
}

func TestMetrics(t *testing.T) {
	svc := &fakeService{metrics: &invoicing.Metrics{
		TotalCreated:  2,
		TotalPaid:     1,
		TotalValue:    big.NewInt(300),
		ReceivedValue: big.NewInt(200),
	}}

	resp := doRequest(t, svc, http.MethodGet, "/api/metrics?address=0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[invoicing.Metrics](t, resp)
	assert.Equal(t, 2, got.TotalCreated)
	assert.Equal(t, 1, got.TotalPaid)
}
