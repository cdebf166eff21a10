package invoicing

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invio/internal/draft"
	"invio/internal/ledger"
	"invio/pkg/models"
)

var (
	addrA        = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	addrB        = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	addrFallback = common.HexToAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

type createCall struct {
	recipient     common.Address
	amount        *big.Int
	description   string
	attachmentRef string
}

// fakeLedger serves canned invoices and records every call. It
// reproduces the contract's partition semantics: "by user" filters on
// creator, "pending" filters on recipient, and neither mutates the
// stored records.
type fakeLedger struct {
	mu       sync.Mutex
	invoices []models.Invoice

	readErr error

	readCalls   int
	createCalls []createCall
	payCalls    []uint64

	// createStarted/createRelease, when set, make CreateInvoice block
	// so tests can observe the in-flight guard.
	createStarted chan struct{}
	createRelease chan struct{}
}

func (f *fakeLedger) CreateInvoice(_ context.Context, recipient common.Address, amount *big.Int, description, attachmentRef string) (common.Hash, error) {
	if f.createStarted != nil {
		close(f.createStarted)
		<-f.createRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, createCall{recipient, amount, description, attachmentRef})
	return common.HexToHash("0x01"), nil
}

func (f *fakeLedger) PayInvoice(_ context.Context, id uint64, _ *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payCalls = append(f.payCalls, id)
	return common.HexToHash("0x02"), nil
}

func (f *fakeLedger) Invoice(_ context.Context, id uint64) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	if f.readErr != nil {
		return nil, f.readErr
	}
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			inv := f.invoices[i]
			return &inv, nil
		}
	}
	return nil, ledger.ErrInvoiceNotFound
}

func (f *fakeLedger) InvoicesByUser(_ context.Context, user common.Address) ([]models.Invoice, error) {
	return f.filter(func(inv *models.Invoice) bool { return inv.Creator == user })
}

func (f *fakeLedger) PendingInvoices(_ context.Context, user common.Address) ([]models.Invoice, error) {
	return f.filter(func(inv *models.Invoice) bool { return inv.Recipient == user })
}

func (f *fakeLedger) filter(keep func(*models.Invoice) bool) ([]models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.Invoice
	for i := range f.invoices {
		if keep(&f.invoices[i]) {
			out = append(out, f.invoices[i])
		}
	}
	return out, nil
}

type fakeWallet struct {
	account common.Address
	ok      bool
}

func (w fakeWallet) Account() (common.Address, bool) { return w.account, w.ok }

func twoInvoices() []models.Invoice {
	return []models.Invoice{
		{ID: 1, Creator: addrA, Recipient: addrB, Amount: big.NewInt(100), IsPaid: false, CreatedAt: 10},
		{ID: 2, Creator: addrA, Recipient: addrB, Amount: big.NewInt(200), IsPaid: true, CreatedAt: 11, PaidAt: 12},
	}
}

func TestListForAccountPartitions(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	asA, err := svc.ListForAccount(context.Background(), addrA)
	require.NoError(t, err)
	assert.Len(t, asA.Created, 2)
	assert.Empty(t, asA.Pending)

	asB, err := svc.ListForAccount(context.Background(), addrB)
	require.NoError(t, err)
	assert.Empty(t, asB.Created)
	require.Len(t, asB.Pending, 2)

	// Payment flags pass through unmodified
	assert.False(t, asB.Pending[0].IsPaid)
	assert.True(t, asB.Pending[1].IsPaid)
}

func TestListForAccountNoAddress(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{}, addrFallback)

	got, err := svc.ListForAccount(context.Background(), common.Address{})
	require.NoError(t, err)
	assert.NotNil(t, got.Created)
	assert.NotNil(t, got.Pending)
	assert.Empty(t, got.Created)
	assert.Empty(t, got.Pending)
	assert.Zero(t, fl.readCalls, "no network calls without an address")
}

func TestListForAccountReadFailure(t *testing.T) {
	fl := &fakeLedger{readErr: errors.New("connection refused")}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	_, err := svc.ListForAccount(context.Background(), addrA)
	assert.Error(t, err, "a read failure is distinct from an empty result")
}

func TestSubmitEndToEnd(t *testing.T) {
	fl := &fakeLedger{}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	d := &models.Draft{
		InvoiceNumber: "INV-1234",
		ClientAddress: addrB.Hex(),
		Currency:      "ETH",
		Items:         []models.LineItem{{Description: "Design", Quantity: 2, Rate: 100}},
		Tax:           10,
	}

	hash, err := svc.Submit(context.Background(), d, "")
	require.NoError(t, err)
	assert.NotZero(t, hash)

	require.Len(t, fl.createCalls, 1)
	call := fl.createCalls[0]
	assert.Equal(t, addrB, call.recipient)
	assert.Equal(t, "Design", call.description)

	want, _ := new(big.Int).SetString("220000000000000000000", 10) // 220 ETH in wei
	assert.Zero(t, want.Cmp(call.amount))
}

func TestSubmitFallbacks(t *testing.T) {
	fl := &fakeLedger{}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	d := &models.Draft{
		InvoiceNumber: "INV-7777",
		ClientAddress: "12 Main Street", // Postal text, not an address
		Items:         []models.LineItem{{Quantity: 1, Rate: 5}},
	}

	_, err := svc.Submit(context.Background(), d, "sha256:abc")
	require.NoError(t, err)

	require.Len(t, fl.createCalls, 1)
	call := fl.createCalls[0]
	assert.Equal(t, addrFallback, call.recipient)
	assert.Equal(t, "Invoice INV-7777", call.description)
	assert.Equal(t, "sha256:abc", call.attachmentRef)
}

func TestSubmitNoWallet(t *testing.T) {
	fl := &fakeLedger{}
	svc := NewService(fl, fakeWallet{}, addrFallback)

	_, err := svc.Submit(context.Background(), &models.Draft{}, "")
	assert.ErrorIs(t, err, ErrNoWallet)
	assert.Empty(t, fl.createCalls)
}

func TestSubmitNoRecipient(t *testing.T) {
	fl := &fakeLedger{}
	svc := NewService(fl, fakeWallet{addrA, true}, common.Address{})

	_, err := svc.Submit(context.Background(), &models.Draft{}, "")
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, fl.createCalls)
}

func TestSubmitInexactTotal(t *testing.T) {
	fl := &fakeLedger{}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	d := &models.Draft{
		Currency: "USDC",
		Items:    []models.LineItem{{Quantity: 1, Rate: 0.0000001}},
	}

	_, err := svc.Submit(context.Background(), d, "")
	assert.ErrorIs(t, err, draft.ErrInexactAmount)
	assert.Empty(t, fl.createCalls)
}

func TestSubmitSingleInFlight(t *testing.T) {
	fl := &fakeLedger{
		createStarted: make(chan struct{}),
		createRelease: make(chan struct{}),
	}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	d := &models.Draft{Items: []models.LineItem{{Quantity: 1, Rate: 1}}}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), d, "")
		done <- err
	}()
	<-fl.createStarted

	// Second submission while the first is pending is refused, not queued
	_, err := svc.Submit(context.Background(), &models.Draft{Items: []models.LineItem{{Quantity: 1, Rate: 1}}}, "")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(fl.createRelease)
	require.NoError(t, <-done)
	assert.Len(t, fl.createCalls, 1)

	// Guard released after completion
	fl.createStarted = nil
	_, err = svc.Submit(context.Background(), &models.Draft{Items: []models.LineItem{{Quantity: 1, Rate: 1}}}, "")
	assert.NoError(t, err)
}

func TestPayHappyPath(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{addrB, true}, addrFallback)

	hash, err := svc.Pay(context.Background(), 1)
	require.NoError(t, err)
	assert.NotZero(t, hash)
	assert.Equal(t, []uint64{1}, fl.payCalls)
}

func TestPayAlreadyPaid(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{addrB, true}, addrFallback)

	_, err := svc.Pay(context.Background(), 2)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Empty(t, fl.payCalls, "no write call for a paid invoice")
}

func TestPayNotRecipient(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	_, err := svc.Pay(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotRecipient)
	assert.Empty(t, fl.payCalls)
}

func TestPayNoWallet(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{}, addrFallback)

	_, err := svc.Pay(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoWallet)
	assert.Zero(t, fl.readCalls)
}

func TestDetailProjection(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}

	// Viewer is the recipient of an unpaid invoice: pay is offered
	svc := NewService(fl, fakeWallet{addrB, true}, addrFallback)
	det, err := svc.Detail(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, det.IsRecipient)
	assert.False(t, det.IsCreator)
	assert.True(t, det.Payable)

	// Same viewer, paid invoice: pay is not offered
	det, err = svc.Detail(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, det.IsRecipient)
	assert.False(t, det.Payable)

	// Creator viewing an unpaid invoice: pay is not offered
	svc = NewService(fl, fakeWallet{addrA, true}, addrFallback)
	det, err = svc.Detail(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, det.IsCreator)
	assert.False(t, det.Payable)

	// Unknown id
	_, err = svc.Detail(context.Background(), 99)
	assert.ErrorIs(t, err, ledger.ErrInvoiceNotFound)
}

func TestMetricsFor(t *testing.T) {
	fl := &fakeLedger{invoices: twoInvoices()}
	svc := NewService(fl, fakeWallet{addrA, true}, addrFallback)

	m, err := svc.MetricsFor(context.Background(), addrA)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalCreated)
	assert.Equal(t, 1, m.TotalPaid)
	assert.Zero(t, big.NewInt(300).Cmp(m.TotalValue))
	assert.Zero(t, big.NewInt(200).Cmp(m.ReceivedValue))
}
