package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"invio/internal/logger"
	"invio/pkg/models"
)

// Client implements Ledger over JSON-RPC against the deployed invoice
// contract. A nil signing key gives a read-only client; writes then
// fail with ErrReadOnly before touching the network.
type Client struct {
	log      zerolog.Logger
	eth      *ethclient.Client
	contract common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	from     common.Address
}

// NewClient wraps an established RPC connection. chainID is used for
// transaction signing and must match the connected node.
func NewClient(eth *ethclient.Client, contract common.Address, chainID *big.Int, key *ecdsa.PrivateKey) *Client {
	c := &Client{
		log:      logger.WithComponent("ledger"),
		eth:      eth,
		contract: contract,
		chainID:  chainID,
		key:      key,
	}
	if key != nil {
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c
}

// CreateInvoice records a new invoice on-chain.
func (c *Client) CreateInvoice(ctx context.Context, recipient common.Address, amount *big.Int, description, attachmentRef string) (common.Hash, error) {
	const op = "CreateInvoice"

	data, err := ledgerABI.Pack("createInvoice", recipient, amount, description, attachmentRef)
	if err != nil {
		return common.Hash{}, wrapErr(op, err, "abi packing")
	}

	hash, err := c.transact(ctx, nil, data)
	if err != nil {
		return common.Hash{}, wrapErr(op, err, "")
	}

	c.log.Info().
		Str("tx", hash.Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("Invoice creation submitted")
	return hash, nil
}

// PayInvoice pays an invoice, attaching amount as the transaction
// value. The amount passed must be the invoice's stored amount; this
// client never adjusts it.
func (c *Client) PayInvoice(ctx context.Context, id uint64, amount *big.Int) (common.Hash, error) {
	const op = "PayInvoice"

	data, err := ledgerABI.Pack("payInvoiceWithEth", new(big.Int).SetUint64(id))
	if err != nil {
		return common.Hash{}, wrapErr(op, err, "abi packing")
	}

	hash, err := c.transact(ctx, amount, data)
	if err != nil {
		return common.Hash{}, wrapErr(op, err, "")
	}

	c.log.Info().
		Str("tx", hash.Hex()).
		Uint64("invoice_id", id).
		Str("amount", amount.String()).
		Msg("Invoice payment submitted")
	return hash, nil
}

// Invoice resolves a single invoice by id via the flattened getter.
func (c *Client) Invoice(ctx context.Context, id uint64) (*models.Invoice, error) {
	const op = "Invoice"

	out, err := c.call(ctx, "invoices", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, wrapErr(op, err, fmt.Sprintf("id %d", id))
	}

	inv, err := NormalizeInvoice(out)
	if err != nil {
		return nil, wrapErr(op, err, fmt.Sprintf("id %d", id))
	}

	// The mapping getter returns a zero struct for absent ids.
	if inv.Creator == (common.Address{}) && inv.CreatedAt == 0 {
		return nil, wrapErr(op, ErrInvoiceNotFound, fmt.Sprintf("id %d", id))
	}
	return inv, nil
}

// InvoicesByUser returns the invoices created by user.
func (c *Client) InvoicesByUser(ctx context.Context, user common.Address) ([]models.Invoice, error) {
	return c.listCall(ctx, "getInvoicesByUser", user)
}

// PendingInvoices returns the unpaid invoices owed by user.
func (c *Client) PendingInvoices(ctx context.Context, user common.Address) ([]models.Invoice, error) {
	return c.listCall(ctx, "getPendingInvoices", user)
}

func (c *Client) listCall(ctx context.Context, method string, user common.Address) ([]models.Invoice, error) {
	out, err := c.call(ctx, method, user)
	if err != nil {
		return nil, wrapErr(method, err, user.Hex())
	}
	if len(out) != 1 {
		return nil, wrapErr(method, ErrUnexpectedShape, fmt.Sprintf("%d outputs", len(out)))
	}

	raw := *abi.ConvertType(out[0], new([]chainInvoice)).(*[]chainInvoice)
	invoices := make([]models.Invoice, 0, len(raw))
	for i := range raw {
		inv, err := NormalizeInvoice(&raw[i])
		if err != nil {
			return nil, wrapErr(method, err, "")
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := ledgerABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return ledgerABI.Unpack(method, res)
}

// transact builds, signs and submits one transaction. Gas estimation
// doubles as a pre-flight execution check, so reverts surface here
// with the node's message instead of burning gas.
func (c *Client) transact(ctx context.Context, value *big.Int, data []byte) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrReadOnly
	}
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: nonce: %v", ErrTxFailed, err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: gas price: %v", ErrTxFailed, err)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.from,
		To:    &c.contract,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &c.contract,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: signing: %v", ErrTxFailed, err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	return signed.Hash(), nil
}
