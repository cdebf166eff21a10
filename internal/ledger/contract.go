package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// contractABI is the call surface of the InvoiceContract deployment.
// The invoices(uint256) getter flattens the struct into positional
// outputs; the two list views return proper tuples.
const contractABI = `[
  {
    "type": "function",
    "name": "createInvoice",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "recipient", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "description", "type": "string"},
      {"name": "ipfsHash", "type": "string"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "payInvoiceWithEth",
    "stateMutability": "payable",
    "inputs": [{"name": "invoiceId", "type": "uint256"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "invoices",
    "stateMutability": "view",
    "inputs": [{"name": "", "type": "uint256"}],
    "outputs": [
      {"name": "id", "type": "uint256"},
      {"name": "creator", "type": "address"},
      {"name": "recipient", "type": "address"},
      {"name": "amount", "type": "uint256"},
      {"name": "description", "type": "string"},
      {"name": "ipfsHash", "type": "string"},
      {"name": "isPaid", "type": "bool"},
      {"name": "createdAt", "type": "uint256"},
      {"name": "paidAt", "type": "uint256"}
    ]
  },
  {
    "type": "function",
    "name": "getInvoicesByUser",
    "stateMutability": "view",
    "inputs": [{"name": "user", "type": "address"}],
    "outputs": [
      {
        "name": "",
        "type": "tuple[]",
        "components": [
          {"name": "id", "type": "uint256"},
          {"name": "creator", "type": "address"},
          {"name": "recipient", "type": "address"},
          {"name": "amount", "type": "uint256"},
          {"name": "description", "type": "string"},
          {"name": "ipfsHash", "type": "string"},
          {"name": "isPaid", "type": "bool"},
          {"name": "createdAt", "type": "uint256"},
          {"name": "paidAt", "type": "uint256"}
        ]
      }
    ]
  },
  {
    "type": "function",
    "name": "getPendingInvoices",
    "stateMutability": "view",
    "inputs": [{"name": "user", "type": "address"}],
    "outputs": [
      {
        "name": "",
        "type": "tuple[]",
        "components": [
          {"name": "id", "type": "uint256"},
          {"name": "creator", "type": "address"},
          {"name": "recipient", "type": "address"},
          {"name": "amount", "type": "uint256"},
          {"name": "description", "type": "string"},
          {"name": "ipfsHash", "type": "string"},
          {"name": "isPaid", "type": "bool"},
          {"name": "createdAt", "type": "uint256"},
          {"name": "paidAt", "type": "uint256"}
        ]
      }
    ]
  }
]`

var ledgerABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		panic("ledger: invalid contract ABI: " + err.Error())
	}
	return parsed
}()

// chainInvoice mirrors the ABI tuple layout. Field names must match
// the ABI component names for abi.ConvertType to bind them.
type chainInvoice struct {
	Id          *big.Int
	Creator     common.Address
	Recipient   common.Address
	Amount      *big.Int
	Description string
	IpfsHash    string
	IsPaid      bool
	CreatedAt   *big.Int
	PaidAt      *big.Int
}
