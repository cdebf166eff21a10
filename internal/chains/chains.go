// Package chains maps a chain identifier to the contract addresses of
// the invoice ledger deployment on that chain.
//
// Identifiers are accepted in decimal ("31337") or 0x-hex ("0x7a69")
// string form. Unrecognized identifiers resolve to the fixed local
// hardhat deployment rather than failing, so a misconfigured chain id
// degrades to the demo environment instead of breaking startup.
package chains

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Hardhat deployment addresses. These are deterministic for a fresh
// local hardhat node running the standard deploy script.
const (
	HardhatLedgerAddress = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
	HardhatTokenAddress  = "0x5fbdb2315678afecb367f032d93f642f64180aa3"

	// HardhatChainID is the default chain id of a local hardhat node.
	HardhatChainID uint64 = 31337
)

// Addresses holds the per-chain contract addresses the client talks to.
type Addresses struct {
	Ledger common.Address // The invoice ledger contract
	Token  common.Address // Auxiliary mock-USDC token
}

func hardhat() Addresses {
	return Addresses{
		Ledger: common.HexToAddress(HardhatLedgerAddress),
		Token:  common.HexToAddress(HardhatTokenAddress),
	}
}

// Resolve maps a chain identifier string to its deployment addresses.
// Empty and unparseable identifiers fall back to the hardhat pair.
func Resolve(chainID string) Addresses {
	id, ok := ParseChainID(chainID)
	if !ok {
		return hardhat()
	}
	return ResolveID(id)
}

// ResolveID maps a numeric chain id to its deployment addresses.
func ResolveID(chainID uint64) Addresses {
	switch chainID {
	case HardhatChainID:
		return hardhat()
	}
	// Other networks (Sepolia, mainnet, ...) would go here once the
	// contract is deployed there.
	return hardhat()
}

// ParseChainID parses a decimal or 0x-hex chain identifier.
func ParseChainID(chainID string) (uint64, bool) {
	s := strings.TrimSpace(chainID)
	if s == "" {
		return 0, false
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	id, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
