package draft

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// CurrencyDecimals returns the decimal precision of a supported
// payment currency: 18 for ETH (wei), 6 for USDC.
func CurrencyDecimals(currency string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "ETH":
		return 18, nil
	case "USDC":
		return 6, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
}

// SmallestUnit converts a decimal total to the currency's smallest
// integer unit. The conversion is exact: totals carrying more decimal
// places than the currency supports are rejected with ErrInexactAmount
// instead of being rounded.
func SmallestUnit(total float64, currency string) (*big.Int, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, total)
	}

	decimals, err := CurrencyDecimals(currency)
	if err != nil {
		return nil, err
	}

	// Shortest decimal representation that round-trips the float. This
	// is the number the user saw on the form, so exactness is judged
	// against it rather than against the float's binary expansion.
	rat, ok := new(big.Rat).SetString(strconv.FormatFloat(total, 'f', -1, 64))
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, total)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat.Mul(rat, new(big.Rat).SetInt(scale))
	if !rat.IsInt() {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places",
			ErrInexactAmount, strconv.FormatFloat(total, 'f', -1, 64), decimals)
	}

	return new(big.Int).Set(rat.Num()), nil
}
