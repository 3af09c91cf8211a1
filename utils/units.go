package utils

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrInvalidDecimal = errors.New("invalid decimal value")

// ParseUnits scales a decimal string by 10^decimals and returns the integer
// result. Digits beyond the scale are rounded half away from zero.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidDecimal, value, err)
	}
	return d.Shift(decimals).Round(0).BigInt(), nil
}

// FormatUnits is the inverse of ParseUnits.
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}
