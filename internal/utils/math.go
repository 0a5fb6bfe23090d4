package utils

import (
	"math/big"

	"github.com/arcline-lab/chainsuite/internal/models"
)

// TakeFeePercentage splits amount into (fee, remainder). The fee is
// floor(amount * percent / MaxPercentage); the remainder, rounding included,
// goes to the primary recipient.
func TakeFeePercentage(amount *big.Int, percent uint64) (*big.Int, *big.Int) {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(percent))
	fee.Div(fee, new(big.Int).SetUint64(models.MaxPercentage))
	remainder := new(big.Int).Sub(amount, fee)
	return fee, remainder
}

// IsValidPercentage reports whether percent fits the basis-point range.
func IsValidPercentage(percent uint64) bool {
	return percent <= models.MaxPercentage
}
