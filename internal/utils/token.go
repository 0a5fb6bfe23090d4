package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// Token identifiers follow the TICKER-xxxxxx convention: an uppercase
// alphanumeric ticker of 3 to 10 characters, a dash, and a 6 character
// lowercase hex suffix. The native token id has no suffix.
func IsValidTokenID(tokenID string) bool {
	parts := strings.Split(tokenID, "-")
	if len(parts) != 2 {
		return false
	}

	ticker, suffix := parts[0], parts[1]
	if len(ticker) < 3 || len(ticker) > 10 {
		return false
	}
	for _, c := range ticker {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}

	if len(suffix) != 6 {
		return false
	}
	for _, c := range suffix {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// ParseAmount converts a decimal string column into a big integer.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

// FormatAmount renders a big integer for storage in a decimal string column.
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
