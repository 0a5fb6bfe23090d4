package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTokenID(t *testing.T) {
	tests := []struct {
		name    string
		tokenID string
		valid   bool
	}{
		{"standard_id", "WEGLD-abcdef", true},
		{"numeric_ticker", "TOK42-123abc", true},
		{"max_length_ticker", "ABCDEFGHIJ-abcdef", true},
		{"ticker_too_short", "AB-abcdef", false},
		{"ticker_too_long", "ABCDEFGHIJK-abcdef", false},
		{"lowercase_ticker", "wegld-abcdef", false},
		{"suffix_too_short", "WEGLD-abcde", false},
		{"suffix_uppercase", "WEGLD-ABCDEF", false},
		{"missing_suffix", "WEGLD", false},
		{"extra_dash", "WEGLD-abc-def", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTokenID(tt.tokenID))
		})
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", amount.String())

	amount, err = ParseAmount("")
	require.NoError(t, err)
	assert.Equal(t, "0", amount.String())

	_, err = ParseAmount("12a")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "42", FormatAmount(big.NewInt(42)))
	assert.Equal(t, "0", FormatAmount(nil))
}

func TestTakeFeePercentage(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		percent   uint64
		fee       string
		remainder string
	}{
		{"five_percent", 1000, 500, "50", "950"},
		{"rounds_down", 999, 500, "49", "950"},
		{"zero_percent", 1000, 0, "0", "1000"},
		{"full_percent", 1000, 10_000, "1000", "0"},
		{"ten_percent", 100, 1_000, "10", "90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, remainder := TakeFeePercentage(big.NewInt(tt.amount), tt.percent)
			assert.Equal(t, tt.fee, fee.String())
			assert.Equal(t, tt.remainder, remainder.String())
			assert.Equal(t, tt.amount, new(big.Int).Add(fee, remainder).Int64())
		})
	}
}

func TestIsValidPercentage(t *testing.T) {
	assert.True(t, IsValidPercentage(0))
	assert.True(t, IsValidPercentage(10_000))
	assert.False(t, IsValidPercentage(10_001))
}
