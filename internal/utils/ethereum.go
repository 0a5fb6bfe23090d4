package utils

import "github.com/ethereum/go-ethereum/common"

func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress returns the checksummed form of a hex address so lookups
// are case-insensitive.
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
