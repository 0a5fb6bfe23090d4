package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateRegistrationMessage is the message a user signs to prove address
// ownership when registering.
func GenerateRegistrationMessage(address string) string {
	return fmt.Sprintf("I am registering %s with ChainSuite", NormalizeAddress(address))
}

// RecoverAddress recovers the Ethereum address from a personal-sign
// signature over message.
func RecoverAddress(signature, message string) (string, error) {
	if !strings.HasPrefix(signature, "0x") {
		return "", fmt.Errorf("signature must start with 0x")
	}

	sigData, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", err)
	}

	// Signature should be 65 bytes: r(32) + s(32) + v(1)
	if len(sigData) != 65 {
		return "", fmt.Errorf("signature must be exactly 65 bytes")
	}

	messageHash := accounts.TextHash([]byte(message))

	// go-ethereum expects v to be 0 or 1, but wallets return 27 or 28
	if sigData[64] >= 27 {
		sigData[64] -= 27
	}

	publicKey, err := crypto.SigToPub(messageHash, sigData)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*publicKey).Hex(), nil
}

// VerifyAddressSignature checks that signature over message was produced by
// the given address.
func VerifyAddressSignature(signature, address, message string) (bool, error) {
	recovered, err := RecoverAddress(signature, message)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(recovered, address), nil
}
