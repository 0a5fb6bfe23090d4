package api

import (
	"fmt"
	"math/big"

	"github.com/arcline-lab/chainsuite/internal/models"
	"github.com/arcline-lab/chainsuite/internal/services"
	"github.com/arcline-lab/chainsuite/internal/utils"
)

// paymentRequest is the wire form of a payment; amounts travel as decimal
// strings.
type paymentRequest struct {
	TokenID string `json:"token_id" validate:"required"`
	Nonce   uint64 `json:"nonce"`
	Amount  string `json:"amount" validate:"required"`
}

func (r paymentRequest) toPayment() (models.Payment, error) {
	amount, err := utils.ParseAmount(r.Amount)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%w: invalid amount %q", services.ErrInvalidInput, r.Amount)
	}
	return models.NewPayment(r.TokenID, r.Nonce, amount), nil
}

type paymentResponse struct {
	TokenID string `json:"token_id"`
	Nonce   uint64 `json:"nonce"`
	Amount  string `json:"amount"`
}

func toPaymentResponse(p models.Payment) paymentResponse {
	return paymentResponse{TokenID: p.TokenID, Nonce: p.Nonce, Amount: utils.FormatAmount(p.Amount)}
}

func toPaymentResponses(payments []models.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

func parseAmountField(value, field string) (*big.Int, error) {
	amount, err := utils.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", services.ErrInvalidInput, field, value)
	}
	return amount, nil
}
