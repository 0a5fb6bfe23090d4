package models

import (
	"math/big"
	"time"
)

// DivisionSafetyConstant scales reward-per-share bookkeeping so integer
// division keeps enough precision.
var DivisionSafetyConstant = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// WrappedFarmTokenAttributes are carried by every wrapped farm token batch.
type WrappedFarmTokenAttributes struct {
	OriginalFarmToken Payment  `json:"original_farm_token"`
	RewardPerShare    *big.Int `json:"reward_per_share"`
	TokenAmount       *big.Int `json:"token_amount"`
}

// Merge combines two wrapped batches with an amount-weighted, rounded-up
// average of their reward-per-share values.
func (a WrappedFarmTokenAttributes) Merge(other WrappedFarmTokenAttributes) WrappedFarmTokenAttributes {
	totalAmount := new(big.Int).Add(a.TokenAmount, other.TokenAmount)

	weighted := new(big.Int).Mul(a.RewardPerShare, a.TokenAmount)
	weighted.Add(weighted, new(big.Int).Mul(other.RewardPerShare, other.TokenAmount))

	// ceil(weighted / totalAmount)
	rps := new(big.Int).Add(weighted, new(big.Int).Sub(totalAmount, big.NewInt(1)))
	rps.Div(rps, totalAmount)

	merged := a.OriginalFarmToken.Clone()
	merged.Amount = new(big.Int).Add(merged.Amount, other.OriginalFarmToken.Amount)

	return WrappedFarmTokenAttributes{
		OriginalFarmToken: merged,
		RewardPerShare:    rps,
		TokenAmount:       totalAmount,
	}
}

// WrappedFarmBatch persists the attributes of one issued wrapped token nonce.
type WrappedFarmBatch struct {
	ID         uint                       `gorm:"primaryKey" json:"id"`
	Nonce      uint64                     `gorm:"uniqueIndex;not null" json:"nonce"`
	Attributes WrappedFarmTokenAttributes `gorm:"serializer:json" json:"attributes"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// WrapperRewardPool tracks deposited extra-reward tokens. Accumulated is the
// share already owed to wrapped token holders and can no longer be
// withdrawn by the owner.
type WrapperRewardPool struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TokenID     string    `gorm:"uniqueIndex;not null" json:"token_id"`
	Capacity    string    `gorm:"not null" json:"capacity"`
	Accumulated string    `gorm:"not null" json:"accumulated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WrapperSettings is the single-row configuration of the extra rewards
// wrapper: the foreign farm token being wrapped, the synthetic token issued
// for it and the global reward-per-share counter.
type WrapperSettings struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FarmTokenID    string    `gorm:"not null" json:"farm_token_id"`
	WrappedTokenID string    `gorm:"not null" json:"wrapped_token_id"`
	RewardTokenID  string    `gorm:"not null" json:"reward_token_id"`
	RewardPerShare string    `gorm:"default:0" json:"reward_per_share"`
	TotalWrapped   string    `gorm:"default:0" json:"total_wrapped"`
	LastNonce      uint64    `gorm:"default:0" json:"last_nonce"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
