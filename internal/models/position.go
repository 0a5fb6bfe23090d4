package models

import "time"

// FarmPosition is a user's farm token holding for one whitelisted farm.
// Amounts are stored as decimal strings to avoid precision loss.
type FarmPosition struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	FarmID    uint      `gorm:"index;not null" json:"farm_id"`
	TokenID   string    `gorm:"not null" json:"token_id"`
	Nonce     uint64    `gorm:"not null" json:"nonce"`
	Amount    string    `gorm:"not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetastakingPosition is a user's dual yield token holding for one
// whitelisted metastaking contract.
type MetastakingPosition struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	MetastakingID uint      `gorm:"index;not null" json:"metastaking_id"`
	TokenID       string    `gorm:"not null" json:"token_id"`
	Nonce         uint64    `gorm:"not null" json:"nonce"`
	Amount        string    `gorm:"not null" json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserRewards holds a user's accumulated, already fee-deducted rewards.
type UserRewards struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	LockedTokens *Payment        `gorm:"serializer:json" json:"locked_tokens,omitempty"`
	OtherTokens  *UniquePayments `gorm:"type:text" json:"other_tokens"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FeeAccumulator collects the protocol's share of every claim.
type FeeAccumulator struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Tokens    *UniquePayments `gorm:"type:text" json:"tokens"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
