package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusExecuted  OrderStatus = "executed"
)

// Order is a maker limit order. Terminal orders are soft-deleted so order
// ids stay monotone and range scans simply skip the emptied slots.
type Order struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	MakerID             uint           `gorm:"index;not null" json:"maker_id"`
	InputTokenID        string         `gorm:"not null" json:"input_token_id"`
	OutputTokenID       string         `gorm:"not null" json:"output_token_id"`
	InitialInputAmount  string         `gorm:"not null" json:"initial_input_amount"`
	CurrentInputAmount  string         `gorm:"not null" json:"current_input_amount"`
	MinTotalOutput      string         `gorm:"not null" json:"min_total_output"`
	ExecutorFeePercent  uint64         `gorm:"not null" json:"executor_fee_percent"`
	CreationTimestamp   uint64         `gorm:"not null" json:"creation_timestamp"`
	ExpirationTimestamp uint64         `gorm:"not null" json:"expiration_timestamp"`
	Status              OrderStatus    `gorm:"default:open" json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderBookSettings is the single-row configuration of the order book.
type OrderBookSettings struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	RouterAddress         string    `json:"router_address"`
	TreasuryAddress       string    `json:"treasury_address"`
	PruningFeePercent     uint64    `gorm:"default:0" json:"pruning_fee_percent"`
	P2PProtocolFeePercent uint64    `gorm:"default:0" json:"p2p_protocol_fee_percent"`
	Paused                bool      `gorm:"default:false" json:"paused"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Admin is a member of the order book admin set.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"uniqueIndex;not null" json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
