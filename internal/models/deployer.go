package models

import "time"

type DeployActionType string

const (
	DeployActionNone          DeployActionType = "none"
	DeployActionLiquidityPool DeployActionType = "liquidity_pool"
	DeployActionSimpleLock    DeployActionType = "simple_lock"
	DeployActionProxyDex      DeployActionType = "proxy_dex"
	DeployActionFarm          DeployActionType = "farm"
	DeployActionFarmStaking   DeployActionType = "farm_staking"
	DeployActionMetastaking   DeployActionType = "metastaking"
)

// DeployActionFee overrides the default deployment fee for one action type.
type DeployActionFee struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	ActionType DeployActionType `gorm:"uniqueIndex;not null" json:"action_type"`
	FeeTokenID string           `gorm:"not null" json:"fee_token_id"`
	FeeAmount  string           `gorm:"not null" json:"fee_amount"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// DeployedContract records one templated instance deployed for a caller.
type DeployedContract struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	OwnerID         uint             `gorm:"index;not null" json:"owner_id"`
	ActionType      DeployActionType `gorm:"not null" json:"action_type"`
	TemplateAddress string           `gorm:"not null" json:"template_address"`
	ContractAddress string           `gorm:"not null" json:"contract_address"`
	TemplateValues  JSON             `gorm:"type:text" json:"template_values"`
	FeeTokenID      string           `json:"fee_token_id"`
	FeePaid         string           `json:"fee_paid"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// DeployerSettings is the single-row deployer configuration.
type DeployerSettings struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Paused            bool      `gorm:"default:true" json:"paused"`
	DefaultFeeTokenID string    `json:"default_fee_token_id"`
	DefaultFeeAmount  string    `json:"default_fee_amount"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
