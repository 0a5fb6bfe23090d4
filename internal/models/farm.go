package models

import (
	"time"

	"gorm.io/gorm"
)

// Farm is a whitelisted external farm contract together with its cached
// token configuration. The farm token and farming token columns double as
// the token -> farm indexes; the farming token binding is one-to-one.
type Farm struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Address        string         `gorm:"index;not null" json:"address"`
	FarmTokenID    string         `gorm:"index" json:"farm_token_id"`
	FarmingTokenID string         `gorm:"index" json:"farming_token_id"`
	Active         bool           `gorm:"default:true" json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Metastaking is a whitelisted metastaking contract with its cached token
// configuration.
type Metastaking struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Address          string         `gorm:"index;not null" json:"address"`
	DualYieldTokenID string         `gorm:"index" json:"dual_yield_token_id"`
	LpFarmTokenID    string         `gorm:"index" json:"lp_farm_token_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
