package models

import "time"

// AggregatorSettings is the single-row configuration of the reward
// aggregator, injected at startup.
type AggregatorSettings struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ProxyClaimAddress    string    `json:"proxy_claim_address"`
	FeePercentage        uint64    `gorm:"default:0" json:"fee_percentage"`
	LockedTokenID        string    `gorm:"not null" json:"locked_token_id"`
	EnergyFactoryAddress string    `json:"energy_factory_address"`
	MetabondingAddress   string    `json:"metabonding_address"`
	FeesCollectorAddress string    `json:"fees_collector_address"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
