package models

import "time"

type TradeFrequency string

const (
	TradeFrequencyMinutely TradeFrequency = "minutely"
	TradeFrequencyHourly   TradeFrequency = "hourly"
	TradeFrequencyDaily    TradeFrequency = "daily"
	TradeFrequencyWeekly   TradeFrequency = "weekly"
)

// PeriodSeconds returns the wait between two runs of an action.
func (f TradeFrequency) PeriodSeconds() uint64 {
	switch f {
	case TradeFrequencyMinutely:
		return 60
	case TradeFrequencyHourly:
		return 3_600
	case TradeFrequencyDaily:
		return 86_400
	case TradeFrequencyWeekly:
		return 604_800
	default:
		return 0
	}
}

// Valid reports whether f is one of the supported frequencies.
func (f TradeFrequency) Valid() bool {
	return f.PeriodSeconds() != 0
}

// DcaAction is a recurring swap instruction. The record is hard-deleted once
// TotalActionsLeft reaches zero outside of an in-flight run, or once the
// retry budget is exhausted.
type DcaAction struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	OwnerID             uint           `gorm:"index;not null" json:"owner_id"`
	TradeFrequency      TradeFrequency `gorm:"not null" json:"trade_frequency"`
	InputTokenID        string         `gorm:"not null" json:"input_token_id"`
	InputAmountPerRun   string         `gorm:"not null" json:"input_amount_per_run"`
	OutputTokenID       string         `gorm:"not null" json:"output_token_id"`
	LastActionTimestamp uint64         `gorm:"default:0" json:"last_action_timestamp"`
	TotalActionsLeft    uint64         `gorm:"not null" json:"total_actions_left"`
	ActionInProgress    bool           `gorm:"default:false" json:"action_in_progress"`
	Retries             uint64         `gorm:"default:0" json:"retries"`
	// CorrelationID ties the in-flight swap to its callback delivery.
	CorrelationID string    `gorm:"index" json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NextActionTimestamp returns the earliest unix time the action may run
// again.
func (a *DcaAction) NextActionTimestamp() uint64 {
	return a.LastActionTimestamp + a.TradeFrequency.PeriodSeconds()
}

// DcaSettings is the single-row scheduler configuration.
type DcaSettings struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	NrRetriesAllowed uint64    `gorm:"default:0" json:"nr_retries_allowed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
