package models

import (
	"time"

	"gorm.io/gorm"
)

// User maps an external address to a stable numeric id. Rows are
// soft-deleted, so an id is never handed out twice: re-registering a removed
// address creates a fresh row with a strictly larger id.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Address   string         `gorm:"index;not null" json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
