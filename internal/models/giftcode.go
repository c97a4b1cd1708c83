package models

import (
	"time"
)

// GiftCode is a single-use code granting bonus days, issued when a purchase
// is marked as a gift instead of activating the payer's own subscription.
type GiftCode struct {
	ID                 uint   `gorm:"primaryKey"`
	Code               string `gorm:"size:32;uniqueIndex"`
	BonusDays          int    `gorm:"not null"`
	MaxActivations     int    `gorm:"default:1"`
	CurrentActivations int    `gorm:"default:0"`
	IsActive           bool   `gorm:"default:true"`
	ValidUntil         *time.Time
	CreatedAt          time.Time
}

func (GiftCode) TableName() string {
	return "promo_codes"
}
