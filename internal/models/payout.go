package models

import (
	"time"
)

const (
	PayoutStatusCreated   = "created"
	PayoutStatusCompleted = "completed"
)

// Payout captures a user's balance at the moment of a withdrawal request.
// Rows are created once and never mutated by the bot; status progression
// belongs to the back office.
type Payout struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     uint   `gorm:"not null;index"`
	Price      int64  `gorm:"not null"` // integer currency units
	Requisites string `gorm:"not null"`
	Status     string `gorm:"not null;default:'created'"`
	CreatedAt  time.Time
}

func (Payout) TableName() string {
	return "payouts"
}
