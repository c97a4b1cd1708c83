package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPendingProvider PaymentStatus = "pending_provider"
	PaymentSucceeded       PaymentStatus = "succeeded"
	PaymentFailed          PaymentStatus = "failed"
)

type PaymentProvider string

const (
	ProviderCryptoPay PaymentProvider = "cryptopay"
)

// Payment moves forward only: pending_provider -> succeeded or pending_provider -> failed.
// ProviderInvoiceID is written at most once.
type Payment struct {
	ID                    uint            `gorm:"primaryKey"`
	UserID                uint            `gorm:"not null;index"`
	User                  User            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Amount                float64         `gorm:"not null"`
	Currency              string          `gorm:"size:16"`
	Status                PaymentStatus   `gorm:"size:32;default:'pending_provider'"`
	Description           string          `gorm:"size:255"`
	DurationMonths        int             `gorm:"default:1"`
	Provider              PaymentProvider `gorm:"size:32"`
	IsGift                bool            `gorm:"default:false"`
	ProviderInvoiceID     string          `gorm:"size:255"`
	ReferralRewardApplied bool            `gorm:"default:false"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
