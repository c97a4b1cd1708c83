package payment

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"voron-bot/internal/models"

	"gorm.io/gorm"
)

// Invoicer creates provider invoices. The pending payment record is committed
// before the provider call: if the provider then fails, the row stays behind
// for manual reconciliation and the error is surfaced to the caller.
type Invoicer struct {
	DB           *gorm.DB
	Client       *Client
	Asset        string
	CurrencyType string
}

func NewInvoicer(db *gorm.DB, client *Client, asset, currencyType string) *Invoicer {
	return &Invoicer{
		DB:           db,
		Client:       client,
		Asset:        asset,
		CurrencyType: currencyType,
	}
}

// CreateInvoice writes a pending payment record and asks the provider for an
// invoice carrying the settlement payload. Returns the user-facing pay URL.
func (i *Invoicer) CreateInvoice(ctx context.Context, user *models.User, months int, amount float64, description string, isGift bool) (string, error) {
	record := models.Payment{
		UserID:         user.ID,
		Amount:         amount,
		Currency:       i.Asset,
		Status:         models.PaymentPendingProvider,
		Description:    description,
		DurationMonths: months,
		Provider:       models.ProviderCryptoPay,
		IsGift:         isGift,
	}
	if err := i.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to create payment record: %w", err)
	}

	payload, err := EncodePayload(user.TelegramID, months, record.ID)
	if err != nil {
		return "", err
	}

	req := CreateInvoiceRequest{
		CurrencyType: i.CurrencyType,
		Amount:       strconv.FormatFloat(amount, 'f', 2, 64),
		Description:  description,
		Payload:      payload,
	}
	if i.CurrencyType == "fiat" {
		req.Fiat = i.Asset
	} else {
		req.Asset = i.Asset
	}

	invoice, err := i.Client.CreateInvoice(req)
	if err != nil {
		log.Printf("Invoice creation failed for payment %d, record left for reconciliation: %v", record.ID, err)
		return "", fmt.Errorf("invoice creation failed: %w", err)
	}

	err = i.DB.WithContext(ctx).Model(&record).Updates(map[string]interface{}{
		"provider_invoice_id": strconv.FormatInt(invoice.InvoiceID, 10),
	}).Error
	if err != nil {
		return "", fmt.Errorf("failed to attach invoice %d to payment %d: %w", invoice.InvoiceID, record.ID, err)
	}

	return invoice.BotInvoiceURL, nil
}
