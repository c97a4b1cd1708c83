package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type CreateInvoiceRequest struct {
	CurrencyType string `json:"currency_type"`
	Asset        string `json:"asset,omitempty"`
	Fiat         string `json:"fiat,omitempty"`
	Amount       string `json:"amount"`
	Description  string `json:"description,omitempty"`
	Payload      string `json:"payload,omitempty"`
}

type Invoice struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Asset         string `json:"asset"`
	Description   string `json:"description"`
	Payload       string `json:"payload"`
	BotInvoiceURL string `json:"bot_invoice_url"`
	PaidAt        string `json:"paid_at,omitempty"`
}

// Webhook structures

// UpdateType is the closed set of webhook update kinds the provider sends.
// Anything else is dropped explicitly, never dispatched by raw string.
type UpdateType string

const (
	UpdateInvoicePaid UpdateType = "invoice_paid"
)

type WebhookUpdate struct {
	UpdateID    int64      `json:"update_id"`
	UpdateType  UpdateType `json:"update_type"`
	RequestDate string     `json:"request_date"`
	Payload     Invoice    `json:"payload"`
}

// InvoicePayload is the metadata round-tripped through the provider inside
// the invoice. All fields are required and numeric-coercible strings.
type InvoicePayload struct {
	TelegramID int64
	Months     int
	PaymentID  uint
}

type rawInvoicePayload struct {
	UserID             string `json:"user_id"`
	SubscriptionMonths string `json:"subscription_months"`
	PaymentDBID        string `json:"payment_db_id"`
}

// ParsePayload decodes the opaque invoice payload. Any missing or malformed
// field is a parse failure; the caller drops the update without mutation and
// relies on provider-side redelivery.
func ParsePayload(data string) (InvoicePayload, error) {
	var raw rawInvoicePayload
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return InvoicePayload{}, fmt.Errorf("failed to decode payload: %w", err)
	}

	if raw.UserID == "" || raw.SubscriptionMonths == "" || raw.PaymentDBID == "" {
		return InvoicePayload{}, fmt.Errorf("payload missing required fields")
	}

	telegramID, err := strconv.ParseInt(raw.UserID, 10, 64)
	if err != nil {
		return InvoicePayload{}, fmt.Errorf("invalid user_id %q: %w", raw.UserID, err)
	}

	months, err := strconv.Atoi(raw.SubscriptionMonths)
	if err != nil {
		return InvoicePayload{}, fmt.Errorf("invalid subscription_months %q: %w", raw.SubscriptionMonths, err)
	}

	paymentID, err := strconv.ParseUint(raw.PaymentDBID, 10, 32)
	if err != nil {
		return InvoicePayload{}, fmt.Errorf("invalid payment_db_id %q: %w", raw.PaymentDBID, err)
	}

	return InvoicePayload{
		TelegramID: telegramID,
		Months:     months,
		PaymentID:  uint(paymentID),
	}, nil
}

// EncodePayload builds the payload attached to a new invoice.
func EncodePayload(telegramID int64, months int, paymentID uint) (string, error) {
	data, err := json.Marshal(rawInvoicePayload{
		UserID:             strconv.FormatInt(telegramID, 10),
		SubscriptionMonths: strconv.Itoa(months),
		PaymentDBID:        strconv.FormatUint(uint64(paymentID), 10),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(data), nil
}
