package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"voron-bot/internal/models"
	"voron-bot/internal/referral"
	"voron-bot/internal/utils"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadySettled marks a redelivery of an invoice whose payment has left
// pending_provider. The redelivery is acknowledged without any effect.
var ErrAlreadySettled = errors.New("payment already settled")

const maxGiftCodeAttempts = 5

// Activation is what the external activator reports back after extending or
// creating a subscription.
type Activation struct {
	ConnectionURL string
	ExpiresAt     time.Time
	RemnawaveID   string
}

// Activator is the external subscription-extension contract. The settlement
// only persists what it returns; the extension arithmetic lives behind it.
type Activator interface {
	Activate(ctx context.Context, telegramID int64, months int, amount float64, paymentID uint) (*Activation, error)
}

type Notifier interface {
	NotifyPaymentReceived(ctx context.Context, telegramID int64, username string, amount float64, currency string, months int, provider models.PaymentProvider)
}

// Settlement owns the payment state machine. A confirmed invoice is converted
// into exactly one business effect - gift-code issuance or subscription
// activation - inside one transaction with the status flip, so redeliveries
// and concurrent deliveries settle at most once.
type Settlement struct {
	DB            *gorm.DB
	Bot           *telego.Bot
	Activator     Activator
	Notifier      Notifier
	BotUsername   string
	AllowedCIDRs  []string
	RewardPercent int
	GenerateCode  func() string
}

func NewSettlement(db *gorm.DB, bot *telego.Bot, activator Activator, notifier Notifier, botUsername string, allowedCIDRs []string, rewardPercent int) *Settlement {
	return &Settlement{
		DB:            db,
		Bot:           bot,
		Activator:     activator,
		Notifier:      notifier,
		BotUsername:   botUsername,
		AllowedCIDRs:  allowedCIDRs,
		RewardPercent: rewardPercent,
		GenerateCode:  GenerateGiftCode,
	}
}

// HandleWebhook is the thin HTTP adapter in front of HandleUpdate.
func (s *Settlement) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(s.AllowedCIDRs) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !utils.IsAllowedIP(host, s.AllowedCIDRs) {
			log.Printf("Rejected webhook from disallowed address %s", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var update WebhookUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Failed to decode webhook: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := s.HandleUpdate(r.Context(), update); err != nil {
		// Transient failure: the transaction rolled back, the provider's
		// redelivery retries the settlement.
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleUpdate dispatches one provider update. Unknown update types and
// malformed payloads are dropped: no mutation, no internal retry.
func (s *Settlement) HandleUpdate(ctx context.Context, update WebhookUpdate) error {
	switch update.UpdateType {
	case UpdateInvoicePaid:
		return s.settleInvoice(ctx, update.Payload)
	default:
		log.Printf("Ignored update type: %q", update.UpdateType)
		return nil
	}
}

func (s *Settlement) settleInvoice(ctx context.Context, invoice Invoice) error {
	payload, err := ParsePayload(invoice.Payload)
	if err != nil {
		log.Printf("Dropped invoice %d with malformed payload: %v", invoice.InvoiceID, err)
		return nil
	}

	var (
		pay        models.Payment
		user       models.User
		gift       *models.GiftCode
		activation *Activation
	)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pay, payload.PaymentID).Error; err != nil {
			return fmt.Errorf("failed to load payment %d: %w", payload.PaymentID, err)
		}
		if pay.Status != models.PaymentPendingProvider {
			return ErrAlreadySettled
		}

		updates := map[string]interface{}{"status": models.PaymentSucceeded}
		if pay.ProviderInvoiceID == "" {
			updates["provider_invoice_id"] = strconv.FormatInt(invoice.InvoiceID, 10)
		}
		if err := tx.Model(&pay).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payment %d: %w", pay.ID, err)
		}

		if err := tx.Where("telegram_id = ?", payload.TelegramID).First(&user).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", payload.TelegramID, err)
		}

		if pay.IsGift {
			code, err := s.issueGiftCode(tx, payload.Months)
			if err != nil {
				return err
			}
			gift = code
			return nil
		}

		act, err := s.Activator.Activate(ctx, payload.TelegramID, payload.Months, pay.Amount, pay.ID)
		if err != nil {
			return fmt.Errorf("activation failed: %w", err)
		}
		activation = act
		if err := s.saveSubscription(tx, user.ID, act); err != nil {
			return err
		}

		// The referrer's credit commits with the settlement or not at all.
		if _, err := referral.ApplyReward(tx, &pay, s.RewardPercent); err != nil {
			return err
		}
		return nil
	})

	if errors.Is(err, ErrAlreadySettled) {
		log.Printf("Payment %d already settled, redelivery of invoice %d ignored", payload.PaymentID, invoice.InvoiceID)
		return nil
	}
	if err != nil {
		log.Printf("Failed to settle invoice %d: %v", invoice.InvoiceID, err)
		return err
	}

	// Monetary state is committed; everything below is best-effort messaging.
	if gift != nil {
		s.sendGiftMessage(ctx, payload.TelegramID, gift)
	} else {
		s.sendActivationMessage(ctx, payload.TelegramID, activation)
	}

	if s.Notifier != nil {
		amount, err := strconv.ParseFloat(invoice.Amount, 64)
		if err != nil {
			log.Printf("Invalid amount %q on invoice %d, reporting recorded amount: %v", invoice.Amount, invoice.InvoiceID, err)
			amount = pay.Amount
		}
		currency := invoice.Asset
		if currency == "" {
			currency = pay.Currency
		}
		s.Notifier.NotifyPaymentReceived(ctx, payload.TelegramID, user.Username, amount, currency, payload.Months, pay.Provider)
	}

	return nil
}

// issueGiftCode inserts a single-activation code sized to the target calendar
// month. The insert is conflict-aware on promo_codes.code: a colliding code
// is regenerated instead of aborting the settlement.
func (s *Settlement) issueGiftCode(tx *gorm.DB, months int) (*models.GiftCode, error) {
	bonusDays := GiftBonusDays(time.Now().UTC(), months)

	for attempt := 0; attempt < maxGiftCodeAttempts; attempt++ {
		code := &models.GiftCode{
			Code:           s.GenerateCode(),
			BonusDays:      bonusDays,
			MaxActivations: 1,
			IsActive:       true,
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(code)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to create gift code: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			return code, nil
		}
	}

	return nil, fmt.Errorf("failed to generate a unique gift code after %d attempts", maxGiftCodeAttempts)
}

func (s *Settlement) saveSubscription(tx *gorm.DB, userID uint, act *Activation) error {
	var sub models.Subscription
	err := tx.Where("user_id = ?", userID).First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = models.Subscription{
			UserID:          userID,
			RemnawaveID:     act.RemnawaveID,
			SubscriptionURL: act.ConnectionURL,
			ExpirationDate:  act.ExpiresAt,
			PlanType:        "standard",
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("db error checking subscription: %w", err)
	}

	updates := map[string]interface{}{"expiration_date": act.ExpiresAt}
	if act.ConnectionURL != "" {
		updates["subscription_url"] = act.ConnectionURL
	}
	if err := tx.Model(&sub).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (s *Settlement) sendGiftMessage(ctx context.Context, telegramID int64, gift *models.GiftCode) {
	link := fmt.Sprintf("https://t.me/%s?start=promo_%s", s.BotUsername, gift.Code)
	msg := fmt.Sprintf("🎁 Оплата прошла успешно!\n\nПодарочный код на %d дней:\n`%s`\n\nСсылка для активации:\n%s",
		gift.BonusDays, gift.Code, link)

	if _, err := s.Bot.SendMessage(ctx, tu.Message(tu.ID(telegramID), msg).WithParseMode(telego.ModeMarkdown)); err != nil {
		log.Printf("Failed to send gift message to %d: %v", telegramID, err)
	}
}

func (s *Settlement) sendActivationMessage(ctx context.Context, telegramID int64, act *Activation) {
	connection := act.ConnectionURL
	if connection == "" {
		connection = "ссылка временно недоступна, напишите в поддержку"
	}

	days := DaysRemaining(time.Now(), act.ExpiresAt)
	msg := fmt.Sprintf("✅ Оплата прошла успешно!\n\n📅 Действует до: %s (осталось %d дн.)\n\n🔗 Твоя ссылка на VPN:\n%s",
		act.ExpiresAt.Format("02.01.2006"), days, connection)

	if _, err := s.Bot.SendMessage(ctx, tu.Message(tu.ID(telegramID), msg)); err != nil {
		log.Printf("Failed to send activation message to %d: %v", telegramID, err)
	}
}
