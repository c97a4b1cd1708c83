package remnawave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voron-bot/internal/models"
	"voron-bot/internal/payment"

	"gorm.io/gorm"
)

// Activator implements the subscription-activation contract on top of the
// Remnawave panel: it creates the remote user on the first purchase and
// pushes a new expiry on renewals. It only reads the local store; persisting
// the result stays with the caller's transaction.
type Activator struct {
	Client  *Client
	DB      *gorm.DB
	SquadID string
}

func NewActivator(client *Client, db *gorm.DB, squadID string) *Activator {
	return &Activator{
		Client:  client,
		DB:      db,
		SquadID: squadID,
	}
}

func (a *Activator) Activate(ctx context.Context, telegramID int64, months int, amount float64, paymentID uint) (*payment.Activation, error) {
	var user models.User
	if err := a.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", telegramID, err)
	}

	var sub models.Subscription
	err := a.DB.WithContext(ctx).Where("user_id = ?", user.ID).First(&sub).Error

	now := time.Now()

	if errors.Is(err, gorm.ErrRecordNotFound) {
		expireAt := now.AddDate(0, months, 0)
		rwUser, err := a.Client.CreateUser(telegramID, fmt.Sprintf("user_%d", telegramID), expireAt, a.SquadID)
		if err != nil {
			return nil, fmt.Errorf("remnawave create user error: %w", err)
		}
		return &payment.Activation{
			ConnectionURL: rwUser.SubscriptionURL,
			ExpiresAt:     expireAt,
			RemnawaveID:   rwUser.UUID,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error checking subscription: %w", err)
	}

	// Renewal extends from the current expiry unless it already passed.
	base := sub.ExpirationDate
	if base.Before(now) {
		base = now
	}
	expireAt := base.AddDate(0, months, 0)

	if err := a.Client.ExtendSubscription(sub.RemnawaveID, expireAt); err != nil {
		return nil, fmt.Errorf("remnawave extend error: %w", err)
	}

	url := sub.SubscriptionURL
	if url == "" {
		if rwUser, err := a.Client.GetUser(sub.RemnawaveID); err == nil {
			url = rwUser.SubscriptionURL
		}
	}

	return &payment.Activation{
		ConnectionURL: url,
		ExpiresAt:     expireAt,
		RemnawaveID:   sub.RemnawaveID,
	}, nil
}
