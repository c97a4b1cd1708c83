package referral

import (
	"context"
	"fmt"

	"voron-bot/internal/models"
)

type Stats struct {
	InvitedCount int64
	TotalEarned  int64
	Balance      int64
}

func (l *Ledger) Stats(ctx context.Context, userID uint) (*Stats, error) {
	var user models.User
	if err := l.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	var invited int64
	if err := l.DB.WithContext(ctx).Model(&models.User{}).
		Where("referrer_id = ?", userID).Count(&invited).Error; err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	return &Stats{
		InvitedCount: invited,
		TotalEarned:  user.TotalEarned,
		Balance:      user.Balance,
	}, nil
}

// Link builds the deep link a user shares to attribute referrals.
func Link(botUsername string, user *models.User) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, user.ReferralCode)
}
