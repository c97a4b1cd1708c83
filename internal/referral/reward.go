package referral

import (
	"fmt"

	"voron-bot/internal/models"

	"gorm.io/gorm"
)

// ApplyReward credits the payer's referrer with a share of a settled payment.
// It runs inside the caller's transaction so the credit commits or rolls back
// together with the settlement. Returns the credited amount; zero when the
// payer has no referrer, the percent is unset or the payment was already
// rewarded.
func ApplyReward(tx *gorm.DB, payment *models.Payment, percent int) (int64, error) {
	if payment.ReferralRewardApplied || percent <= 0 {
		return 0, nil
	}

	var payer models.User
	if err := tx.First(&payer, payment.UserID).Error; err != nil {
		return 0, fmt.Errorf("failed to load payer %d: %w", payment.UserID, err)
	}
	if payer.ReferrerID == nil {
		return 0, nil
	}

	reward := int64(payment.Amount * float64(percent) / 100)
	if reward <= 0 {
		return 0, nil
	}

	err := tx.Model(&models.User{}).Where("id = ?", *payer.ReferrerID).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", reward),
			"total_earned": gorm.Expr("total_earned + ?", reward),
		}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to credit referrer %d: %w", *payer.ReferrerID, err)
	}

	record := models.ReferralTransaction{
		ReferrerID:    *payer.ReferrerID,
		InvitedUserID: payer.ID,
		Amount:        reward,
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to record referral transaction: %w", err)
	}

	if err := tx.Model(payment).Update("referral_reward_applied", true).Error; err != nil {
		return 0, fmt.Errorf("failed to mark payment %d rewarded: %w", payment.ID, err)
	}

	return reward, nil
}
