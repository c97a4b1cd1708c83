package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voron-bot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBelowMinimum marks a payout request for a balance under the withdrawal
// threshold. No write happens on this path.
var ErrBelowMinimum = errors.New("balance below payout minimum")

// Ledger converts a user's accrued balance into a payout request. The balance
// snapshot, the conflict-aware payout insert and the zeroing share one
// transaction; losing a race yields the existing open request instead of a
// second row or a second zeroing.
type Ledger struct {
	DB            *gorm.DB
	MinimumPayout int64
}

func NewLedger(db *gorm.DB, minimumPayout int64) *Ledger {
	return &Ledger{
		DB:            db,
		MinimumPayout: minimumPayout,
	}
}

// RequestPayout returns the payout row and whether this call created it.
// The idx_payouts_open_request partial unique index (one open payout per
// user) is the conflict target: the losing concurrent attempt inserts
// nothing and leaves the balance untouched.
func (l *Ledger) RequestPayout(ctx context.Context, userID uint, requisites string) (*models.Payout, bool, error) {
	var (
		payout  models.Payout
		created bool
	)

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes the payout against concurrent reward
		// accrual: a credit committed after this read would be wiped by the
		// zeroing below without ever reaching a payout row.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user %d: %w", userID, err)
		}

		if user.Balance < l.MinimumPayout {
			// A duplicate submission after the balance was already zeroed
			// is not an error: report the open request instead.
			err := tx.Where("user_id = ? AND status = ?", user.ID, models.PayoutStatusCreated).
				First(&payout).Error
			if err == nil {
				created = false
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check open payouts: %w", err)
			}
			return ErrBelowMinimum
		}

		payout = models.Payout{
			UserID:     user.ID,
			Price:      user.Balance,
			Requisites: requisites,
			Status:     models.PayoutStatusCreated,
			CreatedAt:  time.Now().UTC(),
		}

		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Name: "status"}, Value: models.PayoutStatusCreated},
			}},
			DoNothing: true,
		}).Create(&payout)
		if result.Error != nil {
			return fmt.Errorf("failed to create payout: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			// A concurrent request won the race; return its row untouched.
			created = false
			if err := tx.Where("user_id = ? AND status = ?", user.ID, models.PayoutStatusCreated).
				First(&payout).Error; err != nil {
				return fmt.Errorf("failed to load existing payout: %w", err)
			}
			return nil
		}

		created = true
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("balance", 0).Error; err != nil {
			return fmt.Errorf("failed to zero balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &payout, created, nil
}
