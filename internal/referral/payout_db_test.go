package referral

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"voron-bot/internal/migrate"
	"voron-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Subscription{}, &models.Payment{},
		&models.ReferralTransaction{}, &models.GiftCode{},
	))
	require.NoError(t, migrate.Run(db, migrate.Migrations()))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, balance int64) *models.User {
	t.Helper()

	user := &models.User{
		TelegramID:   time.Now().UnixNano(),
		Username:     "payout_test",
		ReferralCode: fmt.Sprintf("ref_test_%d", time.Now().UnixNano()),
		Balance:      balance,
	}
	require.NoError(t, db.Create(user).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM payouts WHERE user_id = ?", user.ID)
		db.Exec("DELETE FROM users WHERE id = ?", user.ID)
	})
	return user
}

func TestRequestPayoutConcurrent(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, 1500)

	ledger := NewLedger(db, 1000)

	const attempts = 4
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		createdCount int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payout, created, err := ledger.RequestPayout(context.Background(), user.ID, "2200 1234 5678 9010")
			mu.Lock()
			defer mu.Unlock()
			require.NoError(t, err)
			require.NotNil(t, payout)
			assert.Equal(t, int64(1500), payout.Price)
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount, "exactly one attempt may create the payout")

	var rows int64
	db.Model(&models.Payout{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, int64(0), stored.Balance, "balance zeroed exactly once")
}

func TestRequestPayoutDuplicateSubmission(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, 2000)

	ledger := NewLedger(db, 1000)

	first, created, err := ledger.RequestPayout(context.Background(), user.ID, "+79001234567")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, int64(2000), first.Price)

	// Balance is now zero; a repeated tap reports the open request
	// instead of failing or inserting a second row.
	second, created, err := ledger.RequestPayout(context.Background(), user.ID, "+79001234567")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var rows int64
	db.Model(&models.Payout{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, 500)

	ledger := NewLedger(db, 1000)

	_, _, err := ledger.RequestPayout(context.Background(), user.ID, "+79001234567")
	require.ErrorIs(t, err, ErrBelowMinimum)

	var rows int64
	db.Model(&models.Payout{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.Equal(t, int64(0), rows, "below-minimum request must not write")

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, int64(500), stored.Balance)
}

func TestRequestPayoutConcurrentWithRewardAccrual(t *testing.T) {
	db := testDB(t)
	referrer := createTestUser(t, db, 1000)
	payer := createTestUser(t, db, 0)

	require.NoError(t, db.Model(payer).Update("referrer_id", referrer.ID).Error)

	pay := models.Payment{
		UserID:         payer.ID,
		Amount:         300,
		Currency:       "RUB",
		Status:         models.PaymentSucceeded,
		DurationMonths: 1,
		Provider:       models.ProviderCryptoPay,
	}
	require.NoError(t, db.Create(&pay).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM referral_transactions WHERE referrer_id = ?", referrer.ID)
		db.Exec("DELETE FROM payments WHERE id = ?", pay.ID)
	})

	ledger := NewLedger(db, 1000)

	// The payout snapshot and the reward credit race on the referrer's row.
	// Whichever order they serialize in, no credited money may vanish.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _, err := ledger.RequestPayout(context.Background(), referrer.ID, "2200 1234 5678 9010")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := ApplyReward(tx, &pay, 100)
			return err
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	var stored models.User
	require.NoError(t, db.First(&stored, referrer.ID).Error)

	var payout models.Payout
	require.NoError(t, db.Where("user_id = ?", referrer.ID).First(&payout).Error)

	// Payout ran first: price 1000, the later credit of 300 survives as
	// balance. Accrual ran first: price 1300, balance 0.
	assert.Equal(t, int64(1300), payout.Price+stored.Balance,
		"credited reward lost between balance snapshot and zeroing")
}

func TestRequestPayoutAfterClosedPayout(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, 1200)

	ledger := NewLedger(db, 1000)

	first, created, err := ledger.RequestPayout(context.Background(), user.ID, "+79001234567")
	require.NoError(t, err)
	require.True(t, created)

	// A paid-out request no longer blocks the next withdrawal.
	require.NoError(t, db.Model(&models.Payout{}).Where("id = ?", first.ID).
		Update("status", models.PayoutStatusCompleted).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("balance", 1100).Error)

	second, created, err := ledger.RequestPayout(context.Background(), user.ID, "+79001234567")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(1100), second.Price)
}
