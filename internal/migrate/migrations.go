package migrate

import (
	"gorm.io/gorm"
)

// Migrations builds the ordered migration list. The caller owns the slice and
// hands it to Run at bootstrap; append new migrations at the end, never
// reorder or delete existing entries.
func Migrations() []Migration {
	return []Migration{
		{
			ID:          "0001_add_channel_subscription_fields",
			Description: "Add columns to track required channel subscription verification",
			Upgrade: func(tx *gorm.DB) error {
				return addColumns(tx, "users", []column{
					{"channel_subscription_verified", "ALTER TABLE users ADD COLUMN channel_subscription_verified BOOLEAN"},
					{"channel_subscription_checked_at", "ALTER TABLE users ADD COLUMN channel_subscription_checked_at TIMESTAMPTZ"},
					{"channel_subscription_verified_for", "ALTER TABLE users ADD COLUMN channel_subscription_verified_for BIGINT"},
				})
			},
		},
		{
			ID:          "0002_add_user_balance",
			Description: "Add balance column to users table",
			Upgrade: func(tx *gorm.DB) error {
				return addColumns(tx, "users", []column{
					{"balance", "ALTER TABLE users ADD COLUMN balance BIGINT DEFAULT 0"},
				})
			},
		},
		{
			ID:          "0003_add_user_total_earned",
			Description: "Add total_earned column to users table",
			Upgrade: func(tx *gorm.DB) error {
				return addColumns(tx, "users", []column{
					{"total_earned", "ALTER TABLE users ADD COLUMN total_earned BIGINT DEFAULT 0"},
				})
			},
		},
		{
			ID:          "0004_add_payment_referral_reward_applied",
			Description: "Add referral_reward_applied column to payments table",
			Upgrade: func(tx *gorm.DB) error {
				return addColumns(tx, "payments", []column{
					{"referral_reward_applied", "ALTER TABLE payments ADD COLUMN referral_reward_applied BOOLEAN DEFAULT FALSE"},
				})
			},
		},
		{
			ID:          "0005_add_subscription_resend_disable_fields",
			Description: "Add resend disable notification fields to subscriptions table",
			Upgrade: func(tx *gorm.DB) error {
				return addColumns(tx, "subscriptions", []column{
					{"resend_disable_message_date", "ALTER TABLE subscriptions ADD COLUMN resend_disable_message_date TIMESTAMPTZ"},
					{"resend_disable_message_step", "ALTER TABLE subscriptions ADD COLUMN resend_disable_message_step INTEGER DEFAULT 0"},
				})
			},
		},
		{
			ID:          "0006_create_payouts_table",
			Description: "Create payouts table",
			Upgrade: func(tx *gorm.DB) error {
				if tx.Migrator().HasTable("payouts") {
					return nil
				}

				if err := tx.Exec(`
					CREATE TABLE payouts (
						id SERIAL PRIMARY KEY,
						user_id BIGINT NOT NULL
							REFERENCES users(id)
							ON DELETE CASCADE,
						price BIGINT NOT NULL,
						requisites VARCHAR NOT NULL,
						status VARCHAR NOT NULL,
						created_at TIMESTAMPTZ DEFAULT NOW(),
						updated_at TIMESTAMPTZ
					)`).Error; err != nil {
					return err
				}

				if err := tx.Exec("CREATE INDEX idx_payouts_user_id ON payouts(user_id)").Error; err != nil {
					return err
				}
				return tx.Exec("CREATE INDEX idx_payouts_status ON payouts(status)").Error
			},
		},
		{
			ID:          "0007_add_payouts_open_request_unique_index",
			Description: "Allow at most one open payout request per user",
			Upgrade: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex("payouts", "idx_payouts_open_request") {
					return nil
				}
				return tx.Exec(
					"CREATE UNIQUE INDEX idx_payouts_open_request ON payouts(user_id) WHERE status = 'created'",
				).Error
			},
		},
	}
}

type column struct {
	name string
	ddl  string
}

func addColumns(tx *gorm.DB, table string, columns []column) error {
	for _, col := range columns {
		if tx.Migrator().HasColumn(table, col.name) {
			continue
		}
		if err := tx.Exec(col.ddl).Error; err != nil {
			return err
		}
	}
	return nil
}
