package migrate

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Migration is one versioned schema change. Upgrade must inspect the current
// schema before altering it, so re-running a migration is harmless even if
// its ledger row were ever lost.
type Migration struct {
	ID          string
	Description string
	Upgrade     func(tx *gorm.DB) error
}

const createLedgerTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    id VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Run applies the declared migrations in declared order, skipping ids already
// recorded in the ledger. Each pending migration runs in its own transaction
// scope together with its ledger insert; a failure rolls that scope back and
// aborts the run, leaving earlier migrations committed.
func Run(db *gorm.DB, migrations []Migration) error {
	if err := db.Exec(createLedgerTable).Error; err != nil {
		return fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var appliedIDs []string
	if err := db.Raw("SELECT id FROM schema_migrations").Scan(&appliedIDs).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(appliedIDs))
	for _, id := range appliedIDs {
		applied[id] = true
	}

	for _, migration := range migrations {
		if applied[migration.ID] {
			continue
		}

		log.Printf("Migrator: applying %s - %s", migration.ID, migration.Description)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Upgrade(tx); err != nil {
				return err
			}
			return tx.Exec("INSERT INTO schema_migrations (id) VALUES (?)", migration.ID).Error
		})
		if err != nil {
			log.Printf("Migrator: failed to apply %s (%s): %v", migration.ID, migration.Description, err)
			return fmt.Errorf("migration %s failed: %w", migration.ID, err)
		}

		log.Printf("Migrator: migration %s applied successfully", migration.ID)
	}

	return nil
}
