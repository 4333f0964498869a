package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createPresaleTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_presale_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS presale_stages (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					total_raised DECIMAL(18,2) NOT NULL DEFAULT 0,
					total_supply DECIMAL(18,2) NOT NULL,
					current_rate DECIMAL(18,8) NOT NULL,
					stage_end_time TIMESTAMP WITH TIME ZONE NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				)
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS transactions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					wallet_address TEXT NOT NULL,
					currency VARCHAR(10) NOT NULL,
					pay_amount DECIMAL(18,8) NOT NULL,
					receive_amount DECIMAL(18,2) NOT NULL,
					tx_hash TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					referral_code TEXT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				)
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_transactions_wallet_address ON transactions (wallet_address)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS transactions").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS presale_stages").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createPresaleTablesMigration())
}
