package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createReferralCodesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_referral_codes",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS referral_codes (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					code VARCHAR(50) NOT NULL UNIQUE,
					discount_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					usage_count INT NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS referral_codes").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createReferralCodesMigration())
}
