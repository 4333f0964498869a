package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createAdminUsersMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_admin_users",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS admin_users (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					username VARCHAR(50) NOT NULL UNIQUE,
					password_hash VARCHAR(255) NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS admin_users").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createAdminUsersMigration())
}
