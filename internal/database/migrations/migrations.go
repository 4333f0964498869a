package migrations

import (
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrationsList is populated by each migration file's init, ordered by the
// numeric prefix in the migration IDs.
var migrationsList []*gormigrate.Migration

// RunMigrations applies every migration the database has not seen yet.
// Called once at startup before any service touches the schema.
func RunMigrations(db *gorm.DB) error {
	if err := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList).Migrate(); err != nil {
		return err
	}
	log.Printf("database schema up to date (%d migrations registered)", len(migrationsList))
	return nil
}
