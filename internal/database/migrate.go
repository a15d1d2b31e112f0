package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
)

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GenerationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", db.Dialector.Name(), err)
	}
	return nil
}
