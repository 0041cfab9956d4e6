package database

import (
	"fmt"

	"github.com/viktsys/cryptostock/models"
	"gorm.io/gorm"
)

// Migrate creates the symbol and price tables and their read indexes. Safe to rerun.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.CryptoSymbol{},
		&models.CryptoPrice{},
		&models.StockSymbol{},
		&models.StockPrice{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return OptimizeIndexes(db)
}

// OptimizeIndexes adds symbol-first indexes so the per-symbol count and join
// queries do not scan on the date-first primary keys.
func OptimizeIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_crypto_price_symbol_date
		ON crypto_price (crypto_id, date)
	`).Error; err != nil {
		return fmt.Errorf("failed to create crypto price index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_stock_price_symbol_date
		ON stock_price (stock_id, date)
	`).Error; err != nil {
		return fmt.Errorf("failed to create stock price index: %w", err)
	}

	return nil
}
