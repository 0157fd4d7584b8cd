package infra

import (
	"fmt"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the ledger schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Fabric{},
		&model.FabricUsage{},
		&model.FabricTransaction{},
		&model.Product{},
		&model.SizeStock{},
		&model.ProductFabric{},
		&model.InventoryTransaction{},
		&model.ProductEmbedding{},
		&model.ProductVariant{},
		&model.QRCode{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// fully handle on its own. Each statement is guarded by an existence check so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// reservation can never exceed the units on hand
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_reserved_le_stock') THEN
		    ALTER TABLE products ADD CONSTRAINT chk_products_reserved_le_stock CHECK (reserved_stock <= stock);
		  END IF;
		END $$`,
		// partial index for the alert and overview queries
		`CREATE INDEX IF NOT EXISTS idx_products_alerting
		    ON products (status)
		    WHERE is_active = true AND status IN ('low_stock', 'out_of_stock')`,
		// usage rebuild scans usage entries per fabric in date order
		`CREATE INDEX IF NOT EXISTS idx_fabric_transactions_usage
		    ON fabric_transactions (fabric_id, transaction_date)
		    WHERE type = 'usage'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
