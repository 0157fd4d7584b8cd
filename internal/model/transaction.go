package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FabricTransaction is an immutable fabric ledger entry.
// Type: "purchase" | "usage" | "adjustment" | "wastage" | "return"
type FabricTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FabricID        string          `gorm:"type:varchar(64);index;not null"`
	Type            string          `gorm:"type:varchar(20);index;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PreviousStock   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NewStock        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reference       string          `gorm:"index"`
	Notes           string
	CostPerMeter    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalValue      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PerformedBy     string          `gorm:"not null"`
	TransactionDate time.Time       `gorm:"index;not null"`
	CreatedAt       time.Time
}

// InventoryTransaction is an immutable product ledger entry.
// Type: "in" | "out" | "adjustment"
type InventoryTransaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       string    `gorm:"type:varchar(64);index;not null"`
	Size            *string   `gorm:"type:varchar(16)"`
	Type            string    `gorm:"type:varchar(20);index;not null"`
	Quantity        int       `gorm:"not null"`
	PreviousStock   int       `gorm:"not null"`
	NewStock        int       `gorm:"not null"`
	Reason          string    `gorm:"type:varchar(32);not null"`
	Reference       string
	Notes           string
	CostPerUnit     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalValue      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PerformedBy     string          `gorm:"not null"`
	TransactionDate time.Time       `gorm:"index;not null"`
	CreatedAt       time.Time
}
