package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fabric is raw material stocked in meters.
type Fabric struct {
	FabricID      string          `gorm:"primaryKey;type:varchar(64)"`
	Name          string          `gorm:"not null"`
	Type          string          `gorm:"type:varchar(32);not null"`
	Color         string          `gorm:"not null;default:''"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;check:current_stock >= 0"`
	Unit          string          `gorm:"not null;default:'meters'"`
	LowStockAlert decimal.Decimal `gorm:"type:decimal(12,2);not null;default:10"`
	ReorderPoint  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:20"`
	CostPerMeter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SupplierName  string          `gorm:"not null;default:''"`
	Status        Status          `gorm:"type:varchar(20);index;not null;default:'in_stock'"`
	Discontinued  bool            `gorm:"not null;default:false"`
	IsActive      bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	UsedInProducts []FabricUsage `gorm:"foreignKey:FabricID;references:FabricID"`
}

// TotalValue is the valuation of the meters on hand.
func (f *Fabric) TotalValue() decimal.Decimal {
	return f.CurrentStock.Mul(f.CostPerMeter)
}

// FabricUsage is the denormalized record of one consumption event. The
// FabricTransaction log is authoritative; these rows can be rebuilt from it.
type FabricUsage struct {
	ID              uint   `gorm:"primaryKey"`
	FabricID        string `gorm:"type:varchar(64);index;not null"`
	ProductID       string `gorm:"type:varchar(64);not null"`
	ProductName     string `gorm:"not null"`
	ProductCategory string
	MetersUsed      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UsedAt          time.Time       `gorm:"not null"`
}

func (FabricUsage) TableName() string { return "fabric_usages" }
