package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a finished good. ProductID is the business key and never changes.
// Stock is the aggregate over all sizes; SizeStock holds the optional per-size buckets.
type Product struct {
	ProductID       string          `gorm:"primaryKey;type:varchar(64)"`
	Name            string          `gorm:"index;not null"`
	Description     string          `gorm:"not null;default:''"`
	Category        string          `gorm:"index;not null"`
	Color           string          `gorm:"not null;default:''"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock           int             `gorm:"not null;default:0;check:stock >= 0"`
	ReservedStock   int             `gorm:"not null;default:0;check:reserved_stock >= 0"`
	LowStockAlert   int             `gorm:"not null;default:5"`
	ReorderPoint    int             `gorm:"not null;default:10"`
	Unit            string          `gorm:"not null;default:'pcs'"`
	Status          Status          `gorm:"type:varchar(20);index;not null;default:'in_stock'"`
	Discontinued    bool            `gorm:"not null;default:false"`
	LastRestocked   *time.Time
	RestockQuantity *int
	IsActive        bool `gorm:"index;not null;default:true"`
	// ParentProductID is set while this product is a colour variant of another.
	ParentProductID *string `gorm:"type:varchar(64);index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	SizeStock  []SizeStock      `gorm:"foreignKey:ProductID;references:ProductID"`
	FabricUsed []ProductFabric  `gorm:"foreignKey:ProductID;references:ProductID"`
	Variants   []ProductVariant `gorm:"foreignKey:ParentProductID;references:ProductID"`
}

// AvailableStock is the stock not held by reservations.
func (p *Product) AvailableStock() int {
	return max(0, p.Stock-p.ReservedStock)
}

// FindSize returns the bucket for size, or nil when the product has none.
func (p *Product) FindSize(size string) *SizeStock {
	for i := range p.SizeStock {
		if p.SizeStock[i].Size == size {
			return &p.SizeStock[i]
		}
	}
	return nil
}

// SizeStock is one per-size bucket. Position keeps the insertion order.
type SizeStock struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"type:varchar(64);uniqueIndex:idx_product_size;not null"`
	Size      string `gorm:"type:varchar(16);uniqueIndex:idx_product_size;not null"`
	Stock     int    `gorm:"not null;default:0;check:size_stock_non_negative,stock >= 0"`
	Position  int    `gorm:"not null;default:0"`
}

func (SizeStock) TableName() string { return "product_size_stocks" }

// ProductFabric is one bill-of-materials line: meters of a fabric consumed per unit.
// FabricID is a lookup key, not a foreign key; the fabric may be missing.
type ProductFabric struct {
	ID           uint            `gorm:"primaryKey"`
	ProductID    string          `gorm:"type:varchar(64);index;not null"`
	FabricID     string          `gorm:"type:varchar(64);not null"`
	FabricName   string          `gorm:"not null;default:''"`
	MetersUsed   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CostPerMeter decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Position     int             `gorm:"not null;default:0"`
}

func (ProductFabric) TableName() string { return "product_fabrics" }
