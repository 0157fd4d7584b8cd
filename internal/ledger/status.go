// Package ledger holds the stock-and-fabric rules: status derivation, stock
// operations on a product, the fabric consumption plan for a production run,
// and per-entity locking. It has no persistence dependencies; the service
// layer applies its results inside a database transaction.
package ledger

import (
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/shopspring/decimal"
)

// DeriveStatus is the single status rule for products and fabrics:
// stock==0 → out_of_stock, 0<stock≤lowStockAlert → low_stock, else in_stock.
// A discontinued entity keeps its discontinued status whatever the stock.
func DeriveStatus(stock, lowStockAlert decimal.Decimal, discontinued bool) model.Status {
	switch {
	case discontinued:
		return model.StatusDiscontinued
	case stock.Sign() <= 0:
		return model.StatusOutOfStock
	case stock.LessThanOrEqual(lowStockAlert):
		return model.StatusLowStock
	default:
		return model.StatusInStock
	}
}

// ProductStatus derives the status of p from its aggregate stock.
func ProductStatus(p *model.Product) model.Status {
	return DeriveStatus(decimal.NewFromInt(int64(p.Stock)), decimal.NewFromInt(int64(p.LowStockAlert)), p.Discontinued)
}

// FabricStatus derives the status of f from its current meters.
func FabricStatus(f *model.Fabric) model.Status {
	return DeriveStatus(f.CurrentStock, f.LowStockAlert, f.Discontinued)
}
