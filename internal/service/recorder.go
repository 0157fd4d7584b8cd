package service

import (
	"fmt"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recorder appends entries to the product and fabric ledgers. It is always
// called with the transaction of the mutation being recorded, so a failed
// write rolls the mutation back with it.
type Recorder struct {
	repo repository.TransactionRepository
}

func NewRecorder(repo repository.TransactionRepository) *Recorder {
	return &Recorder{repo: repo}
}

// InventoryEntry describes one recorded product stock mutation.
type InventoryEntry struct {
	ProductID   string
	Change      *ledger.StockChange
	Reason      string
	Reference   string
	Notes       string
	CostPerUnit decimal.Decimal
	Actor       string
	At          time.Time
}

// RecordInventory writes the InventoryTransaction for a stock change.
func (r *Recorder) RecordInventory(tx *gorm.DB, e InventoryEntry) (*model.InventoryTransaction, error) {
	qty := e.Change.Delta()
	if qty < 0 {
		qty = -qty
	}
	t := &model.InventoryTransaction{
		ID:              uuid.New(),
		ProductID:       e.ProductID,
		Type:            e.Change.Operation.TransactionType(),
		Quantity:        qty,
		PreviousStock:   e.Change.PreviousStock,
		NewStock:        e.Change.NewStock,
		Reason:          e.Reason,
		Reference:       e.Reference,
		Notes:           e.Notes,
		CostPerUnit:     e.CostPerUnit,
		TotalValue:      e.CostPerUnit.Mul(decimal.NewFromInt(int64(qty))),
		PerformedBy:     e.Actor,
		TransactionDate: e.At,
		CreatedAt:       e.At,
	}
	if e.Change.Size != "" {
		size := e.Change.Size
		t.Size = &size
	}
	if err := r.repo.CreateInventoryTx(tx, t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditWrite, err)
	}
	return t, nil
}

// FabricEntry describes one recorded fabric stock change.
type FabricEntry struct {
	FabricID     string
	Type         string // purchase | usage | adjustment | wastage | return
	Before       decimal.Decimal
	After        decimal.Decimal
	CostPerMeter decimal.Decimal
	Reference    string
	Notes        string
	Actor        string
	At           time.Time
}

// RecordFabric writes the FabricTransaction for a fabric stock change.
func (r *Recorder) RecordFabric(tx *gorm.DB, e FabricEntry) (*model.FabricTransaction, error) {
	qty := e.After.Sub(e.Before).Abs()
	t := &model.FabricTransaction{
		ID:              uuid.New(),
		FabricID:        e.FabricID,
		Type:            e.Type,
		Quantity:        qty,
		PreviousStock:   e.Before,
		NewStock:        e.After,
		Reference:       e.Reference,
		Notes:           e.Notes,
		CostPerMeter:    e.CostPerMeter,
		TotalValue:      e.CostPerMeter.Mul(qty),
		PerformedBy:     e.Actor,
		TransactionDate: e.At,
		CreatedAt:       e.At,
	}
	if err := r.repo.CreateFabricTx(tx, t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditWrite, err)
	}
	return t, nil
}
