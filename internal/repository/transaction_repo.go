package repository

import (
	"context"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository persists the append-only product and fabric ledgers.
// Entries are never updated or deleted.
type TransactionRepository interface {
	CreateInventoryTx(tx *gorm.DB, t *model.InventoryTransaction) error
	CreateFabricTx(tx *gorm.DB, t *model.FabricTransaction) error
	ListInventory(ctx context.Context, filter dto.InventoryTransactionFilter) ([]model.InventoryTransaction, int64, error)
	ListFabric(ctx context.Context, fabricID string, filter dto.FabricTransactionFilter) ([]model.FabricTransaction, int64, error)
	// ListFabricUsage returns every "usage" entry of a fabric, oldest first.
	ListFabricUsage(ctx context.Context, fabricID string) ([]model.FabricTransaction, error)
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) CreateInventoryTx(tx *gorm.DB, t *model.InventoryTransaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) CreateFabricTx(tx *gorm.DB, t *model.FabricTransaction) error {
	return tx.Create(t).Error
}

func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return (page - 1) * limit, limit
}

func (r *transactionRepo) ListInventory(ctx context.Context, filter dto.InventoryTransactionFilter) ([]model.InventoryTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{})
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.Limit)
	var txs []model.InventoryTransaction
	err := q.Order("transaction_date DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, total, err
}

func (r *transactionRepo) ListFabric(ctx context.Context, fabricID string, filter dto.FabricTransactionFilter) ([]model.FabricTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.FabricTransaction{}).Where("fabric_id = ?", fabricID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(filter.Page, filter.Limit)
	var txs []model.FabricTransaction
	err := q.Order("transaction_date DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, total, err
}

func (r *transactionRepo) ListFabricUsage(ctx context.Context, fabricID string) ([]model.FabricTransaction, error) {
	var txs []model.FabricTransaction
	err := r.db.WithContext(ctx).
		Where("fabric_id = ? AND type = ?", fabricID, "usage").
		Order("transaction_date ASC").
		Find(&txs).Error
	return txs, err
}
