package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockConflict is returned when a conditional fabric decrement matches no
// row, meaning the stock fell below the requested amount.
var ErrStockConflict = errors.New("fabric stock changed concurrently")

type FabricRepository interface {
	CreateTx(tx *gorm.DB, f *model.Fabric) error
	FindByID(ctx context.Context, id string) (*model.Fabric, error)
	List(ctx context.Context) ([]model.Fabric, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListUsage(ctx context.Context, fabricID string) ([]model.FabricUsage, error)
	// ReplaceUsage swaps the denormalized usage rows of a fabric atomically.
	ReplaceUsage(ctx context.Context, fabricID string, usages []model.FabricUsage) error
	SetDiscontinued(ctx context.Context, id string, discontinued bool, status model.Status) error
	SoftDelete(ctx context.Context, id string) error

	// FindByIDsForUpdateTx locks the rows in fabric id order and returns them keyed by id.
	// Unknown ids are absent from the map.
	FindByIDsForUpdateTx(tx *gorm.DB, ids []string) (map[string]*model.Fabric, error)
	// DeductStockTx subtracts meters only if at least that much is on hand.
	DeductStockTx(tx *gorm.DB, fabricID string, meters decimal.Decimal, status model.Status) error
	SetStockTx(tx *gorm.DB, fabricID string, stock decimal.Decimal, status model.Status) error
	AppendUsageTx(tx *gorm.DB, u *model.FabricUsage) error

	DB() *gorm.DB
}

type fabricRepo struct{ db *gorm.DB }

func NewFabricRepository(db *gorm.DB) FabricRepository { return &fabricRepo{db: db} }

func (r *fabricRepo) CreateTx(tx *gorm.DB, f *model.Fabric) error {
	return tx.Create(f).Error
}

func (r *fabricRepo) FindByID(ctx context.Context, id string) (*model.Fabric, error) {
	var f model.Fabric
	err := r.db.WithContext(ctx).Where("fabric_id = ?", id).First(&f).Error
	return &f, err
}

func (r *fabricRepo) List(ctx context.Context) ([]model.Fabric, error) {
	var fabrics []model.Fabric
	err := r.db.WithContext(ctx).Where("is_active = true").Order("fabric_id ASC").Find(&fabrics).Error
	return fabrics, err
}

func (r *fabricRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Fabric{}).Order("fabric_id ASC").Pluck("fabric_id", &ids).Error
	return ids, err
}

func (r *fabricRepo) ListUsage(ctx context.Context, fabricID string) ([]model.FabricUsage, error) {
	var usages []model.FabricUsage
	err := r.db.WithContext(ctx).Where("fabric_id = ?", fabricID).Order("used_at DESC").Find(&usages).Error
	return usages, err
}

func (r *fabricRepo) ReplaceUsage(ctx context.Context, fabricID string, usages []model.FabricUsage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fabric_id = ?", fabricID).Delete(&model.FabricUsage{}).Error; err != nil {
			return err
		}
		if len(usages) == 0 {
			return nil
		}
		return tx.CreateInBatches(usages, 200).Error
	})
}

func (r *fabricRepo) SetDiscontinued(ctx context.Context, id string, discontinued bool, status model.Status) error {
	res := r.db.WithContext(ctx).Model(&model.Fabric{}).Where("fabric_id = ?", id).Updates(map[string]interface{}{
		"discontinued": discontinued,
		"status":       status,
		"updated_at":   time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *fabricRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Fabric{}).
		Where("fabric_id = ? AND is_active = true", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *fabricRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []string) (map[string]*model.Fabric, error) {
	out := make(map[string]*model.Fabric, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var fabrics []model.Fabric
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("fabric_id IN ?", ids).
		Order("fabric_id ASC").
		Find(&fabrics).Error; err != nil {
		return nil, err
	}
	for i := range fabrics {
		out[fabrics[i].FabricID] = &fabrics[i]
	}
	return out, nil
}

func (r *fabricRepo) DeductStockTx(tx *gorm.DB, fabricID string, meters decimal.Decimal, status model.Status) error {
	res := tx.Model(&model.Fabric{}).
		Where("fabric_id = ? AND current_stock >= ?", fabricID, meters).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock - ?", meters),
			"status":        status,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *fabricRepo) SetStockTx(tx *gorm.DB, fabricID string, stock decimal.Decimal, status model.Status) error {
	res := tx.Model(&model.Fabric{}).Where("fabric_id = ?", fabricID).Updates(map[string]interface{}{
		"current_stock": stock,
		"status":        status,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *fabricRepo) AppendUsageTx(tx *gorm.DB, u *model.FabricUsage) error {
	return tx.Create(u).Error
}

func (r *fabricRepo) DB() *gorm.DB { return r.db }
