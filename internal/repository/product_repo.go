package repository

import (
	"context"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	// ListActive returns every active product ordered by product id.
	ListActive(ctx context.Context) ([]model.Product, error)
	SetDiscontinued(ctx context.Context, id string, discontinued bool, status model.Status) error
	SoftDelete(ctx context.Context, id string) error

	// Used inside transactions; callers must pass the tx instance.
	// FindByIDForUpdateTx takes a row lock held until the transaction ends.
	FindByIDForUpdateTx(tx *gorm.DB, id string) (*model.Product, error)
	// SaveStockTx persists stock, reservation, status, restock stamps and size buckets.
	SaveStockTx(tx *gorm.DB, p *model.Product) error
	// SaveDetailsTx writes the descriptive, price and threshold columns plus
	// the derived status. Stock columns are left alone.
	SaveDetailsTx(tx *gorm.DB, p *model.Product) error
	// AddVariantTx stores the link and points the variant at its parent.
	AddVariantTx(tx *gorm.DB, v *model.ProductVariant) error
	// RemoveVariantTx deletes the link and clears the variant's parent.
	RemoveVariantTx(tx *gorm.DB, parentID, variantID string) error
	// HardDeleteTx removes the product with its size buckets, fabric lines and
	// variant links. Variants of the product are detached, not deleted.
	HardDeleteTx(tx *gorm.DB, id string) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func orderedSizes(db *gorm.DB) *gorm.DB    { return db.Order("position ASC") }
func orderedFabrics(db *gorm.DB) *gorm.DB  { return db.Order("position ASC") }
func orderedVariants(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("SizeStock", orderedSizes).
		Preload("FabricUsed", orderedFabrics).
		Preload("Variants", orderedVariants).
		Where("product_id = ?", id).
		First(&p).Error
	return &p, err
}

func (r *productRepo) FindByIDForUpdateTx(tx *gorm.DB, id string) (*model.Product, error) {
	var p model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", id).
		First(&p).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", id).Order("position ASC").Find(&p.SizeStock).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("product_id = ?", id).Order("position ASC").Find(&p.FabricUsed).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	// Active filter: "false" = inactive, "all" = everything, anything else = active (default)
	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
	default:
		q = q.Where("is_active = true")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("SizeStock", orderedSizes).
		Preload("FabricUsed", orderedFabrics).
		Preload("Variants", orderedVariants).
		Order("product_id ASC").Limit(filter.Limit).Offset(offset).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("SizeStock", orderedSizes).
		Where("is_active = true").
		Order("product_id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) SetDiscontinued(ctx context.Context, id string, discontinued bool, status model.Status) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("product_id = ?", id).
		Updates(map[string]interface{}{"discontinued": discontinued, "status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("product_id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SaveStockTx(tx *gorm.DB, p *model.Product) error {
	if err := tx.Model(&model.Product{}).Where("product_id = ?", p.ProductID).Updates(map[string]interface{}{
		"stock":            p.Stock,
		"reserved_stock":   p.ReservedStock,
		"status":           p.Status,
		"last_restocked":   p.LastRestocked,
		"restock_quantity": p.RestockQuantity,
		"updated_at":       time.Now(),
	}).Error; err != nil {
		return err
	}
	for i := range p.SizeStock {
		s := &p.SizeStock[i]
		s.ProductID = p.ProductID
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "size"}},
			DoUpdates: clause.AssignmentColumns([]string{"stock"}),
		}).Create(s).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *productRepo) SaveDetailsTx(tx *gorm.DB, p *model.Product) error {
	res := tx.Model(&model.Product{}).Where("product_id = ?", p.ProductID).Updates(map[string]interface{}{
		"name":            p.Name,
		"description":     p.Description,
		"category":        p.Category,
		"color":           p.Color,
		"cost_price":      p.CostPrice,
		"selling_price":   p.SellingPrice,
		"low_stock_alert": p.LowStockAlert,
		"reorder_point":   p.ReorderPoint,
		"unit":            p.Unit,
		"status":          p.Status,
		"updated_at":      time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) AddVariantTx(tx *gorm.DB, v *model.ProductVariant) error {
	if err := tx.Create(v).Error; err != nil {
		return err
	}
	return tx.Model(&model.Product{}).Where("product_id = ?", v.VariantProductID).
		Update("parent_product_id", v.ParentProductID).Error
}

func (r *productRepo) RemoveVariantTx(tx *gorm.DB, parentID, variantID string) error {
	res := tx.Where("parent_product_id = ? AND variant_product_id = ?", parentID, variantID).Delete(&model.ProductVariant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return tx.Model(&model.Product{}).Where("product_id = ?", variantID).
		Update("parent_product_id", nil).Error
}

func (r *productRepo) HardDeleteTx(tx *gorm.DB, id string) error {
	if err := tx.Model(&model.Product{}).Where("parent_product_id = ?", id).
		Update("parent_product_id", nil).Error; err != nil {
		return err
	}
	if err := tx.Where("parent_product_id = ? OR variant_product_id = ?", id, id).
		Delete(&model.ProductVariant{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&model.SizeStock{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&model.ProductFabric{}).Error; err != nil {
		return err
	}
	res := tx.Where("product_id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) DB() *gorm.DB { return r.db }
