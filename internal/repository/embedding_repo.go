package repository

import (
	"context"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"gorm.io/gorm"
)

type EmbeddingRepository interface {
	Create(ctx context.Context, e *model.ProductEmbedding) error
	// ListActive returns embeddings whose product is still active.
	ListActive(ctx context.Context) ([]model.ProductEmbedding, error)
	CountByProduct(ctx context.Context, productID string) (int64, error)
	ListByProduct(ctx context.Context, productID string) ([]model.ProductEmbedding, error)
	DeleteByProductTx(tx *gorm.DB, productID string) error
}

type embeddingRepo struct{ db *gorm.DB }

func NewEmbeddingRepository(db *gorm.DB) EmbeddingRepository { return &embeddingRepo{db: db} }

func (r *embeddingRepo) Create(ctx context.Context, e *model.ProductEmbedding) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *embeddingRepo) ListActive(ctx context.Context) ([]model.ProductEmbedding, error) {
	var out []model.ProductEmbedding
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.product_id = product_embeddings.product_id").
		Where("products.is_active = true").
		Find(&out).Error
	return out, err
}

func (r *embeddingRepo) CountByProduct(ctx context.Context, productID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ProductEmbedding{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *embeddingRepo) ListByProduct(ctx context.Context, productID string) ([]model.ProductEmbedding, error) {
	var out []model.ProductEmbedding
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *embeddingRepo) DeleteByProductTx(tx *gorm.DB, productID string) error {
	return tx.Where("product_id = ?", productID).Delete(&model.ProductEmbedding{}).Error
}
