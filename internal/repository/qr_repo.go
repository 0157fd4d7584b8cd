package repository

import (
	"context"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QRCodeRepository interface {
	FindByProductTx(tx *gorm.DB, productID string) (*model.QRCode, error)
	CreateTx(tx *gorm.DB, q *model.QRCode) error
	// TouchTx bumps the access counter and stamps the access time.
	TouchTx(tx *gorm.DB, id uuid.UUID, at time.Time) error
	DeleteByProductTx(tx *gorm.DB, productID string) (int64, error)
	// List returns every stored code, newest first.
	List(ctx context.Context) ([]model.QRCode, error)
	DeleteAll(ctx context.Context) (int64, error)

	DB() *gorm.DB
}

type qrCodeRepo struct{ db *gorm.DB }

func NewQRCodeRepository(db *gorm.DB) QRCodeRepository { return &qrCodeRepo{db: db} }

func (r *qrCodeRepo) FindByProductTx(tx *gorm.DB, productID string) (*model.QRCode, error) {
	var q model.QRCode
	err := tx.Where("product_id = ?", productID).First(&q).Error
	return &q, err
}

func (r *qrCodeRepo) CreateTx(tx *gorm.DB, q *model.QRCode) error {
	return tx.Create(q).Error
}

func (r *qrCodeRepo) TouchTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&model.QRCode{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_count":  gorm.Expr("access_count + 1"),
		"last_accessed": at,
	}).Error
}

func (r *qrCodeRepo) DeleteByProductTx(tx *gorm.DB, productID string) (int64, error) {
	res := tx.Where("product_id = ?", productID).Delete(&model.QRCode{})
	return res.RowsAffected, res.Error
}

func (r *qrCodeRepo) List(ctx context.Context) ([]model.QRCode, error) {
	var out []model.QRCode
	err := r.db.WithContext(ctx).Order("generated_at DESC").Find(&out).Error
	return out, err
}

func (r *qrCodeRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.QRCode{})
	return res.RowsAffected, res.Error
}

func (r *qrCodeRepo) DB() *gorm.DB { return r.db }
