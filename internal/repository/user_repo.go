package repository

import (
	"context"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	// Upsert creates the user or, on a username clash, resets its password,
	// profile and role and reactivates it.
	Upsert(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) Upsert(ctx context.Context, u *model.User) error {
	u.IsActive = true
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "password_hash", "role", "is_active", "updated_at"}),
	}).Create(u).Error
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	// Accept login by username OR email (case-insensitive email match)
	err := r.db.WithContext(ctx).
		Where("(username = ? OR LOWER(email) = LOWER(?)) AND is_active = true", username, username).
		First(&u).Error
	return &u, err
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}
