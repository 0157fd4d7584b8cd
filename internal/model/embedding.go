package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductEmbedding stores the image vector used by visual search.
type ProductEmbedding struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID string    `gorm:"type:varchar(64);index;not null"`
	ImagePath string    `gorm:"not null"`
	Vector    []float64 `gorm:"type:jsonb;serializer:json;not null"`
	Model     string    `gorm:"not null;default:'clip-vit-b32'"`
	CreatedAt time.Time
}
