package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant links a parent product to another product sold as one of its
// colours. A product is the variant of at most one parent; Name and Color are
// snapshotted from the variant when the link is made.
type ProductVariant struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ParentProductID  string    `gorm:"type:varchar(64);index;not null"`
	VariantProductID string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name             string    `gorm:"not null"`
	Color            string    `gorm:"not null;default:''"`
	CreatedAt        time.Time
}
