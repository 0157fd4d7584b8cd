package model

import (
	"time"

	"github.com/google/uuid"
)

// QRCode is the stored label for one product. PNG holds the encoded image;
// URL is the storefront address the code resolves to.
type QRCode struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID    string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	ProductName  string    `gorm:"not null"`
	URL          string    `gorm:"not null"`
	PNG          []byte    `gorm:"type:bytea;not null"`
	Size         int       `gorm:"not null;default:300"`
	GeneratedBy  string    `gorm:"not null"`
	GeneratedAt  time.Time `gorm:"index;not null"`
	LastAccessed time.Time `gorm:"not null"`
	AccessCount  int       `gorm:"not null;default:0"`
}

func (QRCode) TableName() string { return "qr_codes" }
