package service

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrFabricNotFound     = errors.New("fabric not found")
	ErrProductExists      = errors.New("product id already exists")
	ErrFabricExists       = errors.New("fabric id already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("refresh token invalid or expired")
	ErrAuditWrite         = errors.New("audit record could not be written")
	ErrEmbeddingFailed    = errors.New("image embedding failed")
	ErrVariantExists      = errors.New("product is already a variant")
	ErrVariantNotFound    = errors.New("variant link not found")
	ErrQRCodeNotFound     = errors.New("qr code not found")
)
