package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AddVariant links variantID under parentID. Variants are one level deep: a
// product with a parent cannot take variants and a parent cannot become a
// variant.
func (s *productService) AddVariant(ctx context.Context, parentID, variantID string) (*dto.ProductResponse, error) {
	if parentID == variantID {
		return nil, fmt.Errorf("%w: a product cannot be its own variant", ledger.ErrInvalidOperation)
	}

	unlock := s.locks.Lock(ledger.ProductKey(parentID), ledger.ProductKey(variantID))
	defer unlock()

	parent, err := findActiveProduct(ctx, s.products, parentID)
	if err != nil {
		return nil, err
	}
	variant, err := findActiveProduct(ctx, s.products, variantID)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", variantID, err)
	}
	switch {
	case variant.ParentProductID != nil:
		return nil, fmt.Errorf("%w of %s", ErrVariantExists, *variant.ParentProductID)
	case parent.ParentProductID != nil:
		return nil, fmt.Errorf("%w: %s is itself a variant of %s", ledger.ErrInvalidOperation, parentID, *parent.ParentProductID)
	case len(variant.Variants) > 0:
		return nil, fmt.Errorf("%w: %s has variants of its own", ledger.ErrInvalidOperation, variantID)
	}

	link := &model.ProductVariant{
		ID:               uuid.New(),
		ParentProductID:  parentID,
		VariantProductID: variantID,
		Name:             variant.Name,
		Color:            variant.Color,
		CreatedAt:        s.now(),
	}
	if err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		return s.products.AddVariantTx(tx, link)
	}); err != nil {
		return nil, err
	}

	log.Info().Str("product_id", parentID).Str("variant_id", variantID).Msg("variant added")
	return s.Get(ctx, parentID)
}

func (s *productService) RemoveVariant(ctx context.Context, parentID, variantID string) (*dto.ProductResponse, error) {
	unlock := s.locks.Lock(ledger.ProductKey(parentID), ledger.ProductKey(variantID))
	defer unlock()

	if _, err := findActiveProduct(ctx, s.products, parentID); err != nil {
		return nil, err
	}
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		return s.products.RemoveVariantTx(tx, parentID, variantID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("product_id", parentID).Str("variant_id", variantID).Msg("variant removed")
	return s.Get(ctx, parentID)
}

// findActiveProduct treats a deactivated product as missing.
func findActiveProduct(ctx context.Context, products repository.ProductRepository, id string) (*model.Product, error) {
	p, err := products.FindByID(ctx, id)
	if err != nil {
		return nil, productLookupErr(err)
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	return p, nil
}
