package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const embeddingModel = "clip-vit-b32"

// Embedder turns an image into a vector. Implemented by infra.EmbeddingClient.
type Embedder interface {
	EmbedImage(ctx context.Context, filename string, image []byte) ([]float64, error)
}

type ProductService interface {
	Create(ctx context.Context, actor string, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, productID string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	// Update edits descriptive details, prices and thresholds. Stock only
	// moves through the inventory ledger.
	Update(ctx context.Context, productID string, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, productID string) error
	// HardDelete removes the product with its QR code, embeddings, variant
	// links and uploaded images. Ledger history is kept.
	HardDelete(ctx context.Context, productID string) (*dto.HardDeleteResponse, error)
	AddVariant(ctx context.Context, parentID, variantID string) (*dto.ProductResponse, error)
	RemoveVariant(ctx context.Context, parentID, variantID string) (*dto.ProductResponse, error)
	SetDiscontinued(ctx context.Context, productID string, discontinued bool) (*dto.ProductResponse, error)
	IndexImage(ctx context.Context, productID, imagePath, filename string, image []byte) (*dto.EmbeddingResponse, error)
	SearchByImage(ctx context.Context, filename string, image []byte) (*dto.ImageSearchResponse, error)
}

type productService struct {
	products   repository.ProductRepository
	fabrics    repository.FabricRepository
	embeddings repository.EmbeddingRepository
	qrs        repository.QRCodeRepository
	recorder   *Recorder
	locks      *ledger.KeyedMutex
	embedder   Embedder
	threshold  float64
	now        Clock
}

func NewProductService(
	products repository.ProductRepository,
	fabrics repository.FabricRepository,
	embeddings repository.EmbeddingRepository,
	qrs repository.QRCodeRepository,
	txs repository.TransactionRepository,
	locks *ledger.KeyedMutex,
	embedder Embedder,
	threshold float64,
) ProductService {
	return &productService{
		products:   products,
		fabrics:    fabrics,
		embeddings: embeddings,
		qrs:        qrs,
		recorder:   NewRecorder(txs),
		locks:      locks,
		embedder:   embedder,
		threshold:  threshold,
		now:        time.Now,
	}
}

func (s *productService) Create(ctx context.Context, actor string, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := s.products.FindByID(ctx, req.ProductID); err == nil {
		return nil, ErrProductExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if req.CostPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", ledger.ErrInvalidQuantity)
	}
	if err := checkPlaces(map[string]*decimal.Decimal{"costPrice": &req.CostPrice, "sellingPrice": &req.SellingPrice}); err != nil {
		return nil, err
	}

	p := &model.Product{
		ProductID:     req.ProductID,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Color:         req.Color,
		CostPrice:     req.CostPrice,
		SellingPrice:  req.SellingPrice,
		Stock:         req.Stock,
		LowStockAlert: 5,
		ReorderPoint:  10,
		Unit:          "pcs",
		IsActive:      true,
	}
	if req.LowStockAlert != nil {
		p.LowStockAlert = *req.LowStockAlert
	}
	if req.ReorderPoint != nil {
		p.ReorderPoint = *req.ReorderPoint
	}
	if req.Unit != "" {
		p.Unit = req.Unit
	}

	seen := make(map[string]bool, len(req.SizeStock))
	sizeTotal := 0
	for i, sz := range req.SizeStock {
		if seen[sz.Size] {
			return nil, fmt.Errorf("%w: duplicate size %q", ledger.ErrInvalidOperation, sz.Size)
		}
		seen[sz.Size] = true
		sizeTotal += sz.Stock
		p.SizeStock = append(p.SizeStock, model.SizeStock{ProductID: p.ProductID, Size: sz.Size, Stock: sz.Stock, Position: i})
	}
	if p.Stock < sizeTotal {
		p.Stock = sizeTotal
	}

	for i, line := range req.FabricUsed {
		if !line.MetersUsed.IsPositive() {
			return nil, fmt.Errorf("%w: metersUsed for fabric %s must be positive", ledger.ErrInvalidQuantity, line.FabricID)
		}
		if err := ledger.CheckPlaces("metersUsed", line.MetersUsed); err != nil {
			return nil, fmt.Errorf("fabric %s: %w", line.FabricID, err)
		}
		f, err := s.fabrics.FindByID(ctx, line.FabricID)
		if err != nil {
			return nil, fmt.Errorf("fabric %s: %w", line.FabricID, fabricLookupErr(err))
		}
		if !f.IsActive {
			return nil, fmt.Errorf("fabric %s: %w", line.FabricID, ErrFabricNotFound)
		}
		p.FabricUsed = append(p.FabricUsed, model.ProductFabric{
			ProductID:    p.ProductID,
			FabricID:     f.FabricID,
			FabricName:   f.Name,
			MetersUsed:   line.MetersUsed,
			CostPerMeter: f.CostPerMeter,
			Position:     i,
		})
	}
	p.Status = ledger.ProductStatus(p)

	unlock := s.locks.Lock(ledger.ProductKey(p.ProductID))
	defer unlock()

	now := s.now()
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if err := s.products.CreateTx(tx, p); err != nil {
			return err
		}
		if p.Stock == 0 {
			return nil
		}
		_, err := s.recorder.RecordInventory(tx, InventoryEntry{
			ProductID: p.ProductID,
			Change: &ledger.StockChange{
				Operation:      ledger.OpAdd,
				Quantity:       p.Stock,
				PreviousStock:  0,
				NewStock:       p.Stock,
				PreviousStatus: model.StatusOutOfStock,
				NewStatus:      p.Status,
			},
			Reason:      "initial_stock",
			CostPerUnit: p.CostPrice,
			Actor:       actor,
			At:          now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("product_id", p.ProductID).Int("stock", p.Stock).Str("actor", actor).Msg("product created")
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, productID string) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, productLookupErr(err)
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 20
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, len(products))
	for i := range products {
		data[i] = toProductResponse(&products[i])
	}
	return &dto.ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productService) Deactivate(ctx context.Context, productID string) error {
	unlock := s.locks.Lock(ledger.ProductKey(productID))
	defer unlock()
	return productLookupErr(s.products.SoftDelete(ctx, productID))
}

// SetDiscontinued flips the discontinued flag. Clearing it re-derives the
// status from the current stock.
func (s *productService) SetDiscontinued(ctx context.Context, productID string, discontinued bool) (*dto.ProductResponse, error) {
	unlock := s.locks.Lock(ledger.ProductKey(productID))
	defer unlock()

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, productLookupErr(err)
	}
	p.Discontinued = discontinued
	p.Status = ledger.ProductStatus(p)
	if err := s.products.SetDiscontinued(ctx, productID, discontinued, p.Status); err != nil {
		return nil, productLookupErr(err)
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) IndexImage(ctx context.Context, productID, imagePath, filename string, image []byte) (*dto.EmbeddingResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, productLookupErr(err)
	}
	if !p.IsActive {
		return nil, ErrProductNotFound
	}

	vector, err := s.embedder.EmbedImage(ctx, filename, image)
	if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("image embedding failed")
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	e := &model.ProductEmbedding{
		ID:        uuid.New(),
		ProductID: productID,
		ImagePath: imagePath,
		Vector:    vector,
		Model:     embeddingModel,
		CreatedAt: s.now(),
	}
	if err := s.embeddings.Create(ctx, e); err != nil {
		return nil, err
	}
	return &dto.EmbeddingResponse{
		ID:         e.ID.String(),
		ProductID:  productID,
		ImagePath:  imagePath,
		Dimensions: len(vector),
		Model:      e.Model,
	}, nil
}

func (s *productService) SearchByImage(ctx context.Context, filename string, image []byte) (*dto.ImageSearchResponse, error) {
	query, err := s.embedder.EmbedImage(ctx, filename, image)
	if err != nil {
		log.Warn().Err(err).Msg("image embedding failed (search)")
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	embeddings, err := s.embeddings.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return &dto.ImageSearchResponse{
			Found:   false,
			Matches: []dto.ImageMatch{},
			Message: "No products with embeddings found. Add new products or index their images.",
		}, nil
	}

	products := make(map[string]*model.Product)
	for _, e := range embeddings {
		if _, ok := products[e.ProductID]; ok {
			continue
		}
		p, err := s.products.FindByID(ctx, e.ProductID)
		if err != nil {
			p = nil
		}
		products[e.ProductID] = p
	}

	return selectMatches(rankMatches(query, embeddings, products), s.threshold), nil
}

func (s *productService) Update(ctx context.Context, productID string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := checkPlaces(map[string]*decimal.Decimal{"costPrice": req.CostPrice, "sellingPrice": req.SellingPrice}); err != nil {
		return nil, err
	}
	for _, price := range []*decimal.Decimal{req.CostPrice, req.SellingPrice} {
		if price != nil && price.IsNegative() {
			return nil, fmt.Errorf("%w: prices must not be negative", ledger.ErrInvalidQuantity)
		}
	}

	unlock := s.locks.Lock(ledger.ProductKey(productID))
	defer unlock()

	var product *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, productID)
		if err != nil {
			return productLookupErr(err)
		}
		if !p.IsActive {
			return ErrProductNotFound
		}
		applyProductUpdate(p, req)
		p.Status = ledger.ProductStatus(p)
		if err := s.products.SaveDetailsTx(tx, p); err != nil {
			return productLookupErr(err)
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("product_id", productID).Str("status", string(product.Status)).Msg("product updated")
	return s.Get(ctx, productID)
}

func applyProductUpdate(p *model.Product, req dto.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Color != nil {
		p.Color = *req.Color
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.SellingPrice != nil {
		p.SellingPrice = *req.SellingPrice
	}
	if req.LowStockAlert != nil {
		p.LowStockAlert = *req.LowStockAlert
	}
	if req.ReorderPoint != nil {
		p.ReorderPoint = *req.ReorderPoint
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
}

func (s *productService) HardDelete(ctx context.Context, productID string) (*dto.HardDeleteResponse, error) {
	unlock := s.locks.Lock(ledger.ProductKey(productID))
	defer unlock()

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, productLookupErr(err)
	}
	images, err := s.embeddings.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := &dto.HardDeleteResponse{ProductID: productID, EmbeddingsDeleted: len(images)}
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		n, err := s.qrs.DeleteByProductTx(tx, productID)
		if err != nil {
			return fmt.Errorf("delete qr code: %w", err)
		}
		resp.QRCodesDeleted = n
		if err := s.embeddings.DeleteByProductTx(tx, productID); err != nil {
			return fmt.Errorf("delete embeddings: %w", err)
		}
		return productLookupErr(s.products.HardDeleteTx(tx, productID))
	})
	if err != nil {
		return nil, err
	}

	// Image files are removed once the rows are committed.
	seen := make(map[string]bool, len(images))
	for _, e := range images {
		if e.ImagePath == "" || seen[e.ImagePath] {
			continue
		}
		seen[e.ImagePath] = true
		if err := os.Remove(e.ImagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", e.ImagePath).Msg("product image not removed")
			continue
		}
		resp.FilesRemoved++
	}

	log.Info().
		Str("product_id", productID).
		Int64("qr_codes", resp.QRCodesDeleted).
		Int("embeddings", resp.EmbeddingsDeleted).
		Int("files", resp.FilesRemoved).
		Msg("product hard deleted")
	return resp, nil
}
