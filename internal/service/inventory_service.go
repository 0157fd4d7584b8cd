package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OverviewCacheKey = "inventory:overview"

	reasonProduction       = "production"
	reasonManualAdjustment = "manual_adjustment"
)

// InventoryService is the product side of the ledger: stock updates,
// production runs and the read views built on top of them.
type InventoryService interface {
	Overview(ctx context.Context) (*dto.StockOverviewResponse, error)
	LowStockAlerts(ctx context.Context) (*dto.LowStockAlertsResponse, error)
	ListProducts(ctx context.Context) ([]dto.InventoryProductResponse, error)
	// UpdateStock applies one stock operation. With reason "production" the
	// bill-of-materials fabric is drawn in the same transaction.
	UpdateStock(ctx context.Context, actor, productID string, req dto.UpdateStockRequest) (*dto.UpdateStockResponse, error)
	Produce(ctx context.Context, actor, productID string, req dto.ProduceRequest) (*dto.UpdateStockResponse, error)
	ListTransactions(ctx context.Context, filter dto.InventoryTransactionFilter) (*dto.InventoryTransactionListResponse, error)
}

type inventoryService struct {
	products repository.ProductRepository
	fabrics  repository.FabricRepository
	txs      repository.TransactionRepository
	recorder *Recorder
	consumer *FabricConsumer
	locks    *ledger.KeyedMutex
	rdb      *redis.Client
	cacheTTL time.Duration
	alerts   AlertPublisher
	now      Clock
}

func NewInventoryService(
	products repository.ProductRepository,
	fabrics repository.FabricRepository,
	txs repository.TransactionRepository,
	locks *ledger.KeyedMutex,
	rdb *redis.Client,
	cacheTTL time.Duration,
	alerts AlertPublisher,
) InventoryService {
	recorder := NewRecorder(txs)
	return &inventoryService{
		products: products,
		fabrics:  fabrics,
		txs:      txs,
		recorder: recorder,
		consumer: NewFabricConsumer(fabrics, recorder),
		locks:    locks,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		alerts:   alerts,
		now:      time.Now,
	}
}

func productLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	return err
}

// ── UpdateStock ───────────────────────────────────────────────────────────────
//   1. Validate operation, reason and quantity
//   2. Lock product (and BOM fabrics for production) in sorted key order
//   3. BEGIN TX: re-read rows FOR UPDATE
//   4. production → consume fabric (all-or-nothing, usage records)
//   5. Apply the stock op, persist, record the InventoryTransaction
//   6. COMMIT, then invalidate the overview cache and queue alerts

func (s *inventoryService) UpdateStock(ctx context.Context, actor, productID string, req dto.UpdateStockRequest) (*dto.UpdateStockResponse, error) {
	op, err := ledger.ParseOperation(req.Operation)
	if err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = reasonManualAdjustment
	}
	production := reason == reasonProduction
	if production && op != ledger.OpAdd {
		return nil, ledger.ErrProductionRequiresAdd
	}
	if req.Quantity < 0 || (req.Quantity == 0 && op != ledger.OpSet) {
		return nil, ledger.ErrInvalidQuantity
	}
	if req.CostPerUnit != nil {
		if err := ledger.CheckPlaces("costPerUnit", *req.CostPerUnit); err != nil {
			return nil, err
		}
	}

	current, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, productLookupErr(err)
	}
	if !current.IsActive {
		return nil, ErrProductNotFound
	}

	keys := []string{ledger.ProductKey(productID)}
	if production {
		for _, id := range ledger.FabricIDs(current.FabricUsed) {
			keys = append(keys, ledger.FabricKey(id))
		}
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	now := s.now()
	var (
		product *model.Product
		change  *ledger.StockChange
		outcome *ProductionOutcome
	)
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, productID)
		if err != nil {
			return productLookupErr(err)
		}
		// The pre-lock read can race a deactivation.
		if !p.IsActive {
			return ErrProductNotFound
		}

		if production {
			outcome, err = s.consumer.Consume(tx, p, req.Quantity, actor, now)
			if err != nil {
				return err
			}
		}

		change, err = ledger.ApplyStockOp(p, op, req.Quantity, req.Size, now)
		if err != nil {
			return err
		}
		if err := s.products.SaveStockTx(tx, p); err != nil {
			return fmt.Errorf("save stock: %w", err)
		}

		if op.Recorded() {
			cost := p.CostPrice
			if req.CostPerUnit != nil {
				cost = *req.CostPerUnit
			}
			if _, err := s.recorder.RecordInventory(tx, InventoryEntry{
				ProductID:   p.ProductID,
				Change:      change,
				Reason:      reason,
				Reference:   req.Reference,
				Notes:       req.Notes,
				CostPerUnit: cost,
				Actor:       actor,
				At:          now,
			}); err != nil {
				return err
			}
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", productID).
		Str("operation", string(op)).
		Str("reason", reason).
		Int("previous_stock", change.PreviousStock).
		Int("new_stock", change.NewStock).
		Str("actor", actor).
		Msg("stock updated")

	s.afterMutation(ctx, product, change, outcome)

	resp := &dto.UpdateStockResponse{
		Product:  toProductResponse(product),
		NewStock: product.Stock,
		Message:  fmt.Sprintf("Stock %s applied successfully", op),
	}
	if outcome != nil {
		resp.Message = fmt.Sprintf("Produced %d units, fabric drawn from %d lines", req.Quantity, len(outcome.Draws))
		for i := range outcome.Transactions {
			resp.FabricTransactions = append(resp.FabricTransactions, toFabricTransactionResponse(&outcome.Transactions[i]))
		}
	}
	return resp, nil
}

func (s *inventoryService) Produce(ctx context.Context, actor, productID string, req dto.ProduceRequest) (*dto.UpdateStockResponse, error) {
	return s.UpdateStock(ctx, actor, productID, dto.UpdateStockRequest{
		Operation: string(ledger.OpAdd),
		Quantity:  req.Quantity,
		Reason:    reasonProduction,
		Notes:     req.Notes,
		Size:      req.Size,
	})
}

// afterMutation runs the post-commit side effects. Failures are logged only:
// the ledger write has already committed.
func (s *inventoryService) afterMutation(ctx context.Context, p *model.Product, change *ledger.StockChange, outcome *ProductionOutcome) {
	s.invalidateOverview(ctx)

	if change != nil && change.StatusEnteredAlert() {
		s.publish(ctx, productAlert(p))
	}
	if outcome != nil {
		for i := range outcome.Alerts {
			s.publish(ctx, fabricAlert(&outcome.Alerts[i]))
		}
	}
}

func (s *inventoryService) invalidateOverview(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, OverviewCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("overview cache invalidation failed")
	}
}

func (s *inventoryService) publish(ctx context.Context, alert worker.StockAlert) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.EnqueueStockAlert(ctx, alert); err != nil {
		log.Warn().Err(err).Str("kind", alert.Kind).Str("id", alert.ID).Msg("stock alert enqueue failed")
	}
}

func productAlert(p *model.Product) worker.StockAlert {
	return worker.StockAlert{
		Kind:      "product",
		ID:        p.ProductID,
		Name:      p.Name,
		Status:    string(p.Status),
		Stock:     fmt.Sprintf("%d", p.Stock),
		Threshold: fmt.Sprintf("%d", p.LowStockAlert),
		Unit:      p.Unit,
	}
}

func fabricAlert(f *model.Fabric) worker.StockAlert {
	return worker.StockAlert{
		Kind:      "fabric",
		ID:        f.FabricID,
		Name:      f.Name,
		Status:    string(f.Status),
		Stock:     f.CurrentStock.String(),
		Threshold: f.LowStockAlert.String(),
		Unit:      f.Unit,
	}
}

// ── Read views ────────────────────────────────────────────────────────────────

func (s *inventoryService) Overview(ctx context.Context) (*dto.StockOverviewResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, OverviewCacheKey).Bytes(); err == nil {
			var resp dto.StockOverviewResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.StockOverviewResponse{
		TotalProducts:   len(products),
		TotalStockValue: decimal.Zero,
		StockStatus:     make([]dto.StockStatusItem, 0, len(products)),
	}
	for i := range products {
		p := &products[i]
		resp.TotalItems += p.Stock
		resp.TotalStockValue = resp.TotalStockValue.Add(p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock))))
		switch p.Status {
		case model.StatusInStock:
			resp.InStock++
		case model.StatusLowStock:
			resp.LowStock++
		case model.StatusOutOfStock:
			resp.OutOfStock++
		}
		resp.StockStatus = append(resp.StockStatus, dto.StockStatusItem{
			ProductID:      p.ProductID,
			Name:           p.Name,
			Stock:          p.Stock,
			Status:         string(p.Status),
			AvailableStock: p.AvailableStock(),
		})
	}

	if s.rdb != nil && s.cacheTTL > 0 {
		// A mutation committing between ListActive and this Set leaves a stale
		// entry for at most cacheTTL.
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			if err := s.rdb.Set(ctx, OverviewCacheKey, b, s.cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("overview cache write failed")
			}
		}
	}
	return resp, nil
}

func (s *inventoryService) LowStockAlerts(ctx context.Context) (*dto.LowStockAlertsResponse, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	fabrics, err := s.fabrics.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.LowStockAlertsResponse{
		Critical:       []dto.ProductResponse{},
		Warnings:       []dto.ProductResponse{},
		FabricCritical: []dto.FabricResponse{},
		FabricWarnings: []dto.FabricResponse{},
	}
	for i := range products {
		switch products[i].Status {
		case model.StatusOutOfStock:
			resp.Critical = append(resp.Critical, toProductResponse(&products[i]))
		case model.StatusLowStock:
			resp.Warnings = append(resp.Warnings, toProductResponse(&products[i]))
		}
	}
	for i := range fabrics {
		switch fabrics[i].Status {
		case model.StatusOutOfStock:
			resp.FabricCritical = append(resp.FabricCritical, toFabricResponse(&fabrics[i]))
		case model.StatusLowStock:
			resp.FabricWarnings = append(resp.FabricWarnings, toFabricResponse(&fabrics[i]))
		}
	}
	resp.TotalAlerts = len(resp.Critical) + len(resp.Warnings) + len(resp.FabricCritical) + len(resp.FabricWarnings)
	return resp, nil
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]dto.InventoryProductResponse, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryProductResponse, len(products))
	for i, p := range products {
		out[i] = dto.InventoryProductResponse{
			ProductID:     p.ProductID,
			Name:          p.Name,
			Category:      p.Category,
			Stock:         p.Stock,
			CostPrice:     p.CostPrice,
			SellingPrice:  p.SellingPrice,
			LowStockAlert: p.LowStockAlert,
			ReservedStock: p.ReservedStock,
			Status:        string(p.Status),
		}
	}
	return out, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter dto.InventoryTransactionFilter) (*dto.InventoryTransactionListResponse, error) {
	filter.Page, filter.Limit = clampPage(filter.Page, filter.Limit)
	txs, total, err := s.txs.ListInventory(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InventoryTransactionResponse, len(txs))
	for i := range txs {
		data[i] = toInventoryTransactionResponse(&txs[i])
	}
	return &dto.InventoryTransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
