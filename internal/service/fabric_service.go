package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	defaultFabricLowStock     = decimal.NewFromInt(10)
	defaultFabricReorderPoint = decimal.NewFromInt(20)
)

type FabricService interface {
	Create(ctx context.Context, actor string, req dto.CreateFabricRequest) (*dto.FabricResponse, error)
	Get(ctx context.Context, fabricID string) (*dto.FabricResponse, error)
	List(ctx context.Context) ([]dto.FabricResponse, error)
	// AdjustStock is the restock path: purchase and return add meters,
	// wastage removes them and adjustment sets an absolute level.
	AdjustStock(ctx context.Context, actor, fabricID string, req dto.AdjustFabricStockRequest) (*dto.FabricResponse, error)
	SetDiscontinued(ctx context.Context, fabricID string, discontinued bool) (*dto.FabricResponse, error)
	// Deactivate hides the fabric and blocks further movements. Its ledger
	// history stays readable.
	Deactivate(ctx context.Context, fabricID string) error
	ListTransactions(ctx context.Context, fabricID string, filter dto.FabricTransactionFilter) (*dto.FabricTransactionListResponse, error)
	ListUsage(ctx context.Context, fabricID string) ([]dto.FabricUsageResponse, error)
	// RebuildUsage regenerates usedInProducts from the usage transactions.
	RebuildUsage(ctx context.Context, fabricID string) (*dto.RebuildUsageResponse, error)
	RebuildAllUsage(ctx context.Context) (int, error)
}

type fabricService struct {
	fabrics  repository.FabricRepository
	products repository.ProductRepository
	txs      repository.TransactionRepository
	recorder *Recorder
	locks    *ledger.KeyedMutex
	alerts   AlertPublisher
	now      Clock
}

func NewFabricService(
	fabrics repository.FabricRepository,
	products repository.ProductRepository,
	txs repository.TransactionRepository,
	locks *ledger.KeyedMutex,
	alerts AlertPublisher,
) FabricService {
	return &fabricService{
		fabrics:  fabrics,
		products: products,
		txs:      txs,
		recorder: NewRecorder(txs),
		locks:    locks,
		alerts:   alerts,
		now:      time.Now,
	}
}

func fabricLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFabricNotFound
	}
	return err
}

func (s *fabricService) Create(ctx context.Context, actor string, req dto.CreateFabricRequest) (*dto.FabricResponse, error) {
	if req.CurrentStock.IsNegative() || req.CostPerMeter.IsNegative() {
		return nil, ledger.ErrInvalidQuantity
	}
	if err := checkPlaces(map[string]*decimal.Decimal{
		"currentStock":  &req.CurrentStock,
		"costPerMeter":  &req.CostPerMeter,
		"lowStockAlert": req.LowStockAlert,
		"reorderPoint":  req.ReorderPoint,
	}); err != nil {
		return nil, err
	}
	if _, err := s.fabrics.FindByID(ctx, req.FabricID); err == nil {
		return nil, ErrFabricExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	f := &model.Fabric{
		FabricID:      req.FabricID,
		Name:          req.Name,
		Type:          req.Type,
		Color:         req.Color,
		CurrentStock:  req.CurrentStock,
		Unit:          "meters",
		LowStockAlert: defaultFabricLowStock,
		ReorderPoint:  defaultFabricReorderPoint,
		CostPerMeter:  req.CostPerMeter,
		SupplierName:  req.SupplierName,
		IsActive:      true,
	}
	if req.LowStockAlert != nil {
		f.LowStockAlert = *req.LowStockAlert
	}
	if req.ReorderPoint != nil {
		f.ReorderPoint = *req.ReorderPoint
	}
	f.Status = ledger.FabricStatus(f)

	unlock := s.locks.Lock(ledger.FabricKey(f.FabricID))
	defer unlock()

	now := s.now()
	err := runTx(ctx, s.fabrics.DB(), func(tx *gorm.DB) error {
		if err := s.fabrics.CreateTx(tx, f); err != nil {
			return err
		}
		if f.CurrentStock.IsPositive() {
			// Opening stock enters the ledger so the log replays to the current level.
			if _, err := s.recorder.RecordFabric(tx, FabricEntry{
				FabricID:     f.FabricID,
				Type:         "purchase",
				Before:       decimal.Zero,
				After:        f.CurrentStock,
				CostPerMeter: f.CostPerMeter,
				Reference:    "initial_stock",
				Actor:        actor,
				At:           now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toFabricResponse(f)
	return &resp, nil
}

func (s *fabricService) Get(ctx context.Context, fabricID string) (*dto.FabricResponse, error) {
	f, err := s.fabrics.FindByID(ctx, fabricID)
	if err != nil {
		return nil, fabricLookupErr(err)
	}
	if !f.IsActive {
		return nil, ErrFabricNotFound
	}
	resp := toFabricResponse(f)
	return &resp, nil
}

func (s *fabricService) List(ctx context.Context) ([]dto.FabricResponse, error) {
	fabrics, err := s.fabrics.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FabricResponse, len(fabrics))
	for i := range fabrics {
		out[i] = toFabricResponse(&fabrics[i])
	}
	return out, nil
}

// checkPlaces runs ledger.CheckPlaces over the optional decimal fields of a
// request, in field name order so the reported field is deterministic.
func checkPlaces(fields map[string]*decimal.Decimal) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := fields[name]; v != nil {
			if err := ledger.CheckPlaces(name, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

// nextFabricStock applies a restock-path movement to the current meters.
func nextFabricStock(current decimal.Decimal, movement string, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.IsNegative() || (qty.IsZero() && movement != "adjustment") {
		return decimal.Zero, ledger.ErrInvalidQuantity
	}
	switch movement {
	case "purchase", "return":
		return current.Add(qty), nil
	case "wastage":
		if current.LessThan(qty) {
			return decimal.Zero, fmt.Errorf("%w: wastage of %sm exceeds %sm on hand", ledger.ErrInsufficientFabric, qty, current)
		}
		return current.Sub(qty), nil
	case "adjustment":
		return qty, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ledger.ErrInvalidOperation, movement)
}

func (s *fabricService) AdjustStock(ctx context.Context, actor, fabricID string, req dto.AdjustFabricStockRequest) (*dto.FabricResponse, error) {
	if err := checkPlaces(map[string]*decimal.Decimal{
		"quantity":     &req.Quantity,
		"costPerMeter": req.CostPerMeter,
	}); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(ledger.FabricKey(fabricID))
	defer unlock()

	now := s.now()
	var (
		fabric     *model.Fabric
		prevStatus model.Status
	)
	err := runTx(ctx, s.fabrics.DB(), func(tx *gorm.DB) error {
		locked, err := s.fabrics.FindByIDsForUpdateTx(tx, []string{fabricID})
		if err != nil {
			return err
		}
		f, ok := locked[fabricID]
		if !ok || !f.IsActive {
			return ErrFabricNotFound
		}

		next, err := nextFabricStock(f.CurrentStock, req.Type, req.Quantity)
		if err != nil {
			return err
		}
		cost := f.CostPerMeter
		if req.CostPerMeter != nil {
			cost = *req.CostPerMeter
		}

		prev := f.CurrentStock
		prevStatus = f.Status
		f.CurrentStock = next
		f.Status = ledger.FabricStatus(f)
		if err := s.fabrics.SetStockTx(tx, f.FabricID, f.CurrentStock, f.Status); err != nil {
			return fmt.Errorf("set fabric stock: %w", err)
		}
		if _, err := s.recorder.RecordFabric(tx, FabricEntry{
			FabricID:     f.FabricID,
			Type:         req.Type,
			Before:       prev,
			After:        next,
			CostPerMeter: cost,
			Reference:    req.Reference,
			Notes:        req.Notes,
			Actor:        actor,
			At:           now,
		}); err != nil {
			return err
		}
		fabric = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("fabric_id", fabricID).
		Str("type", req.Type).
		Str("quantity", req.Quantity.String()).
		Str("new_stock", fabric.CurrentStock.String()).
		Str("actor", actor).
		Msg("fabric stock adjusted")

	if fabric.Status != prevStatus && fabric.Status.Alerting() && s.alerts != nil {
		if err := s.alerts.EnqueueStockAlert(ctx, fabricAlert(fabric)); err != nil {
			log.Warn().Err(err).Str("fabric_id", fabricID).Msg("stock alert enqueue failed")
		}
	}

	resp := toFabricResponse(fabric)
	return &resp, nil
}

// SetDiscontinued flips the discontinued flag. Clearing it re-derives the
// status from the meters on hand.
func (s *fabricService) SetDiscontinued(ctx context.Context, fabricID string, discontinued bool) (*dto.FabricResponse, error) {
	unlock := s.locks.Lock(ledger.FabricKey(fabricID))
	defer unlock()

	f, err := s.fabrics.FindByID(ctx, fabricID)
	if err != nil {
		return nil, fabricLookupErr(err)
	}
	if !f.IsActive {
		return nil, ErrFabricNotFound
	}
	f.Discontinued = discontinued
	f.Status = ledger.FabricStatus(f)
	if err := s.fabrics.SetDiscontinued(ctx, fabricID, discontinued, f.Status); err != nil {
		return nil, fabricLookupErr(err)
	}
	log.Info().Str("fabric_id", fabricID).Bool("discontinued", discontinued).Msg("fabric discontinued flag changed")
	resp := toFabricResponse(f)
	return &resp, nil
}

func (s *fabricService) Deactivate(ctx context.Context, fabricID string) error {
	unlock := s.locks.Lock(ledger.FabricKey(fabricID))
	defer unlock()
	if err := s.fabrics.SoftDelete(ctx, fabricID); err != nil {
		return fabricLookupErr(err)
	}
	log.Info().Str("fabric_id", fabricID).Msg("fabric deactivated")
	return nil
}

func (s *fabricService) ListTransactions(ctx context.Context, fabricID string, filter dto.FabricTransactionFilter) (*dto.FabricTransactionListResponse, error) {
	if _, err := s.fabrics.FindByID(ctx, fabricID); err != nil {
		return nil, fabricLookupErr(err)
	}
	filter.Page, filter.Limit = clampPage(filter.Page, filter.Limit)
	txs, total, err := s.txs.ListFabric(ctx, fabricID, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.FabricTransactionResponse, len(txs))
	for i := range txs {
		data[i] = toFabricTransactionResponse(&txs[i])
	}
	return &dto.FabricTransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *fabricService) ListUsage(ctx context.Context, fabricID string) ([]dto.FabricUsageResponse, error) {
	if _, err := s.fabrics.FindByID(ctx, fabricID); err != nil {
		return nil, fabricLookupErr(err)
	}
	usages, err := s.fabrics.ListUsage(ctx, fabricID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FabricUsageResponse, len(usages))
	for i := range usages {
		out[i] = toFabricUsageResponse(&usages[i])
	}
	return out, nil
}

func (s *fabricService) RebuildUsage(ctx context.Context, fabricID string) (*dto.RebuildUsageResponse, error) {
	if _, err := s.fabrics.FindByID(ctx, fabricID); err != nil {
		return nil, fabricLookupErr(err)
	}
	n, err := s.rebuild(ctx, fabricID, map[string]*model.Product{})
	if err != nil {
		return nil, err
	}
	return &dto.RebuildUsageResponse{FabricID: fabricID, Entries: n}, nil
}

func (s *fabricService) RebuildAllUsage(ctx context.Context) (int, error) {
	ids, err := s.fabrics.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	products := map[string]*model.Product{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := s.rebuild(ctx, id, products); err != nil {
			return 0, fmt.Errorf("rebuild usage %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// rebuild replaces the usage rows of one fabric. Product names are looked up
// through the cache map; a deleted product keeps its id with an empty name.
func (s *fabricService) rebuild(ctx context.Context, fabricID string, products map[string]*model.Product) (int, error) {
	unlock := s.locks.Lock(ledger.FabricKey(fabricID))
	defer unlock()

	entries, err := s.txs.ListFabricUsage(ctx, fabricID)
	if err != nil {
		return 0, err
	}

	usages := make([]model.FabricUsage, 0, len(entries))
	for _, e := range entries {
		p, ok := products[e.Reference]
		if !ok {
			if found, err := s.products.FindByID(ctx, e.Reference); err == nil {
				p = found
			}
			products[e.Reference] = p
		}
		u := model.FabricUsage{
			FabricID:   fabricID,
			ProductID:  e.Reference,
			MetersUsed: e.Quantity,
			UsedAt:     e.TransactionDate,
		}
		if p != nil {
			u.ProductName = p.Name
			u.ProductCategory = p.Category
		}
		usages = append(usages, u)
	}

	if err := s.fabrics.ReplaceUsage(ctx, fabricID, usages); err != nil {
		return 0, err
	}
	return len(usages), nil
}
