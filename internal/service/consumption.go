package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"gorm.io/gorm"
)

// FabricConsumer draws bill-of-materials fabric for a production run.
// Callers hold the product and fabric locks and pass the open transaction.
type FabricConsumer struct {
	fabrics  repository.FabricRepository
	recorder *Recorder
}

func NewFabricConsumer(fabrics repository.FabricRepository, recorder *Recorder) *FabricConsumer {
	return &FabricConsumer{fabrics: fabrics, recorder: recorder}
}

// ProductionOutcome is what a successful Consume committed.
type ProductionOutcome struct {
	Draws        []ledger.FabricDraw
	Transactions []model.FabricTransaction
	// Alerts holds fabrics that moved into low_stock or out_of_stock.
	Alerts []model.Fabric
}

// Consume validates every line before drawing anything. On a shortage it
// returns a *ledger.ShortageError and no fabric has been touched.
func (c *FabricConsumer) Consume(tx *gorm.DB, p *model.Product, quantity int, actor string, at time.Time) (*ProductionOutcome, error) {
	out := &ProductionOutcome{}
	if len(p.FabricUsed) == 0 {
		return out, nil
	}

	ids := ledger.FabricIDs(p.FabricUsed)
	fabrics, err := c.fabrics.FindByIDsForUpdateTx(tx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock fabrics: %w", err)
	}
	// A deactivated fabric is reported as missing.
	for id, f := range fabrics {
		if !f.IsActive {
			delete(fabrics, id)
		}
	}

	// Pass 1: validate. Nothing is written unless every fabric is sufficient.
	draws, err := ledger.PlanConsumption(p.FabricUsed, fabrics, quantity)
	if err != nil {
		return nil, err
	}

	before := make(map[string]model.Status, len(fabrics))
	for id, f := range fabrics {
		before[id] = f.Status
	}

	// Pass 2: commit.
	notes := fmt.Sprintf("Used for product: %s (production x%d)", p.Name, quantity)
	for _, d := range draws {
		f := d.Fabric
		status := ledger.DeriveStatus(d.NewStock, f.LowStockAlert, f.Discontinued)
		if err := c.fabrics.DeductStockTx(tx, f.FabricID, d.Required, status); err != nil {
			if errors.Is(err, repository.ErrStockConflict) {
				return nil, &ledger.ShortageError{Shortages: []ledger.Shortage{{
					FabricID:   f.FabricID,
					FabricName: f.Name,
					Required:   d.Required,
					Available:  d.PreviousStock,
				}}}
			}
			return nil, fmt.Errorf("deduct fabric %s: %w", f.FabricID, err)
		}

		if err := c.fabrics.AppendUsageTx(tx, &model.FabricUsage{
			FabricID:        f.FabricID,
			ProductID:       p.ProductID,
			ProductName:     p.Name,
			ProductCategory: p.Category,
			MetersUsed:      d.Required,
			UsedAt:          at,
		}); err != nil {
			return nil, fmt.Errorf("append usage %s: %w", f.FabricID, err)
		}

		rec, err := c.recorder.RecordFabric(tx, FabricEntry{
			FabricID:     f.FabricID,
			Type:         "usage",
			Before:       d.PreviousStock,
			After:        d.NewStock,
			CostPerMeter: f.CostPerMeter,
			Reference:    p.ProductID,
			Notes:        notes,
			Actor:        actor,
			At:           at,
		})
		if err != nil {
			return nil, err
		}
		out.Transactions = append(out.Transactions, *rec)

		f.CurrentStock = d.NewStock
		f.Status = status
	}

	for _, id := range ids {
		f := fabrics[id]
		if f.Status != before[id] && f.Status.Alerting() {
			out.Alerts = append(out.Alerts, *f)
		}
	}
	out.Draws = draws
	return out, nil
}
