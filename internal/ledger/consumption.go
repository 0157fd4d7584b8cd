package ledger

import (
	"fmt"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/shopspring/decimal"
)

// MeterPlaces is the scale of every stored meter and money column.
const MeterPlaces = 2

// CheckPlaces rejects a value the decimal(12,2) columns would silently round.
func CheckPlaces(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(MeterPlaces)) {
		return fmt.Errorf("%w: %s %s has more than %d decimal places", ErrInvalidQuantity, field, v, MeterPlaces)
	}
	return nil
}

// FabricDraw is one committed bill-of-materials line of a production run.
type FabricDraw struct {
	Fabric        *model.Fabric
	Line          model.ProductFabric
	Required      decimal.Decimal
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
}

// TotalValue is the cost of the meters drawn at the fabric's cost per meter.
func (d FabricDraw) TotalValue() decimal.Decimal {
	return d.Fabric.CostPerMeter.Mul(d.Required)
}

// PlanConsumption is the validation pass of a production run. It reads fabrics
// and never mutates them. Lines sharing a fabric are checked against their
// summed requirement. If any fabric is missing or short the whole plan fails
// with a *ShortageError listing every shortage; otherwise it returns one draw
// per line, with stock snapshots chained in line order.
func PlanConsumption(bom []model.ProductFabric, fabrics map[string]*model.Fabric, quantity int) ([]FabricDraw, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	units := decimal.NewFromInt(int64(quantity))

	totals := make(map[string]decimal.Decimal, len(bom))
	order := make([]string, 0, len(bom))
	for _, line := range bom {
		if line.MetersUsed.IsNegative() {
			return nil, fmt.Errorf("fabric %s: negative meters per unit", line.FabricID)
		}
		if _, seen := totals[line.FabricID]; !seen {
			order = append(order, line.FabricID)
		}
		totals[line.FabricID] = totals[line.FabricID].Add(line.MetersUsed.Mul(units))
	}

	var shortages []Shortage
	for _, id := range order {
		f, ok := fabrics[id]
		if !ok || f == nil {
			shortages = append(shortages, Shortage{FabricID: id, Required: totals[id], Available: decimal.Zero, Missing: true})
			continue
		}
		if f.CurrentStock.LessThan(totals[id]) {
			shortages = append(shortages, Shortage{
				FabricID:   id,
				FabricName: f.Name,
				Required:   totals[id],
				Available:  f.CurrentStock,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &ShortageError{Shortages: shortages}
	}

	remaining := make(map[string]decimal.Decimal, len(order))
	for _, id := range order {
		remaining[id] = fabrics[id].CurrentStock
	}
	draws := make([]FabricDraw, 0, len(bom))
	for _, line := range bom {
		required := line.MetersUsed.Mul(units)
		prev := remaining[line.FabricID]
		next := prev.Sub(required)
		remaining[line.FabricID] = next
		draws = append(draws, FabricDraw{
			Fabric:        fabrics[line.FabricID],
			Line:          line,
			Required:      required,
			PreviousStock: prev,
			NewStock:      next,
		})
	}
	return draws, nil
}

// FabricIDs returns the distinct fabric ids of a bill of materials in line order.
func FabricIDs(bom []model.ProductFabric) []string {
	seen := make(map[string]struct{}, len(bom))
	ids := make([]string, 0, len(bom))
	for _, line := range bom {
		if _, ok := seen[line.FabricID]; ok {
			continue
		}
		seen[line.FabricID] = struct{}{}
		ids = append(ids, line.FabricID)
	}
	return ids
}
