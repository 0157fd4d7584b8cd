package ledger

import (
	"testing"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meters(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func fabric(id string, stock float64) *model.Fabric {
	return &model.Fabric{FabricID: id, Name: "Fabric " + id, CurrentStock: meters(stock), CostPerMeter: meters(120)}
}

func TestPlanConsumptionShortage(t *testing.T) {
	bom := []model.ProductFabric{{FabricID: "F1", MetersUsed: meters(2)}}
	fabrics := map[string]*model.Fabric{"F1": fabric("F1", 5)}

	_, err := PlanConsumption(bom, fabrics, 3)

	var shortErr *ShortageError
	require.ErrorAs(t, err, &shortErr)
	require.Len(t, shortErr.Shortages, 1)
	assert.Equal(t, "F1", shortErr.Shortages[0].FabricID)
	assert.True(t, meters(6).Equal(shortErr.Shortages[0].Required))
	assert.True(t, meters(5).Equal(shortErr.Shortages[0].Available))
	assert.True(t, meters(5).Equal(fabrics["F1"].CurrentStock))
}

func TestPlanConsumptionReportsEveryShortage(t *testing.T) {
	bom := []model.ProductFabric{
		{FabricID: "F1", MetersUsed: meters(2)},
		{FabricID: "F2", MetersUsed: meters(1)},
		{FabricID: "F3", MetersUsed: meters(0.5)},
	}
	fabrics := map[string]*model.Fabric{
		"F1": fabric("F1", 1),
		"F3": fabric("F3", 100),
	}

	_, err := PlanConsumption(bom, fabrics, 4)

	var shortErr *ShortageError
	require.ErrorAs(t, err, &shortErr)
	require.Len(t, shortErr.Shortages, 2)
	assert.Equal(t, "F1", shortErr.Shortages[0].FabricID)
	assert.False(t, shortErr.Shortages[0].Missing)
	assert.Equal(t, "F2", shortErr.Shortages[1].FabricID)
	assert.True(t, shortErr.Shortages[1].Missing)
	assert.ErrorIs(t, err, ErrInsufficientFabric)
	assert.Contains(t, err.Error(), "fabric F2 not found")
}

func TestPlanConsumptionDraws(t *testing.T) {
	bom := []model.ProductFabric{{FabricID: "F1", MetersUsed: meters(2)}}
	fabrics := map[string]*model.Fabric{"F1": fabric("F1", 10)}

	draws, err := PlanConsumption(bom, fabrics, 3)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.True(t, meters(6).Equal(draws[0].Required))
	assert.True(t, meters(10).Equal(draws[0].PreviousStock))
	assert.True(t, meters(4).Equal(draws[0].NewStock))
	assert.True(t, meters(720).Equal(draws[0].TotalValue()))
	assert.True(t, meters(10).Equal(fabrics["F1"].CurrentStock), "plan must not mutate fabrics")
}

func TestPlanConsumptionSumsDuplicateLines(t *testing.T) {
	bom := []model.ProductFabric{
		{FabricID: "F1", MetersUsed: meters(2)},
		{FabricID: "F1", MetersUsed: meters(1.5)},
	}
	fabrics := map[string]*model.Fabric{"F1": fabric("F1", 6)}

	_, err := PlanConsumption(bom, fabrics, 2)
	var shortErr *ShortageError
	require.ErrorAs(t, err, &shortErr)
	assert.True(t, meters(7).Equal(shortErr.Shortages[0].Required))

	fabrics["F1"].CurrentStock = meters(7)
	draws, err := PlanConsumption(bom, fabrics, 2)
	require.NoError(t, err)
	require.Len(t, draws, 2)
	assert.True(t, meters(3).Equal(draws[0].NewStock))
	assert.True(t, meters(3).Equal(draws[1].PreviousStock))
	assert.True(t, draws[1].NewStock.IsZero())
}

func TestFabricIDs(t *testing.T) {
	bom := []model.ProductFabric{{FabricID: "B"}, {FabricID: "A"}, {FabricID: "B"}}
	assert.Equal(t, []string{"B", "A"}, FabricIDs(bom))
}

func TestCheckPlaces(t *testing.T) {
	for _, ok := range []string{"0", "12.5", "0.01", "1000.10"} {
		assert.NoError(t, CheckPlaces("quantity", decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0.004", "1.234", "-0.001"} {
		assert.ErrorIs(t, CheckPlaces("quantity", decimal.RequireFromString(bad)), ErrInvalidQuantity, bad)
	}
}
