package costing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeVariances(t *testing.T) {
	std := StandardCost{
		ProductID:        7,
		MaterialUnitCost: 100,
		LaborUnitCost:    50,
		OverheadUnitCost: 25,
	}
	entry := ProductionCostEntry{
		ID:             3,
		ProductID:      7,
		ProductionDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Quantity:       10,
		MaterialCost:   1200, // 200 over standard
		LaborCost:      450,  // 50 under standard
		OverheadCost:   250,  // on standard
	}

	rows := ComputeVariances(std, entry)
	require.Len(t, rows, 3)

	material := rows[0]
	require.Equal(t, CategoryMaterial, material.Category)
	require.Equal(t, 1000.0, material.StandardCost)
	require.Equal(t, -200.0, material.VarianceAmount)
	require.Equal(t, -20.0, material.VariancePercentage)
	require.True(t, material.Unfavorable())

	labor := rows[1]
	require.Equal(t, 50.0, labor.VarianceAmount)
	require.Equal(t, 10.0, labor.VariancePercentage)
	require.False(t, labor.Unfavorable())

	overhead := rows[2]
	require.Zero(t, overhead.VarianceAmount)
	require.Zero(t, overhead.VariancePercentage)
}

func TestComputeVariancesZeroStandard(t *testing.T) {
	std := StandardCost{ProductID: 7}
	entry := ProductionCostEntry{ID: 1, ProductID: 7, Quantity: 5, MaterialCost: 100, ProductionDate: time.Now()}

	rows := ComputeVariances(std, entry)
	require.Equal(t, -100.0, rows[0].VarianceAmount)
	require.Zero(t, rows[0].VariancePercentage, "percentage guards division by zero standard")
}

func TestEntryValidate(t *testing.T) {
	base := ProductionCostEntry{ProductID: 1, Quantity: 2, ProductionDate: time.Now()}
	require.NoError(t, base.Validate())

	bad := base
	bad.Quantity = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidEntry)

	bad = base
	bad.MaterialCost = -1
	require.ErrorIs(t, bad.Validate(), ErrInvalidEntry)

	bad = base
	bad.ProductID = 0
	require.ErrorIs(t, bad.Validate(), ErrInvalidEntry)
}
