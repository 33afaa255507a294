package costing

import "math"

// ComputeVariances derives the three category variances for a production
// run against its standard. Variance amount is standard minus actual,
// so overruns come out negative; percentage is relative to standard,
// zero when the standard itself is zero.
func ComputeVariances(std StandardCost, entry ProductionCostEntry) []CostVariance {
	rows := []struct {
		category CostCategory
		unitStd  float64
		actual   float64
	}{
		{CategoryMaterial, std.MaterialUnitCost, entry.MaterialCost},
		{CategoryLabor, std.LaborUnitCost, entry.LaborCost},
		{CategoryOverhead, std.OverheadUnitCost, entry.OverheadCost},
	}
	out := make([]CostVariance, 0, len(rows))
	for _, row := range rows {
		standard := round2(row.unitStd * entry.Quantity)
		amount := round2(standard - row.actual)
		var pct float64
		if standard != 0 {
			pct = round2(amount / standard * 100)
		}
		out = append(out, CostVariance{
			EntryID:            entry.ID,
			ProductID:          entry.ProductID,
			Category:           row.category,
			StandardCost:       standard,
			ActualCost:         row.actual,
			VarianceAmount:     amount,
			VariancePercentage: pct,
			Period:             entry.ProductionDate,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
