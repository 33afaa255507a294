package costing

import (
	"errors"
	"time"
)

var (
	ErrStandardCostNotFound = errors.New("costing: standard cost not found")
	ErrEntryNotFound        = errors.New("costing: production cost entry not found")
	ErrInvalidEntry         = errors.New("costing: invalid production cost entry")
)

// CostCategory names one of the three production cost components.
type CostCategory string

const (
	CategoryMaterial CostCategory = "material"
	CategoryLabor    CostCategory = "labor"
	CategoryOverhead CostCategory = "overhead"
)

// StandardCost holds per-unit standard rates for a product, effective
// from a date. Later rows supersede earlier ones.
type StandardCost struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	MaterialUnitCost float64   `json:"material_unit_cost"`
	LaborUnitCost    float64   `json:"labor_unit_cost"`
	OverheadUnitCost float64   `json:"overhead_unit_cost"`
	EffectiveFrom    time.Time `json:"effective_from"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProductionCostEntry records the actual cost of one production run.
type ProductionCostEntry struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	ProductionDate time.Time `json:"production_date"`
	Quantity       float64   `json:"quantity"`
	MaterialCost   float64   `json:"material_cost"`
	LaborCost      float64   `json:"labor_cost"`
	OverheadCost   float64   `json:"overhead_cost"`
	BranchID       *int64    `json:"branch_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks an entry before variances are derived from it.
func (e ProductionCostEntry) Validate() error {
	if e.ProductID == 0 {
		return ErrInvalidEntry
	}
	if e.Quantity <= 0 {
		return ErrInvalidEntry
	}
	if e.MaterialCost < 0 || e.LaborCost < 0 || e.OverheadCost < 0 {
		return ErrInvalidEntry
	}
	if e.ProductionDate.IsZero() {
		return ErrInvalidEntry
	}
	return nil
}

// CostVariance is a stored standard-vs-actual comparison, computed once
// when the production entry is recorded. A negative amount is
// unfavorable: actual exceeded standard.
type CostVariance struct {
	ID                 int64        `json:"id"`
	EntryID            int64        `json:"entry_id"`
	ProductID          int64        `json:"product_id"`
	Category           CostCategory `json:"category"`
	StandardCost       float64      `json:"standard_cost"`
	ActualCost         float64      `json:"actual_cost"`
	VarianceAmount     float64      `json:"variance_amount"`
	VariancePercentage float64      `json:"variance_percentage"`
	Period             time.Time    `json:"period"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Unfavorable reports whether actual cost exceeded standard.
func (v CostVariance) Unfavorable() bool {
	return v.VarianceAmount < 0
}
