package inventory

import "time"

// MovementType enumerates stock movement kinds. Inbound types add value,
// outbound types remove it.
type MovementType string

const (
	MovementPurchaseIn     MovementType = "purchase_in"
	MovementManufactureIn  MovementType = "manufacture_in"
	MovementAdjustmentIn   MovementType = "adjustment_in"
	MovementManufactureOut MovementType = "manufacture_out"
	MovementAdjustmentOut  MovementType = "adjustment_out"
	MovementSales          MovementType = "sales"
)

// InboundTypes are movements that increase stock value.
func InboundTypes() []MovementType {
	return []MovementType{MovementPurchaseIn, MovementManufactureIn, MovementAdjustmentIn}
}

// OutboundTypes are movements that decrease stock value.
func OutboundTypes() []MovementType {
	return []MovementType{MovementManufactureOut, MovementAdjustmentOut, MovementSales}
}

// StockMovement is one valued stock transaction line.
type StockMovement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Type      MovementType `json:"type"`
	Date      time.Time    `json:"date"`
	Quantity  float64      `json:"quantity"`
	Value     float64      `json:"value"`
	BranchID  *int64       `json:"branch_id,omitempty"`
}
