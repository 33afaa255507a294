package procurement

import (
	"errors"
	"time"
)

var ErrInvoiceNotFound = errors.New("procurement: invoice not found")

// Invoice is the read model of a purchase invoice as the ledger sees it:
// amounts, tax treatment and the purchase-order link that decides which
// asset account absorbs the cost.
type Invoice struct {
	ID              int64     `json:"id"`
	Number          string    `json:"number"`
	SupplierID      int64     `json:"supplier_id"`
	Date            time.Time `json:"date"`
	Subtotal        float64   `json:"subtotal"`
	DiscountPercent float64   `json:"discount_percent"`
	TaxRate         float64   `json:"tax_rate"`
	TaxTreatment    string    `json:"tax_treatment"`
	OtherFees       float64   `json:"other_fees"`
	Total           float64   `json:"total"`
	PurchaseOrderID int64     `json:"purchase_order_id,omitempty"`
	BranchID        *int64    `json:"branch_id,omitempty"`
}
