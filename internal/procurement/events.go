package procurement

import (
	"context"
	"time"
)

// InvoicePostedEvent signals a purchase invoice was approved and must be
// journaled. Carries document amounts verbatim; tax is split downstream.
type InvoicePostedEvent struct {
	ID              int64
	Number          string
	SupplierID      int64
	Date            time.Time
	Subtotal        float64
	TaxRate         float64
	TaxTreatment    string
	Total           float64
	PurchaseOrderID int64
	BranchID        *int64
}

// IntegrationHandler receives procurement events for ledger posting.
type IntegrationHandler interface {
	HandleInvoicePosted(ctx context.Context, evt InvoicePostedEvent) error
}
