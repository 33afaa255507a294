package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads source documents for posting hooks.
type Repository interface {
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	HasReceiptForOrder(ctx context.Context, purchaseOrderID int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, `SELECT id, number, supplier_id, date, subtotal, discount_percent, tax_rate, tax_treatment, other_fees, total, COALESCE(purchase_order_id, 0), branch_id
FROM purchase_invoices WHERE id=$1`, id).
		Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.Date, &inv.Subtotal, &inv.DiscountPercent, &inv.TaxRate, &inv.TaxTreatment, &inv.OtherFees, &inv.Total, &inv.PurchaseOrderID, &inv.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, fmt.Errorf("procurement: get invoice: %w", err)
	}
	return inv, nil
}

func (r *repository) HasReceiptForOrder(ctx context.Context, purchaseOrderID int64) (bool, error) {
	if purchaseOrderID == 0 {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM goods_receipts WHERE purchase_order_id=$1)`, purchaseOrderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("procurement: receipt check: %w", err)
	}
	return exists, nil
}
