package integration

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
)

// ProductionRecorder stores actual production costs and derives
// variances against the standard.
type ProductionRecorder interface {
	RecordProduction(ctx context.Context, entry costing.ProductionCostEntry) (costing.ProductionCostEntry, []costing.CostVariance, error)
}

// Handler accepts posted source-document events over HTTP and feeds them
// into the ledger hooks. Redelivery of the same document is a no-op, so
// callers may retry freely.
type Handler struct {
	logger     *slog.Logger
	hooks      *Hooks
	production ProductionRecorder
	validator  *validator.Validate
}

func NewHandler(logger *slog.Logger, hooks *Hooks, production ProductionRecorder) *Handler {
	return &Handler{logger: logger, hooks: hooks, production: production, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/integrations/procurement/invoices", h.invoicePosted)
	r.Post("/integrations/cashbank/payments", h.vendorPaymentPosted)
	r.Post("/integrations/cashbank/receipts", h.customerReceiptPosted)
	r.Post("/integrations/cashbank/deposits", h.depositPosted)
	r.Post("/integrations/manufacturing/production-runs", h.productionRunPosted)
}

type invoicePostedRequest struct {
	ID              int64     `json:"id" validate:"required,gt=0"`
	Number          string    `json:"number" validate:"required"`
	SupplierID      int64     `json:"supplier_id" validate:"required,gt=0"`
	Date            time.Time `json:"date" validate:"required"`
	Subtotal        float64   `json:"subtotal" validate:"gt=0"`
	TaxRate         float64   `json:"tax_rate" validate:"gte=0"`
	TaxTreatment    string    `json:"tax_treatment"`
	Total           float64   `json:"total" validate:"gt=0"`
	PurchaseOrderID int64     `json:"purchase_order_id"`
	BranchID        *int64    `json:"branch_id"`
}

func (h *Handler) invoicePosted(w http.ResponseWriter, r *http.Request) {
	var req invoicePostedRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.hooks.HandleInvoicePosted(r.Context(), procurement.InvoicePostedEvent{
		ID:              req.ID,
		Number:          req.Number,
		SupplierID:      req.SupplierID,
		Date:            req.Date,
		Subtotal:        req.Subtotal,
		TaxRate:         req.TaxRate,
		TaxTreatment:    req.TaxTreatment,
		Total:           req.Total,
		PurchaseOrderID: req.PurchaseOrderID,
		BranchID:        req.BranchID,
	})
	h.respond(w, r, err)
}

type vendorPaymentRequest struct {
	ID          int64     `json:"id" validate:"required,gt=0"`
	Number      string    `json:"number" validate:"required"`
	SupplierID  int64     `json:"supplier_id" validate:"required,gt=0"`
	PaidAt      time.Time `json:"paid_at" validate:"required"`
	CashAmount  float64   `json:"cash_amount" validate:"gte=0"`
	DepositUsed float64   `json:"deposit_used" validate:"gte=0"`
	BranchID    *int64    `json:"branch_id"`
}

func (h *Handler) vendorPaymentPosted(w http.ResponseWriter, r *http.Request) {
	var req vendorPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.hooks.HandleVendorPaymentPosted(r.Context(), cashbank.VendorPaymentPostedEvent{
		ID:          req.ID,
		Number:      req.Number,
		SupplierID:  req.SupplierID,
		PaidAt:      req.PaidAt,
		CashAmount:  req.CashAmount,
		DepositUsed: req.DepositUsed,
		BranchID:    req.BranchID,
	})
	h.respond(w, r, err)
}

type customerReceiptRequest struct {
	ID          int64     `json:"id" validate:"required,gt=0"`
	Number      string    `json:"number" validate:"required"`
	CustomerID  int64     `json:"customer_id" validate:"required,gt=0"`
	ReceivedAt  time.Time `json:"received_at" validate:"required"`
	CashAmount  float64   `json:"cash_amount" validate:"gte=0"`
	DepositUsed float64   `json:"deposit_used" validate:"gte=0"`
	BranchID    *int64    `json:"branch_id"`
}

func (h *Handler) customerReceiptPosted(w http.ResponseWriter, r *http.Request) {
	var req customerReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.hooks.HandleCustomerReceiptPosted(r.Context(), cashbank.CustomerReceiptPostedEvent{
		ID:          req.ID,
		Number:      req.Number,
		CustomerID:  req.CustomerID,
		ReceivedAt:  req.ReceivedAt,
		CashAmount:  req.CashAmount,
		DepositUsed: req.DepositUsed,
		BranchID:    req.BranchID,
	})
	h.respond(w, r, err)
}

type depositRequest struct {
	ID       int64     `json:"id" validate:"required,gt=0"`
	Number   string    `json:"number" validate:"required"`
	Party    string    `json:"party" validate:"oneof=supplier customer"`
	Date     time.Time `json:"date" validate:"required"`
	Amount   float64   `json:"amount" validate:"gt=0"`
	BranchID *int64    `json:"branch_id"`
}

func (h *Handler) depositPosted(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.hooks.HandleDepositPosted(r.Context(), cashbank.DepositPostedEvent{
		ID:       req.ID,
		Number:   req.Number,
		Party:    cashbank.PartyType(req.Party),
		Date:     req.Date,
		Amount:   req.Amount,
		BranchID: req.BranchID,
	})
	h.respond(w, r, err)
}

type productionRunRequest struct {
	ProductID      int64     `json:"product_id" validate:"required,gt=0"`
	ProductionDate time.Time `json:"production_date"`
	Quantity       float64   `json:"quantity" validate:"gt=0"`
	MaterialCost   float64   `json:"material_cost" validate:"gte=0"`
	LaborCost      float64   `json:"labor_cost" validate:"gte=0"`
	OverheadCost   float64   `json:"overhead_cost" validate:"gte=0"`
	BranchID       *int64    `json:"branch_id"`
}

type productionRunResponse struct {
	Entry     costing.ProductionCostEntry `json:"entry"`
	Variances []costing.CostVariance      `json:"variances,omitempty"`
}

func (h *Handler) productionRunPosted(w http.ResponseWriter, r *http.Request) {
	if h.production == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Configured", "production cost recording is disabled")
		return
	}
	var req productionRunRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, variances, err := h.production.RecordProduction(r.Context(), costing.ProductionCostEntry{
		ProductID:      req.ProductID,
		ProductionDate: req.ProductionDate,
		Quantity:       req.Quantity,
		MaterialCost:   req.MaterialCost,
		LaborCost:      req.LaborCost,
		OverheadCost:   req.OverheadCost,
		BranchID:       req.BranchID,
	})
	if err != nil {
		if errors.Is(err, costing.ErrInvalidEntry) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("record production run failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, productionRunResponse{Entry: entry, Variances: variances})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, shared.ErrMappingNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Mapping Missing", err.Error())
	case errors.Is(err, shared.ErrPeriodClosed):
		httpx.Problem(w, http.StatusConflict, "Period Closed", err.Error())
	case errors.Is(err, shared.ErrUnbalanced), errors.Is(err, shared.ErrTooFewLines):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("integration event failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
