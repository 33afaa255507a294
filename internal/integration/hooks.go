package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/internal/tax"
)

// Ledger exposes the posting operation required by integrations.
type Ledger interface {
	Post(ctx context.Context, input journals.PostingInput) (journals.Posting, error)
}

// AccountMappingRepository provides mapping lookups.
type AccountMappingRepository interface {
	Get(ctx context.Context, module, key string) (mappings.AccountMapping, error)
}

// ReceiptChecker answers whether goods were already received for a
// purchase order, which decides the debit account of an invoice.
type ReceiptChecker interface {
	HasReceiptForOrder(ctx context.Context, purchaseOrderID int64) (bool, error)
}

// Hooks wires domain events from operational modules into the ledger.
// Every handler posts explicitly and treats an already-linked source as
// success, so event redelivery is harmless.
type Hooks struct {
	ledger      Ledger
	mappingRepo AccountMappingRepository
	receipts    ReceiptChecker
}

// NewHooks constructs integration hooks.
func NewHooks(ledger Ledger, mappingRepo AccountMappingRepository, receipts ReceiptChecker) *Hooks {
	return &Hooks{ledger: ledger, mappingRepo: mappingRepo, receipts: receipts}
}

func (h *Hooks) resolveAccount(ctx context.Context, module, key string) (int64, error) {
	mapping, err := h.mappingRepo.Get(ctx, module, key)
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}

func (h *Hooks) post(ctx context.Context, input journals.PostingInput) error {
	_, err := h.ledger.Post(ctx, input)
	if errors.Is(err, shared.ErrSourceAlreadyLinked) {
		return nil
	}
	return err
}

// HandleInvoicePosted journals a purchase invoice. The debit side goes to
// the unbilled-purchase account when goods were already received against
// the order, otherwise straight to inventory. Tax above zero becomes an
// input-tax debit; any remainder between total and base+tax is posted as
// other fees.
func (h *Hooks) HandleInvoicePosted(ctx context.Context, evt procurement.InvoicePostedEvent) error {
	if h == nil || h.ledger == nil || h.mappingRepo == nil {
		return nil
	}
	if evt.Date.IsZero() {
		return errors.New("integration: invoice date required")
	}
	if evt.Total <= 0 {
		return nil
	}

	treatment := tax.ParseTreatment(evt.TaxTreatment)
	base, taxAmount, _ := tax.ComputeAmounts(evt.Subtotal, evt.TaxRate, treatment)

	debitKey := "purchase.invoice.inventory"
	if h.receipts != nil && evt.PurchaseOrderID != 0 {
		received, err := h.receipts.HasReceiptForOrder(ctx, evt.PurchaseOrderID)
		if err != nil {
			return err
		}
		if received {
			debitKey = "purchase.invoice.unbilled"
		}
	}
	debitAccount, err := h.resolveAccount(ctx, "PURCHASE", debitKey)
	if err != nil {
		return err
	}
	payableAccount, err := h.resolveAccount(ctx, "PURCHASE", "purchase.invoice.payable")
	if err != nil {
		return err
	}

	total := round2(evt.Total)
	lines := []journals.PostingLineInput{
		{AccountID: debitAccount, Debit: round2(base)},
	}
	if taxAmount > 0 {
		inputTaxAccount, err := h.resolveAccount(ctx, "PURCHASE", "purchase.invoice.input_tax")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: inputTaxAccount, Debit: round2(taxAmount)})
	}
	if fees := round2(total - base - taxAmount); fees > 0.01 {
		feeAccount, err := h.resolveAccount(ctx, "PURCHASE", "purchase.invoice.fees")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: feeAccount, Debit: fees})
	}
	lines = append(lines, journals.PostingLineInput{AccountID: payableAccount, Credit: total})

	return h.post(ctx, journals.PostingInput{
		Date:        evt.Date,
		Reference:   evt.Number,
		Description: fmt.Sprintf("Purchase invoice %s", evt.Number),
		JournalType: journals.JournalTypePurchase,
		SourceType:  "purchase.invoice",
		SourceID:    evt.ID,
		BranchID:    evt.BranchID,
		Lines:       lines,
	})
}

// HandleVendorPaymentPosted settles payables from bank and, when an
// advance was used, from the supplier-deposit asset.
func (h *Hooks) HandleVendorPaymentPosted(ctx context.Context, evt cashbank.VendorPaymentPostedEvent) error {
	if h == nil || h.ledger == nil || h.mappingRepo == nil {
		return nil
	}
	if evt.PaidAt.IsZero() {
		return errors.New("integration: payment date required")
	}
	amount := round2(evt.CashAmount + evt.DepositUsed)
	if amount <= 0 {
		return nil
	}
	payableAccount, err := h.resolveAccount(ctx, "PAYMENT", "payment.payable")
	if err != nil {
		return err
	}
	lines := []journals.PostingLineInput{
		{AccountID: payableAccount, Debit: amount},
	}
	if evt.CashAmount > 0 {
		bankAccount, err := h.resolveAccount(ctx, "PAYMENT", "payment.bank")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: bankAccount, Credit: round2(evt.CashAmount)})
	}
	if evt.DepositUsed > 0 {
		advanceAccount, err := h.resolveAccount(ctx, "PAYMENT", "payment.supplier_advance")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: advanceAccount, Credit: round2(evt.DepositUsed)})
	}
	return h.post(ctx, journals.PostingInput{
		Date:        evt.PaidAt,
		Reference:   evt.Number,
		Description: fmt.Sprintf("Vendor payment %s", evt.Number),
		JournalType: journals.JournalTypePayment,
		SourceType:  "vendor.payment",
		SourceID:    evt.ID,
		BranchID:    evt.BranchID,
		Lines:       lines,
	})
}

// HandleCustomerReceiptPosted clears receivables against bank and any
// customer deposit applied.
func (h *Hooks) HandleCustomerReceiptPosted(ctx context.Context, evt cashbank.CustomerReceiptPostedEvent) error {
	if h == nil || h.ledger == nil || h.mappingRepo == nil {
		return nil
	}
	if evt.ReceivedAt.IsZero() {
		return errors.New("integration: receipt date required")
	}
	amount := round2(evt.CashAmount + evt.DepositUsed)
	if amount <= 0 {
		return nil
	}
	receivableAccount, err := h.resolveAccount(ctx, "RECEIPT", "receipt.receivable")
	if err != nil {
		return err
	}
	var lines []journals.PostingLineInput
	if evt.CashAmount > 0 {
		bankAccount, err := h.resolveAccount(ctx, "RECEIPT", "receipt.bank")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: bankAccount, Debit: round2(evt.CashAmount)})
	}
	if evt.DepositUsed > 0 {
		depositAccount, err := h.resolveAccount(ctx, "RECEIPT", "receipt.customer_deposit")
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{AccountID: depositAccount, Debit: round2(evt.DepositUsed)})
	}
	lines = append(lines, journals.PostingLineInput{AccountID: receivableAccount, Credit: amount})

	return h.post(ctx, journals.PostingInput{
		Date:        evt.ReceivedAt,
		Reference:   evt.Number,
		Description: fmt.Sprintf("Customer receipt %s", evt.Number),
		JournalType: journals.JournalTypeReceipt,
		SourceType:  "customer.receipt",
		SourceID:    evt.ID,
		BranchID:    evt.BranchID,
		Lines:       lines,
	})
}

// HandleDepositPosted records advances: money paid to a supplier becomes
// an asset, money received from a customer becomes a liability.
func (h *Hooks) HandleDepositPosted(ctx context.Context, evt cashbank.DepositPostedEvent) error {
	if h == nil || h.ledger == nil || h.mappingRepo == nil {
		return nil
	}
	if evt.Date.IsZero() {
		return errors.New("integration: deposit date required")
	}
	amount := round2(evt.Amount)
	if amount <= 0 {
		return nil
	}
	bankAccount, err := h.resolveAccount(ctx, "DEPOSIT", "deposit.bank")
	if err != nil {
		return err
	}
	var lines []journals.PostingLineInput
	switch evt.Party {
	case cashbank.PartySupplier:
		advanceAccount, err := h.resolveAccount(ctx, "DEPOSIT", "deposit.supplier_advance")
		if err != nil {
			return err
		}
		lines = []journals.PostingLineInput{
			{AccountID: advanceAccount, Debit: amount},
			{AccountID: bankAccount, Credit: amount},
		}
	case cashbank.PartyCustomer:
		liabilityAccount, err := h.resolveAccount(ctx, "DEPOSIT", "deposit.customer_deposit")
		if err != nil {
			return err
		}
		lines = []journals.PostingLineInput{
			{AccountID: bankAccount, Debit: amount},
			{AccountID: liabilityAccount, Credit: amount},
		}
	default:
		return fmt.Errorf("integration: unknown deposit party %q", evt.Party)
	}
	return h.post(ctx, journals.PostingInput{
		Date:        evt.Date,
		Reference:   evt.Number,
		Description: fmt.Sprintf("Deposit %s", evt.Number),
		JournalType: journals.JournalTypeDeposit,
		SourceType:  "deposit." + string(evt.Party),
		SourceID:    evt.ID,
		BranchID:    evt.BranchID,
		Lines:       lines,
	})
}

var _ procurement.IntegrationHandler = (*Hooks)(nil)
var _ cashbank.IntegrationHandler = (*Hooks)(nil)
