package cashbank

import (
	"context"
	"time"
)

// PartyType distinguishes deposit directions.
type PartyType string

const (
	PartySupplier PartyType = "supplier"
	PartyCustomer PartyType = "customer"
)

// VendorPaymentPostedEvent signals an approved payment against payables.
// DepositUsed is the slice settled from an existing supplier advance.
type VendorPaymentPostedEvent struct {
	ID          int64
	Number      string
	SupplierID  int64
	PaidAt      time.Time
	CashAmount  float64
	DepositUsed float64
	BranchID    *int64
}

// CustomerReceiptPostedEvent signals a receipt against receivables.
type CustomerReceiptPostedEvent struct {
	ID          int64
	Number      string
	CustomerID  int64
	ReceivedAt  time.Time
	CashAmount  float64
	DepositUsed float64
	BranchID    *int64
}

// DepositPostedEvent signals money set aside before any invoice exists:
// an advance paid to a supplier or received from a customer.
type DepositPostedEvent struct {
	ID       int64
	Number   string
	Party    PartyType
	Date     time.Time
	Amount   float64
	BranchID *int64
}

// IntegrationHandler receives cash and bank events for ledger posting.
type IntegrationHandler interface {
	HandleVendorPaymentPosted(ctx context.Context, evt VendorPaymentPostedEvent) error
	HandleCustomerReceiptPosted(ctx context.Context, evt CustomerReceiptPostedEvent) error
	HandleDepositPosted(ctx context.Context, evt DepositPostedEvent) error
}
