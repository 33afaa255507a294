package cashbank

import "time"

// TransactionType enumerates cash and bank movements. "in" types bring
// money into a cash account; "out" types take it elsewhere.
type TransactionType string

const (
	TypeCashIn  TransactionType = "cash_in"
	TypeCashOut TransactionType = "cash_out"
	TypeBankIn  TransactionType = "bank_in"
	TypeBankOut TransactionType = "bank_out"
)

// InflowTypes are movements into cash accounts.
func InflowTypes() []TransactionType {
	return []TransactionType{TypeCashIn, TypeBankIn}
}

// OutflowTypes are movements out of cash accounts.
func OutflowTypes() []TransactionType {
	return []TransactionType{TypeCashOut, TypeBankOut}
}

// Transaction records one cash or bank movement. The offset account is
// the non-cash side and is what the cash-flow report classifies on.
type Transaction struct {
	ID              int64           `json:"id"`
	Type            TransactionType `json:"type"`
	Date            time.Time       `json:"date"`
	Amount          float64         `json:"amount"`
	AccountID       int64           `json:"account_id"`
	OffsetAccountID int64           `json:"offset_account_id"`
	Reference       string          `json:"reference"`
	BranchID        *int64          `json:"branch_id,omitempty"`
}
