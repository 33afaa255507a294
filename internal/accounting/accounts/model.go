package accounts

import "time"

// AccountType classifies a chart-of-accounts node.
type AccountType string

const (
	TypeAsset       AccountType = "ASSET"
	TypeContraAsset AccountType = "CONTRA_ASSET"
	TypeLiability   AccountType = "LIABILITY"
	TypeEquity      AccountType = "EQUITY"
	TypeRevenue     AccountType = "REVENUE"
	TypeExpense     AccountType = "EXPENSE"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case TypeAsset, TypeContraAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether the type increases on the debit side.
// Contra assets are credit-normal even though they live in the asset section.
func (t AccountType) DebitNormal() bool {
	return t == TypeAsset || t == TypeExpense
}

// Account is a chart-of-accounts node. Codes are hierarchical: a child's
// code extends its parent's code, so prefix matching selects subtrees.
type Account struct {
	ID             int64       `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Type           AccountType `json:"type"`
	ParentID       *int64      `json:"parent_id,omitempty"`
	IsCurrent      *bool       `json:"is_current,omitempty"`
	OpeningBalance float64     `json:"opening_balance"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// SignedBalance applies the normal-balance convention for the account type.
func (a Account) SignedBalance(debit, credit float64) float64 {
	if a.Type.DebitNormal() {
		return a.OpeningBalance + debit - credit
	}
	return a.OpeningBalance + credit - debit
}
