package journals

import (
	"time"

	"github.com/google/uuid"
)

// JournalType tags the business origin of a transaction group.
type JournalType string

const (
	JournalTypePurchase       JournalType = "purchase"
	JournalTypeSales          JournalType = "sales"
	JournalTypePayment        JournalType = "payment"
	JournalTypeReceipt        JournalType = "receipt"
	JournalTypeDeposit        JournalType = "deposit"
	JournalTypeManufacturing  JournalType = "manufacturing"
	JournalTypeTransfer       JournalType = "transfer"
	JournalTypeOpeningBalance JournalType = "opening_balance"
	JournalTypeGeneral        JournalType = "general"
	JournalTypeReversal       JournalType = "reversal"
)

// Valid reports whether t is a known journal type.
func (t JournalType) Valid() bool {
	switch t {
	case JournalTypePurchase, JournalTypeSales, JournalTypePayment, JournalTypeReceipt,
		JournalTypeDeposit, JournalTypeManufacturing, JournalTypeTransfer,
		JournalTypeOpeningBalance, JournalTypeGeneral, JournalTypeReversal:
		return true
	}
	return false
}

// JournalLine is one side of a double-entry posting. Lines are append-only:
// corrections happen through reversal groups, never mutation.
type JournalLine struct {
	ID          int64       `json:"id"`
	TxGroupID   uuid.UUID   `json:"tx_group_id"`
	AccountID   int64       `json:"account_id"`
	Date        time.Time   `json:"date"`
	Reference   string      `json:"reference"`
	Description string      `json:"description,omitempty"`
	Debit       float64     `json:"debit"`
	Credit      float64     `json:"credit"`
	BranchID    *int64      `json:"branch_id,omitempty"`
	SourceType  string      `json:"source_type"`
	SourceID    int64       `json:"source_id"`
	JournalType JournalType `json:"journal_type"`
	IsReversal  bool        `json:"is_reversal"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Posting is the persisted result of a Post or Reverse call.
type Posting struct {
	TxGroupID uuid.UUID     `json:"tx_group_id"`
	Lines     []JournalLine `json:"lines"`
}
