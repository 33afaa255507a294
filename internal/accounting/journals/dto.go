package journals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PostingLineInput describes one journal line of a posting request.
type PostingLineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	BranchID    *int64
	Description string
}

// PostingInput groups everything needed to write one transaction group.
type PostingInput struct {
	Date        time.Time
	Reference   string
	Description string
	JournalType JournalType
	SourceType  string
	SourceID    int64
	BranchID    *int64
	IsReversal  bool
	Lines       []PostingLineInput
}

// Validate rejects the posting before anything touches the database.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("journals: posting date required")
	}
	if in.SourceType == "" {
		return errors.New("journals: source type required")
	}
	if in.SourceID == 0 {
		return errors.New("journals: source id required")
	}
	if in.JournalType == "" {
		return errors.New("journals: journal type required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journals: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("journals: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return fmt.Errorf("journals: line %d cannot be both debit and credit", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	// Exact comparison at cent precision; epsilon tolerance is for reading
	// aggregates back, never for accepting writes.
	if fmt.Sprintf("%.2f", debit) != fmt.Sprintf("%.2f", credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// ReverseInput wraps parameters for reversing a transaction group.
type ReverseInput struct {
	TxGroupID  uuid.UUID
	Memo       string
	TargetDate *time.Time
}
