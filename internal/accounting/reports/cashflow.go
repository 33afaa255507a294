package reports

import (
	"context"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
)

// CashFlowRuleSource provides the configured section/item tables.
type CashFlowRuleSource interface {
	ListCashFlowSections(ctx context.Context) ([]mappings.CashFlowSection, error)
	ListCashAccountPrefixes(ctx context.Context) ([]string, error)
	ListCashFlowAdjustments(ctx context.Context) ([]mappings.CashFlowAdjustmentRule, error)
}

// CashTransactionSource aggregates cash/bank transactions by prefix.
type CashTransactionSource interface {
	SumByOffsetPrefix(ctx context.Context, prefixes []string, types []cashbank.TransactionType, from, to time.Time, branchIDs []int64) (float64, error)
	SumByCashPrefix(ctx context.Context, prefixes []string, types []cashbank.TransactionType, from, to *time.Time, branchIDs []int64) (float64, error)
}

// CashFlowFilters selects the window and scope.
type CashFlowFilters struct {
	From      time.Time
	To        time.Time
	BranchIDs []int64
}

func (f CashFlowFilters) validate() error {
	if f.From.IsZero() || f.To.IsZero() || f.To.Before(f.From) {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// CashFlowItemResult is one classified line of the direct method.
type CashFlowItemResult struct {
	Key     string                    `json:"key"`
	Label   string                    `json:"label"`
	Type    mappings.CashFlowItemType `json:"type"`
	Inflow  float64                   `json:"inflow"`
	Outflow float64                   `json:"outflow"`
	Amount  float64                   `json:"amount"`
}

// CashFlowSectionResult groups items with a section total.
type CashFlowSectionResult struct {
	Key   string               `json:"key"`
	Label string               `json:"label"`
	Items []CashFlowItemResult `json:"items"`
	Total float64              `json:"total"`
}

// CashFlowStatement is the direct-method result.
type CashFlowStatement struct {
	Period         Period                  `json:"period"`
	Sections       []CashFlowSectionResult `json:"sections"`
	NetChange      float64                 `json:"net_change"`
	OpeningBalance float64                 `json:"opening_balance"`
	ClosingBalance float64                 `json:"closing_balance"`
}

// AdjustmentLine is one indirect-method adjustment.
type AdjustmentLine struct {
	Key    string                  `json:"key"`
	Label  string                  `json:"label"`
	Kind   mappings.AdjustmentKind `json:"kind"`
	Amount float64                 `json:"amount"`
}

// IndirectCashFlow reconciles net income to operating cash.
type IndirectCashFlow struct {
	Period       Period           `json:"period"`
	NetIncome    float64          `json:"net_income"`
	Adjustments  []AdjustmentLine `json:"adjustments"`
	NetOperating float64          `json:"net_operating"`
}

// CashFlowService builds cash-flow statements from configured section
// tables; no account codes live in code. Direct classification matches
// the counter-account of each cash transaction against item prefixes and
// folds in transfer journal lines the cash modules never see.
type CashFlowService struct {
	accounts AccountSource
	balances BalanceSource
	journals JournalSource
	rules    CashFlowRuleSource
	cash     CashTransactionSource
	income   *IncomeStatementService
}

func NewCashFlowService(accounts AccountSource, balances BalanceSource, journals JournalSource, rules CashFlowRuleSource, cash CashTransactionSource, income *IncomeStatementService) *CashFlowService {
	return &CashFlowService{accounts: accounts, balances: balances, journals: journals, rules: rules, cash: cash, income: income}
}

// Build produces the direct-method statement.
func (s *CashFlowService) Build(ctx context.Context, f CashFlowFilters) (CashFlowStatement, error) {
	if err := f.validate(); err != nil {
		return CashFlowStatement{}, err
	}
	sections, err := s.rules.ListCashFlowSections(ctx)
	if err != nil {
		return CashFlowStatement{}, err
	}

	st := CashFlowStatement{Period: Period{From: f.From, To: f.To}}
	for _, section := range sections {
		result := CashFlowSectionResult{Key: section.Key, Label: section.Label}
		for _, item := range section.Items {
			line, err := s.buildItem(ctx, f, item)
			if err != nil {
				return CashFlowStatement{}, err
			}
			result.Items = append(result.Items, line)
			result.Total = round2(result.Total + line.Amount)
		}
		st.Sections = append(st.Sections, result)
		st.NetChange = round2(st.NetChange + result.Total)
	}

	opening, err := s.openingBalance(ctx, f)
	if err != nil {
		return CashFlowStatement{}, err
	}
	st.OpeningBalance = opening
	st.ClosingBalance = round2(opening + st.NetChange)
	return st, nil
}

// BuildIndirect reconciles net income to operating cash flow using the
// configured adjustment rules. Working-capital deltas are beginning
// minus ending, so growth in receivables reduces cash.
func (s *CashFlowService) BuildIndirect(ctx context.Context, f CashFlowFilters) (IndirectCashFlow, error) {
	if err := f.validate(); err != nil {
		return IndirectCashFlow{}, err
	}
	netIncome, err := s.income.NetIncome(ctx, IncomeStatementFilters{From: f.From, To: f.To, BranchIDs: f.BranchIDs})
	if err != nil {
		return IndirectCashFlow{}, err
	}
	rules, err := s.rules.ListCashFlowAdjustments(ctx)
	if err != nil {
		return IndirectCashFlow{}, err
	}

	out := IndirectCashFlow{Period: Period{From: f.From, To: f.To}, NetIncome: netIncome}
	total := netIncome
	dayBefore := f.From.AddDate(0, 0, -1)
	for _, rule := range rules {
		accts, err := s.accounts.ListByCodePrefix(ctx, rule.Prefixes)
		if err != nil {
			return IndirectCashFlow{}, err
		}
		var amount float64
		switch rule.Kind {
		case mappings.AdjustmentAddBack:
			amount, err = s.balances.PeriodNet(ctx, accts, f.From, f.To, f.BranchIDs)
			if err != nil {
				return IndirectCashFlow{}, err
			}
		case mappings.AdjustmentWorkingCapital:
			beginning, err := s.balances.Balance(ctx, accts, dayBefore, f.BranchIDs)
			if err != nil {
				return IndirectCashFlow{}, err
			}
			ending, err := s.balances.Balance(ctx, accts, f.To, f.BranchIDs)
			if err != nil {
				return IndirectCashFlow{}, err
			}
			amount = round2(beginning - ending)
		default:
			continue
		}
		out.Adjustments = append(out.Adjustments, AdjustmentLine{Key: rule.Key, Label: rule.Label, Kind: rule.Kind, Amount: amount})
		total = round2(total + amount)
	}
	out.NetOperating = total
	return out, nil
}

func (s *CashFlowService) buildItem(ctx context.Context, f CashFlowFilters, item mappings.CashFlowItem) (CashFlowItemResult, error) {
	inflow, err := s.cash.SumByOffsetPrefix(ctx, item.Prefixes, cashbank.InflowTypes(), f.From, f.To, f.BranchIDs)
	if err != nil {
		return CashFlowItemResult{}, err
	}
	outflow, err := s.cash.SumByOffsetPrefix(ctx, item.Prefixes, cashbank.OutflowTypes(), f.From, f.To, f.BranchIDs)
	if err != nil {
		return CashFlowItemResult{}, err
	}

	transferIn, transferOut, err := s.transferFlows(ctx, f, item.Prefixes)
	if err != nil {
		return CashFlowItemResult{}, err
	}
	inflow = round2(inflow + transferIn)
	outflow = round2(outflow + transferOut)

	line := CashFlowItemResult{Key: item.Key, Label: item.Label, Type: item.Type, Inflow: inflow, Outflow: outflow}
	switch item.Type {
	case mappings.CashFlowInflow:
		line.Amount = inflow
	case mappings.CashFlowOutflow:
		line.Amount = round2(-outflow)
	default:
		line.Amount = round2(inflow - outflow)
	}
	return line, nil
}

// transferFlows classifies transfer journal lines that bypass the cash
// modules. Expense accounts contribute outflows, revenue accounts
// inflows; anything else is split by its net direction.
func (s *CashFlowService) transferFlows(ctx context.Context, f CashFlowFilters, prefixes []string) (inflow, outflow float64, err error) {
	accts, err := s.accounts.ListByCodePrefix(ctx, prefixes)
	if err != nil {
		return 0, 0, err
	}
	if len(accts) == 0 {
		return 0, 0, nil
	}
	byID := make(map[int64]accounts.Account, len(accts))
	ids := make([]int64, 0, len(accts))
	for _, a := range accts {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	lines, err := s.journals.ListByFilter(ctx, journals.Filter{
		AccountIDs:  ids,
		From:        &f.From,
		To:          &f.To,
		JournalType: journals.JournalTypeTransfer,
		BranchIDs:   f.BranchIDs,
	})
	if err != nil {
		return 0, 0, err
	}
	for _, line := range lines {
		acc := byID[line.AccountID]
		switch acc.Type {
		case accounts.TypeExpense:
			outflow += line.Debit - line.Credit
		case accounts.TypeRevenue:
			inflow += line.Credit - line.Debit
		default:
			net := line.Debit - line.Credit
			if net > 0 {
				outflow += net
			} else {
				inflow += -net
			}
		}
	}
	return round2(inflow), round2(outflow), nil
}

func (s *CashFlowService) openingBalance(ctx context.Context, f CashFlowFilters) (float64, error) {
	prefixes, err := s.rules.ListCashAccountPrefixes(ctx)
	if err != nil {
		return 0, err
	}
	dayBefore := f.From.AddDate(0, 0, -1)
	in, err := s.cash.SumByCashPrefix(ctx, prefixes, cashbank.InflowTypes(), nil, &dayBefore, f.BranchIDs)
	if err != nil {
		return 0, err
	}
	out, err := s.cash.SumByCashPrefix(ctx, prefixes, cashbank.OutflowTypes(), nil, &dayBefore, f.BranchIDs)
	if err != nil {
		return 0, err
	}
	// Opening-balance journal groups seed accounts that predate the cash
	// modules.
	cashAccounts, err := s.accounts.ListByCodePrefix(ctx, prefixes, accounts.TypeAsset)
	if err != nil {
		return 0, err
	}
	var seed float64
	for _, a := range cashAccounts {
		seed += a.OpeningBalance
	}
	return round2(seed + in - out), nil
}
