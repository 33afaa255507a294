package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Income statement levels are driven by the first digit of the account
// code: 4 sales revenue, 5 cost of goods sold, 6 operating expenses,
// 7 other income and expenses, 8 other expenses, 9 tax expense.
var (
	salesPrefixes        = []string{"4"}
	cogsPrefixes         = []string{"5"}
	opexPrefixes         = []string{"6"}
	otherIncomePrefixes  = []string{"7"}
	otherExpensePrefixes = []string{"7", "8"}
	taxExpensePrefixes   = []string{"9"}
)

// IncomeStatementFilters selects the reporting window and scope.
type IncomeStatementFilters struct {
	From      time.Time
	To        time.Time
	BranchIDs []int64
}

func (f IncomeStatementFilters) validate() error {
	if f.From.IsZero() || f.To.IsZero() || f.To.Before(f.From) {
		return shared.ErrInvalidDateRange
	}
	return nil
}

// IncomeStatementRow is one account line with its share of revenue.
type IncomeStatementRow struct {
	AccountID        int64   `json:"account_id"`
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Amount           float64 `json:"amount"`
	PercentOfRevenue float64 `json:"percent_of_revenue"`
}

// IncomeStatementSection groups rows for one level.
type IncomeStatementSection struct {
	Label    string               `json:"label"`
	Accounts []IncomeStatementRow `json:"accounts"`
	Total    float64              `json:"total"`
}

// IncomeStatement is the multi-level result.
type IncomeStatement struct {
	Period            Period                 `json:"period"`
	SalesRevenue      IncomeStatementSection `json:"sales_revenue"`
	CostOfGoodsSold   IncomeStatementSection `json:"cost_of_goods_sold"`
	OperatingExpenses IncomeStatementSection `json:"operating_expenses"`
	OtherIncome       IncomeStatementSection `json:"other_income"`
	OtherExpenses     IncomeStatementSection `json:"other_expenses"`
	TaxExpense        IncomeStatementSection `json:"tax_expense"`
	GrossProfit       float64                `json:"gross_profit"`
	OperatingIncome   float64                `json:"operating_income"`
	IncomeBeforeTax   float64                `json:"income_before_tax"`
	NetIncome         float64                `json:"net_income"`
	GrossMargin       float64                `json:"gross_margin"`
	OperatingMargin   float64                `json:"operating_margin"`
	NetMargin         float64                `json:"net_margin"`
}

// ParentGroup is one grouped-by-parent block. Balance is the parent's
// roll-up (own lines plus children); it is already inclusive, so there
// is no separate subtotal to add.
type ParentGroup struct {
	Parent   AccountRow           `json:"parent"`
	Children []IncomeStatementRow `json:"children"`
	Balance  float64              `json:"balance"`
}

// IncomeStatementSummary carries headline figures.
type IncomeStatementSummary struct {
	Period          Period  `json:"period"`
	SalesRevenue    float64 `json:"sales_revenue"`
	GrossProfit     float64 `json:"gross_profit"`
	OperatingIncome float64 `json:"operating_income"`
	NetIncome       float64 `json:"net_income"`
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	NetMargin       float64 `json:"net_margin"`
}

// IncomeStatementComparison holds two statements and their deltas.
type IncomeStatementComparison struct {
	Current  IncomeStatement  `json:"current"`
	Previous IncomeStatement  `json:"previous"`
	Lines    []ComparisonLine `json:"lines"`
}

// IncomeStatementService builds the multi-level profit and loss.
type IncomeStatementService struct {
	accounts AccountSource
	balances BalanceSource
}

func NewIncomeStatementService(accounts AccountSource, balances BalanceSource) *IncomeStatementService {
	return &IncomeStatementService{accounts: accounts, balances: balances}
}

func (s *IncomeStatementService) Build(ctx context.Context, f IncomeStatementFilters) (IncomeStatement, error) {
	if err := f.validate(); err != nil {
		return IncomeStatement{}, err
	}

	sales, err := s.section(ctx, f, "Sales Revenue", salesPrefixes, accounts.TypeRevenue)
	if err != nil {
		return IncomeStatement{}, err
	}
	cogs, err := s.section(ctx, f, "Cost of Goods Sold", cogsPrefixes, accounts.TypeExpense)
	if err != nil {
		return IncomeStatement{}, err
	}
	opex, err := s.section(ctx, f, "Operating Expenses", opexPrefixes, accounts.TypeExpense)
	if err != nil {
		return IncomeStatement{}, err
	}
	otherIncome, err := s.section(ctx, f, "Other Income", otherIncomePrefixes, accounts.TypeRevenue)
	if err != nil {
		return IncomeStatement{}, err
	}
	otherExpenses, err := s.section(ctx, f, "Other Expenses", otherExpensePrefixes, accounts.TypeExpense)
	if err != nil {
		return IncomeStatement{}, err
	}
	taxExpense, err := s.section(ctx, f, "Tax Expense", taxExpensePrefixes, accounts.TypeExpense)
	if err != nil {
		return IncomeStatement{}, err
	}

	st := IncomeStatement{
		Period:            Period{From: f.From, To: f.To},
		SalesRevenue:      sales,
		CostOfGoodsSold:   cogs,
		OperatingExpenses: opex,
		OtherIncome:       otherIncome,
		OtherExpenses:     otherExpenses,
		TaxExpense:        taxExpense,
	}
	st.GrossProfit = round2(sales.Total - cogs.Total)
	st.OperatingIncome = round2(st.GrossProfit - opex.Total)
	st.IncomeBeforeTax = round2(st.OperatingIncome + otherIncome.Total - otherExpenses.Total)
	st.NetIncome = round2(st.IncomeBeforeTax - taxExpense.Total)
	st.GrossMargin = ratio(st.GrossProfit, sales.Total)
	st.OperatingMargin = ratio(st.OperatingIncome, sales.Total)
	st.NetMargin = ratio(st.NetIncome, sales.Total)

	applyRevenueShare(&st)
	return st, nil
}

// Summary builds the statement and keeps the headline figures.
func (s *IncomeStatementService) Summary(ctx context.Context, f IncomeStatementFilters) (IncomeStatementSummary, error) {
	st, err := s.Build(ctx, f)
	if err != nil {
		return IncomeStatementSummary{}, err
	}
	return IncomeStatementSummary{
		Period:          st.Period,
		SalesRevenue:    st.SalesRevenue.Total,
		GrossProfit:     st.GrossProfit,
		OperatingIncome: st.OperatingIncome,
		NetIncome:       st.NetIncome,
		GrossMargin:     st.GrossMargin,
		OperatingMargin: st.OperatingMargin,
		NetMargin:       st.NetMargin,
	}, nil
}

// NetIncome is the single figure the indirect cash flow starts from.
func (s *IncomeStatementService) NetIncome(ctx context.Context, f IncomeStatementFilters) (float64, error) {
	st, err := s.Build(ctx, f)
	if err != nil {
		return 0, err
	}
	return st.NetIncome, nil
}

// ComparePeriods runs the statement for two windows and lines up deltas.
func (s *IncomeStatementService) ComparePeriods(ctx context.Context, current, previous IncomeStatementFilters) (IncomeStatementComparison, error) {
	cur, err := s.Build(ctx, current)
	if err != nil {
		return IncomeStatementComparison{}, err
	}
	prev, err := s.Build(ctx, previous)
	if err != nil {
		return IncomeStatementComparison{}, err
	}
	return IncomeStatementComparison{
		Current:  cur,
		Previous: prev,
		Lines: []ComparisonLine{
			compareLine("Sales Revenue", cur.SalesRevenue.Total, prev.SalesRevenue.Total),
			compareLine("Gross Profit", cur.GrossProfit, prev.GrossProfit),
			compareLine("Operating Income", cur.OperatingIncome, prev.OperatingIncome),
			compareLine("Net Income", cur.NetIncome, prev.NetIncome),
		},
	}, nil
}

// GroupedByParent regroups revenue and expense activity under each
// account's direct parent. Each group's balance is the inclusive
// roll-up; consumers must not sum parent and children again.
func (s *IncomeStatementService) GroupedByParent(ctx context.Context, f IncomeStatementFilters) ([]ParentGroup, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	chart, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	tree := accounts.NewTree(chart)

	var plAccounts []accounts.Account
	for _, a := range chart {
		if a.Type == accounts.TypeRevenue || a.Type == accounts.TypeExpense {
			plAccounts = append(plAccounts, a)
		}
	}
	sums, err := s.balances.PeriodSums(ctx, plAccounts, &f.From, &f.To, f.BranchIDs)
	if err != nil {
		return nil, err
	}

	groups := map[int64]*ParentGroup{}
	var order []int64
	for _, a := range plAccounts {
		sum := sums[a.ID]
		var amount float64
		if a.Type.DebitNormal() {
			amount = round2(sum.Debit - sum.Credit)
		} else {
			amount = round2(sum.Credit - sum.Debit)
		}
		if amount == 0 {
			continue
		}
		parent := tree.ParentOf(a.ID)
		grp, ok := groups[parent.ID]
		if !ok {
			grp = &ParentGroup{Parent: AccountRow{AccountID: parent.ID, Code: parent.Code, Name: parent.Name}}
			groups[parent.ID] = grp
			order = append(order, parent.ID)
		}
		if a.ID != parent.ID {
			grp.Children = append(grp.Children, IncomeStatementRow{AccountID: a.ID, Code: a.Code, Name: a.Name, Amount: amount})
		}
		grp.Balance = round2(grp.Balance + amount)
	}

	sort.Slice(order, func(i, j int) bool { return groups[order[i]].Parent.Code < groups[order[j]].Parent.Code })
	out := make([]ParentGroup, 0, len(order))
	for _, id := range order {
		grp := groups[id]
		grp.Parent.Balance = grp.Balance
		out = append(out, *grp)
	}
	return out, nil
}

func (s *IncomeStatementService) section(ctx context.Context, f IncomeStatementFilters, label string, prefixes []string, accountType accounts.AccountType) (IncomeStatementSection, error) {
	accts, err := s.accounts.ListByCodePrefix(ctx, prefixes, accountType)
	if err != nil {
		return IncomeStatementSection{}, fmt.Errorf("reports: load %s accounts: %w", label, err)
	}
	sums, err := s.balances.PeriodSums(ctx, accts, &f.From, &f.To, f.BranchIDs)
	if err != nil {
		return IncomeStatementSection{}, err
	}
	section := IncomeStatementSection{Label: label}
	for _, a := range accts {
		sum := sums[a.ID]
		var amount float64
		if a.Type.DebitNormal() {
			amount = round2(sum.Debit - sum.Credit)
		} else {
			amount = round2(sum.Credit - sum.Debit)
		}
		if amount == 0 {
			continue
		}
		section.Accounts = append(section.Accounts, IncomeStatementRow{AccountID: a.ID, Code: a.Code, Name: a.Name, Amount: amount})
		section.Total = round2(section.Total + amount)
	}
	return section, nil
}

func applyRevenueShare(st *IncomeStatement) {
	revenue := st.SalesRevenue.Total
	sections := []*IncomeStatementSection{
		&st.SalesRevenue, &st.CostOfGoodsSold, &st.OperatingExpenses,
		&st.OtherIncome, &st.OtherExpenses, &st.TaxExpense,
	}
	for _, section := range sections {
		for i := range section.Accounts {
			section.Accounts[i].PercentOfRevenue = ratio(section.Accounts[i].Amount, revenue)
		}
	}
}
