package reports

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

// CostRuleSource provides the data-driven prefix and overhead tables.
type CostRuleSource interface {
	ListCostPrefixes(ctx context.Context, category mappings.CostCategory) ([]string, error)
	ListOverheadRules(ctx context.Context) ([]mappings.OverheadRule, error)
}

// StockSource values physical stock movements for the ledger cross-check.
type StockSource interface {
	RawMaterialProductIDs(ctx context.Context) ([]int64, error)
	MovementValue(ctx context.Context, productIDs []int64, types []inventory.MovementType, from, to *time.Time, branchIDs []int64) (float64, error)
}

// VarianceSource reads stored cost variances; the report never recomputes.
type VarianceSource interface {
	VariancesByPeriod(ctx context.Context, from, to time.Time, branchIDs []int64) ([]costing.CostVariance, error)
}

// COGMFilters selects the manufacturing window and scope.
type COGMFilters struct {
	From          time.Time
	To            time.Time
	BranchIDs     []int64
	UseAllocation bool
}

// RawMaterialSection traces raw material from opening stock to usage.
type RawMaterialSection struct {
	Opening       float64 `json:"opening"`
	Purchases     float64 `json:"purchases"`
	Available     float64 `json:"available"`
	Closing       float64 `json:"closing"`
	Used          float64 `json:"used"`
	UsedFromStock bool    `json:"used_from_stock"`
}

// OverheadItem is one overhead category, actual vs applied. The
// allocation basis name and rate come straight from the category rule
// so the consumer can see how the applied figure was derived.
type OverheadItem struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	Actual           float64 `json:"actual"`
	Allocated        float64 `json:"allocated"`
	Applied          float64 `json:"applied"`
	AllocationBasis  string  `json:"allocation_basis,omitempty"`
	AllocationRate   float64 `json:"allocation_rate,omitempty"`
	FallbackToActual bool    `json:"fallback_to_actual"`
}

// OverheadSection sums all overhead categories.
type OverheadSection struct {
	Items        []OverheadItem `json:"items"`
	TotalActual  float64        `json:"total_actual"`
	TotalApplied float64        `json:"total_applied"`
}

// VarianceSummary sums stored variances for one category.
type VarianceSummary struct {
	Standard float64 `json:"standard"`
	Actual   float64 `json:"actual"`
	Amount   float64 `json:"amount"`
	Percent  float64 `json:"percent"`
}

// VarianceAnalysis groups stored cost variances for the window.
type VarianceAnalysis struct {
	Material VarianceSummary        `json:"material"`
	Labor    VarianceSummary        `json:"labor"`
	Overhead VarianceSummary        `json:"overhead"`
	Details  []costing.CostVariance `json:"details"`
}

// COGMReport is the cost-of-goods-manufactured statement.
type COGMReport struct {
	Period         Period             `json:"period"`
	RawMaterials   RawMaterialSection `json:"raw_materials"`
	DirectLabor    float64            `json:"direct_labor"`
	Overhead       OverheadSection    `json:"overhead"`
	ProductionCost float64            `json:"production_cost"`
	OpeningWIP     float64            `json:"opening_wip"`
	ClosingWIP     float64            `json:"closing_wip"`
	COGM           float64            `json:"cogm"`
	Variances      VarianceAnalysis   `json:"variances"`
}

// COGMService builds the manufacturing cost statement. Ledger balances
// are authoritative; valued stock movements serve as a cross-check and
// as a fallback when the ledger side is silent or clearly diverged.
type COGMService struct {
	accounts  AccountSource
	balances  BalanceSource
	rules     CostRuleSource
	stock     StockSource
	variances VarianceSource
	logger    *slog.Logger
}

func NewCOGMService(accounts AccountSource, balances BalanceSource, rules CostRuleSource, stock StockSource, variances VarianceSource, logger *slog.Logger) *COGMService {
	return &COGMService{accounts: accounts, balances: balances, rules: rules, stock: stock, variances: variances, logger: logger}
}

func (s *COGMService) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *COGMService) Build(ctx context.Context, f COGMFilters) (COGMReport, error) {
	if f.From.IsZero() || f.To.IsZero() || f.To.Before(f.From) {
		return COGMReport{}, shared.ErrInvalidDateRange
	}
	report := COGMReport{Period: Period{From: f.From, To: f.To}}

	raw, err := s.rawMaterials(ctx, f)
	if err != nil {
		return COGMReport{}, err
	}
	report.RawMaterials = raw

	labor, err := s.categoryDebits(ctx, f, mappings.CostDirectLabor)
	if err != nil {
		return COGMReport{}, err
	}
	report.DirectLabor = labor

	overhead, err := s.overhead(ctx, f)
	if err != nil {
		return COGMReport{}, err
	}
	report.Overhead = overhead

	report.ProductionCost = math.Max(0, round2(raw.Used+labor+overhead.TotalApplied))

	openingWIP, closingWIP, err := s.wipBalances(ctx, f)
	if err != nil {
		return COGMReport{}, err
	}
	report.OpeningWIP = openingWIP
	report.ClosingWIP = closingWIP
	report.COGM = math.Max(0, round2(report.ProductionCost+openingWIP-closingWIP))

	analysis, err := s.varianceAnalysis(ctx, f)
	if err != nil {
		return COGMReport{}, err
	}
	report.Variances = analysis
	return report, nil
}

func (s *COGMService) rawMaterials(ctx context.Context, f COGMFilters) (RawMaterialSection, error) {
	invAccounts, err := s.categoryAccounts(ctx, mappings.CostRawMaterialInventory)
	if err != nil {
		return RawMaterialSection{}, err
	}
	dayBefore := f.From.AddDate(0, 0, -1)

	opening, err := s.balances.Balance(ctx, invAccounts, dayBefore, f.BranchIDs)
	if err != nil {
		return RawMaterialSection{}, err
	}
	closing, err := s.balances.Balance(ctx, invAccounts, f.To, f.BranchIDs)
	if err != nil {
		return RawMaterialSection{}, err
	}

	// Cross-check ledger figures against valued stock. A silent ledger
	// with real stock, or a divergence beyond a rupiah, means the stock
	// side is the trustworthy one.
	productIDs, err := s.stock.RawMaterialProductIDs(ctx)
	if err != nil {
		return RawMaterialSection{}, err
	}
	if len(productIDs) > 0 {
		openingStock, err := s.stockValue(ctx, productIDs, nil, &dayBefore, f.BranchIDs)
		if err != nil {
			return RawMaterialSection{}, err
		}
		closingStock, err := s.stockValue(ctx, productIDs, nil, &f.To, f.BranchIDs)
		if err != nil {
			return RawMaterialSection{}, err
		}
		if useStockFallback(opening, openingStock) {
			s.log().Info("raw material opening taken from stock valuation",
				slog.Float64("ledger", opening), slog.Float64("stock", openingStock))
			opening = openingStock
		}
		if useStockFallback(closing, closingStock) {
			s.log().Info("raw material closing taken from stock valuation",
				slog.Float64("ledger", closing), slog.Float64("stock", closingStock))
			closing = closingStock
		}
	}

	purchases, err := s.categoryDebits(ctx, f, mappings.CostRawMaterialPurchase)
	if err != nil {
		return RawMaterialSection{}, err
	}

	section := RawMaterialSection{
		Opening:   round2(opening),
		Purchases: purchases,
		Closing:   round2(closing),
	}
	section.Available = round2(section.Opening + purchases)

	// Prefer actual outbound stock movements for usage; fall back to the
	// available-minus-closing identity when no movements were recorded.
	used, err := s.stock.MovementValue(ctx, productIDs, inventory.OutboundTypes(), &f.From, &f.To, f.BranchIDs)
	if err != nil {
		return RawMaterialSection{}, err
	}
	used = math.Abs(used)
	if used >= balanceEpsilon {
		section.Used = round2(used)
		section.UsedFromStock = true
	} else {
		section.Used = math.Max(0, round2(section.Available-section.Closing))
	}
	return section, nil
}

func (s *COGMService) overhead(ctx context.Context, f COGMFilters) (OverheadSection, error) {
	rules, err := s.rules.ListOverheadRules(ctx)
	if err != nil {
		return OverheadSection{}, err
	}
	var section OverheadSection
	for _, rule := range rules {
		accts, err := s.accounts.ListByCodePrefix(ctx, rule.Prefixes, accounts.TypeExpense)
		if err != nil {
			return OverheadSection{}, err
		}
		actual, err := s.balances.PeriodNet(ctx, accts, f.From, f.To, f.BranchIDs)
		if err != nil {
			return OverheadSection{}, err
		}
		item := OverheadItem{
			Key:             rule.Key,
			Label:           rule.Label,
			Actual:          actual,
			Applied:         actual,
			AllocationBasis: rule.AllocationBasis,
			AllocationRate:  rule.AllocationRate,
		}

		if f.UseAllocation && rule.AllocationRate > 0 && len(rule.BasisPrefixes) > 0 {
			basisAccounts, err := s.accounts.ListByCodePrefix(ctx, rule.BasisPrefixes, accounts.TypeExpense)
			if err != nil {
				return OverheadSection{}, err
			}
			basis, err := s.balances.PeriodSum(ctx, basisAccounts, f.From, f.To, balances.SideDebit, f.BranchIDs)
			if err != nil {
				return OverheadSection{}, err
			}
			item.Allocated = round2(basis * rule.AllocationRate)
			// Allocation clearly off the rails reverts to actual: nothing
			// allocated, negative allocation, or more than 5x actual cost.
			if item.Allocated <= 0 || (actual > 0 && item.Allocated > actual*5) {
				item.FallbackToActual = true
				s.log().Warn("overhead allocation out of range, using actual",
					slog.String("category", rule.Key),
					slog.Float64("allocated", item.Allocated),
					slog.Float64("actual", actual))
			} else {
				item.Applied = item.Allocated
			}
		}

		section.Items = append(section.Items, item)
		section.TotalActual = round2(section.TotalActual + item.Actual)
		section.TotalApplied = round2(section.TotalApplied + item.Applied)
	}
	return section, nil
}

func (s *COGMService) wipBalances(ctx context.Context, f COGMFilters) (opening, closing float64, err error) {
	wipAccounts, err := s.categoryAccounts(ctx, mappings.CostWIPInventory)
	if err != nil {
		return 0, 0, err
	}
	opening, err = s.balances.Balance(ctx, wipAccounts, f.From.AddDate(0, 0, -1), f.BranchIDs)
	if err != nil {
		return 0, 0, err
	}
	closing, err = s.balances.Balance(ctx, wipAccounts, f.To, f.BranchIDs)
	if err != nil {
		return 0, 0, err
	}
	return opening, closing, nil
}

func (s *COGMService) varianceAnalysis(ctx context.Context, f COGMFilters) (VarianceAnalysis, error) {
	rows, err := s.variances.VariancesByPeriod(ctx, f.From, f.To, f.BranchIDs)
	if err != nil {
		return VarianceAnalysis{}, err
	}
	analysis := VarianceAnalysis{Details: rows}
	for _, row := range rows {
		var target *VarianceSummary
		switch row.Category {
		case costing.CategoryMaterial:
			target = &analysis.Material
		case costing.CategoryLabor:
			target = &analysis.Labor
		case costing.CategoryOverhead:
			target = &analysis.Overhead
		default:
			continue
		}
		target.Standard = round2(target.Standard + row.StandardCost)
		target.Actual = round2(target.Actual + row.ActualCost)
		target.Amount = round2(target.Amount + row.VarianceAmount)
	}
	for _, summary := range []*VarianceSummary{&analysis.Material, &analysis.Labor, &analysis.Overhead} {
		summary.Percent = ratio(summary.Amount, summary.Standard)
	}
	return analysis, nil
}

func (s *COGMService) categoryAccounts(ctx context.Context, category mappings.CostCategory) ([]accounts.Account, error) {
	prefixes, err := s.rules.ListCostPrefixes(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.accounts.ListByCodePrefix(ctx, prefixes)
}

func (s *COGMService) categoryDebits(ctx context.Context, f COGMFilters, category mappings.CostCategory) (float64, error) {
	accts, err := s.categoryAccounts(ctx, category)
	if err != nil {
		return 0, err
	}
	return s.balances.PeriodSum(ctx, accts, f.From, f.To, balances.SideDebit, f.BranchIDs)
}

func (s *COGMService) stockValue(ctx context.Context, productIDs []int64, from, to *time.Time, branchIDs []int64) (float64, error) {
	in, err := s.stock.MovementValue(ctx, productIDs, inventory.InboundTypes(), from, to, branchIDs)
	if err != nil {
		return 0, err
	}
	out, err := s.stock.MovementValue(ctx, productIDs, inventory.OutboundTypes(), from, to, branchIDs)
	if err != nil {
		return 0, err
	}
	return round2(in - math.Abs(out)), nil
}

// useStockFallback decides when the stock valuation overrides the
// ledger: the stock side is material and the ledger is either empty or
// diverges by more than one unit of currency.
func useStockFallback(ledger, stock float64) bool {
	if math.Abs(stock) < balanceEpsilon {
		return false
	}
	return math.Abs(ledger) < balanceEpsilon || math.Abs(ledger-stock) > 1
}
