package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, module, key string) (AccountMapping, error)
	ListCostPrefixes(ctx context.Context, category CostCategory) ([]string, error)
	ListOverheadRules(ctx context.Context) ([]OverheadRule, error)
	ListCashFlowSections(ctx context.Context) ([]CashFlowSection, error)
	ListCashAccountPrefixes(ctx context.Context) ([]string, error)
	ListCashFlowAdjustments(ctx context.Context) ([]CashFlowAdjustmentRule, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, errors.New("mappings: module and key required")
	}
	normalized := strings.ToUpper(module)
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT module, key, account_id, created_at, updated_at FROM account_mappings WHERE module=$1 AND key=$2`, normalized, key).
		Scan(&mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

func (r *repository) ListCostPrefixes(ctx context.Context, category CostCategory) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT prefix FROM cost_prefix_rules WHERE category=$1 ORDER BY sort_order, prefix`, string(category))
	if err != nil {
		return nil, fmt.Errorf("mappings: cost prefixes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListOverheadRules(ctx context.Context) ([]OverheadRule, error) {
	rows, err := r.db.Query(ctx, `SELECT key, label, prefixes, allocation_basis, basis_prefixes, allocation_rate, sort_order
FROM overhead_rules ORDER BY sort_order, key`)
	if err != nil {
		return nil, fmt.Errorf("mappings: overhead rules: %w", err)
	}
	defer rows.Close()
	var out []OverheadRule
	for rows.Next() {
		var rule OverheadRule
		if err := rows.Scan(&rule.Key, &rule.Label, &rule.Prefixes, &rule.AllocationBasis, &rule.BasisPrefixes, &rule.AllocationRate, &rule.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *repository) ListCashFlowSections(ctx context.Context) ([]CashFlowSection, error) {
	rows, err := r.db.Query(ctx, `SELECT s.key, s.label, s.sort_order, i.key, i.label, i.type, i.prefixes, i.sort_order
FROM cash_flow_sections s
JOIN cash_flow_items i ON i.section_key = s.key
ORDER BY s.sort_order, s.key, i.sort_order, i.key`)
	if err != nil {
		return nil, fmt.Errorf("mappings: cash flow sections: %w", err)
	}
	defer rows.Close()

	var out []CashFlowSection
	index := map[string]int{}
	for rows.Next() {
		var sectionKey, sectionLabel string
		var sectionOrder int
		var item CashFlowItem
		var itemType string
		if err := rows.Scan(&sectionKey, &sectionLabel, &sectionOrder, &item.Key, &item.Label, &itemType, &item.Prefixes, &item.SortOrder); err != nil {
			return nil, err
		}
		item.Type = CashFlowItemType(itemType)
		pos, ok := index[sectionKey]
		if !ok {
			out = append(out, CashFlowSection{Key: sectionKey, Label: sectionLabel, SortOrder: sectionOrder})
			pos = len(out) - 1
			index[sectionKey] = pos
		}
		out[pos].Items = append(out[pos].Items, item)
	}
	return out, rows.Err()
}

func (r *repository) ListCashAccountPrefixes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT prefix FROM cash_account_rules ORDER BY prefix`)
	if err != nil {
		return nil, fmt.Errorf("mappings: cash account prefixes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListCashFlowAdjustments(ctx context.Context) ([]CashFlowAdjustmentRule, error) {
	rows, err := r.db.Query(ctx, `SELECT key, label, kind, prefixes, sort_order FROM cash_flow_adjustment_rules ORDER BY sort_order, key`)
	if err != nil {
		return nil, fmt.Errorf("mappings: cash flow adjustments: %w", err)
	}
	defer rows.Close()
	var out []CashFlowAdjustmentRule
	for rows.Next() {
		var rule CashFlowAdjustmentRule
		var kind string
		if err := rows.Scan(&rule.Key, &rule.Label, &kind, &rule.Prefixes, &rule.SortOrder); err != nil {
			return nil, err
		}
		rule.Kind = AdjustmentKind(kind)
		out = append(out, rule)
	}
	return out, rows.Err()
}
