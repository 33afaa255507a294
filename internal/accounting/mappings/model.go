package mappings

import "time"

// AccountMapping links an integration key to a ledger account. Posting
// hooks resolve accounts through these rows; account codes never appear
// in code.
type AccountMapping struct {
	Module    string
	Key       string
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CostCategory names a cost-of-goods-manufactured bucket fed by code
// prefixes.
type CostCategory string

const (
	CostRawMaterialInventory CostCategory = "raw_material_inventory"
	CostRawMaterialPurchase  CostCategory = "raw_material_purchase"
	CostDirectLabor          CostCategory = "direct_labor"
	CostWIPInventory         CostCategory = "wip_inventory"
)

// CostPrefixRule binds account-code prefixes to a cost category.
type CostPrefixRule struct {
	Category  CostCategory
	Prefix    string
	SortOrder int
}

// OverheadRule describes one overhead category: which account prefixes
// carry its actual cost and how the allocated figure is derived.
type OverheadRule struct {
	Key             string
	Label           string
	Prefixes        []string
	AllocationBasis string
	BasisPrefixes   []string
	AllocationRate  float64
	SortOrder       int
}

// CashFlowItemType determines the sign treatment of a cash-flow item.
type CashFlowItemType string

const (
	CashFlowInflow  CashFlowItemType = "inflow"
	CashFlowOutflow CashFlowItemType = "outflow"
	CashFlowNet     CashFlowItemType = "net"
)

// CashFlowItem classifies cash movements into a statement line by
// matching counter-account code prefixes.
type CashFlowItem struct {
	Key       string
	Label     string
	Type      CashFlowItemType
	Prefixes  []string
	SortOrder int
}

// CashFlowSection groups items into operating/investing/financing blocks.
type CashFlowSection struct {
	Key       string
	Label     string
	SortOrder int
	Items     []CashFlowItem
}

// AdjustmentKind tags indirect-method adjustment rules.
type AdjustmentKind string

const (
	AdjustmentAddBack        AdjustmentKind = "add_back"
	AdjustmentWorkingCapital AdjustmentKind = "working_capital"
)

// CashFlowAdjustmentRule drives the indirect method: non-cash add-backs
// (depreciation) and working-capital accounts whose period delta is
// computed beginning minus ending.
type CashFlowAdjustmentRule struct {
	Key       string
	Label     string
	Kind      AdjustmentKind
	Prefixes  []string
	SortOrder int
}
