package accounts

import "sort"

// Tree is an in-memory index over a chart of accounts, built once per
// report run. Nodes reference each other by id, never by pointer, so a
// Tree can be shared across goroutines after construction.
type Tree struct {
	byID     map[int64]Account
	children map[int64][]int64
	roots    []int64
}

// NewTree indexes the given accounts. An account whose parent id does not
// resolve is treated as a root.
func NewTree(list []Account) *Tree {
	t := &Tree{
		byID:     make(map[int64]Account, len(list)),
		children: make(map[int64][]int64),
	}
	for _, a := range list {
		t.byID[a.ID] = a
	}
	for _, a := range list {
		if a.ParentID != nil {
			if _, ok := t.byID[*a.ParentID]; ok {
				t.children[*a.ParentID] = append(t.children[*a.ParentID], a.ID)
				continue
			}
		}
		t.roots = append(t.roots, a.ID)
	}
	byCode := func(ids []int64) {
		sort.Slice(ids, func(i, j int) bool { return t.byID[ids[i]].Code < t.byID[ids[j]].Code })
	}
	byCode(t.roots)
	for _, ids := range t.children {
		byCode(ids)
	}
	return t
}

// Get returns the account for id.
func (t *Tree) Get(id int64) (Account, bool) {
	a, ok := t.byID[id]
	return a, ok
}

// Roots returns top-level accounts ordered by code.
func (t *Tree) Roots() []Account {
	return t.resolve(t.roots)
}

// Children returns direct children of id ordered by code.
func (t *Tree) Children(id int64) []Account {
	return t.resolve(t.children[id])
}

// ParentOf returns the grouping parent for id: the direct parent when one
// exists in the tree, otherwise the account itself.
func (t *Tree) ParentOf(id int64) Account {
	a, ok := t.byID[id]
	if !ok {
		return Account{}
	}
	if a.ParentID != nil {
		if p, ok := t.byID[*a.ParentID]; ok {
			return p
		}
	}
	return a
}

// Descendants returns every account below id, depth-first by code order.
func (t *Tree) Descendants(id int64) []Account {
	var out []Account
	var walk func(int64)
	walk = func(cur int64) {
		for _, child := range t.children[cur] {
			out = append(out, t.byID[child])
			walk(child)
		}
	}
	walk(id)
	return out
}

// RollUp folds leaf balances upward: each id's value becomes its own
// balance plus the sum of all descendants. Input is not mutated.
func (t *Tree) RollUp(balances map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64, len(t.byID))
	var sum func(int64) float64
	sum = func(id int64) float64 {
		total := balances[id]
		for _, child := range t.children[id] {
			total += sum(child)
		}
		out[id] = total
		return total
	}
	for _, root := range t.roots {
		sum(root)
	}
	return out
}

func (t *Tree) resolve(ids []int64) []Account {
	out := make([]Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}
