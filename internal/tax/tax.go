// Package tax computes base/tax/total splits for document amounts. It is
// the one place in the codebase that uses exact decimal arithmetic: an
// inclusive split that drifts by a cent unbalances every journal built
// from it. Callers on the float64 ledger side convert at the boundary.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Treatment describes how a stored amount relates to tax.
type Treatment string

const (
	// TreatmentNonTaxable leaves the amount untouched.
	TreatmentNonTaxable Treatment = "non_taxable"
	// TreatmentInclusive means the amount already contains tax.
	TreatmentInclusive Treatment = "inclusive"
	// TreatmentExclusive means tax is added on top of the amount.
	TreatmentExclusive Treatment = "exclusive"
)

var hundred = decimal.NewFromInt(100)

// ParseTreatment normalizes the free-text treatment labels found in
// source documents, including legacy Indonesian labels and the historic
// misspelling "eklusif". Unknown or empty input defaults to exclusive,
// matching how documents without a treatment were always posted.
func ParseTreatment(s string) Treatment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "non_taxable", "nontaxable", "non pajak", "non-pajak", "non_pajak":
		return TreatmentNonTaxable
	case "inclusive", "inklusif", "termasuk":
		return TreatmentInclusive
	default:
		return TreatmentExclusive
	}
}

// Computation is a base/tax/total split. Base + Tax == Total always
// holds exactly at two decimal places.
type Computation struct {
	Base  decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}

// Amounts returns the split as float64 for the ledger side.
func (c Computation) Amounts() (base, tax, total float64) {
	return c.Base.InexactFloat64(), c.Tax.InexactFloat64(), c.Total.InexactFloat64()
}

// Compute splits an amount according to treatment and rate (percent).
// Inclusive amounts are decomposed as base = amount × 100 / (100 + rate);
// the tax is the remainder, so no rounding drift can appear between the
// parts and the whole.
func Compute(amount, ratePercent decimal.Decimal, t Treatment) Computation {
	if t == TreatmentNonTaxable || ratePercent.Sign() <= 0 {
		return Computation{Base: amount, Tax: decimal.Zero, Total: amount}
	}
	switch t {
	case TreatmentInclusive:
		base := amount.Mul(hundred).Div(hundred.Add(ratePercent)).Round(2)
		return Computation{Base: base, Tax: amount.Sub(base), Total: amount}
	default: // exclusive
		tax := amount.Mul(ratePercent).Div(hundred).Round(2)
		return Computation{Base: amount, Tax: tax, Total: amount.Add(tax)}
	}
}

// LineSubtotal computes a document line: quantity × unit price, discount
// applied before tax, then the treatment split.
func LineSubtotal(qty, unitPrice, discountPercent, ratePercent decimal.Decimal, t Treatment) Computation {
	gross := qty.Mul(unitPrice)
	if discountPercent.Sign() > 0 {
		gross = gross.Sub(gross.Mul(discountPercent).Div(hundred)).Round(2)
	}
	return Compute(gross, ratePercent, t)
}

// ComputeAmounts is the float64 convenience wrapper used by posting hooks.
func ComputeAmounts(amount, ratePercent float64, t Treatment) (base, tax, total float64) {
	return Compute(decimal.NewFromFloat(amount), decimal.NewFromFloat(ratePercent), t).Amounts()
}
