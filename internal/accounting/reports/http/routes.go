package http

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the statement endpoints. Statement builds are
// the most expensive queries in the system, so the whole group is
// rate-limited per client IP on top of the response cache.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))

	r.Group(func(r chi.Router) {
		r.Use(limiter)

		r.Get("/reports/balance-sheet", h.handleBalanceSheet)
		r.Get("/reports/balance-sheet/summary", h.handleBalanceSheetSummary)
		r.Get("/reports/balance-sheet/comparison", h.handleBalanceSheetComparison)
		r.Get("/reports/balance-sheet/validation", h.handleBalanceSheetValidation)

		r.Get("/reports/income-statement", h.handleIncomeStatement)
		r.Get("/reports/income-statement/summary", h.handleIncomeStatementSummary)
		r.Get("/reports/income-statement/comparison", h.handleIncomeStatementComparison)
		r.Get("/reports/income-statement/by-parent", h.handleIncomeStatementGrouped)

		r.Get("/reports/cogm", h.handleCOGM)
		r.Get("/reports/cash-flow", h.handleCashFlow)
		r.Get("/reports/cash-flow/indirect", h.handleCashFlowIndirect)

		r.Get("/reports/ledger/accounts/{accountID}", h.handleLedgerAccount)
		r.Get("/reports/ledger/by-parent", h.handleLedgerGrouped)
		r.Get("/reports/ledger/summary", h.handleLedgerSummary)
	})
}
