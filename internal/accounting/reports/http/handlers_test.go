package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
)

type staticAccounts struct {
	chart     []accounts.Account
	listCalls int
}

func (s *staticAccounts) List(_ context.Context) ([]accounts.Account, error) {
	s.listCalls++
	return s.chart, nil
}

func (s *staticAccounts) ListByType(_ context.Context, types ...accounts.AccountType) ([]accounts.Account, error) {
	var out []accounts.Account
	for _, a := range s.chart {
		for _, t := range types {
			if a.Type == t {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (s *staticAccounts) ListByCodePrefix(_ context.Context, _ []string, _ ...accounts.AccountType) ([]accounts.Account, error) {
	return nil, nil
}

type staticBalances struct {
	byAccount map[int64]float64
}

func (s *staticBalances) Balance(_ context.Context, accts []accounts.Account, _ time.Time, _ []int64) (float64, error) {
	var total float64
	for _, a := range accts {
		total += s.byAccount[a.ID]
	}
	return total, nil
}

func (s *staticBalances) BalancesByAccount(_ context.Context, accts []accounts.Account, _ time.Time, _ []int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(accts))
	for _, a := range accts {
		out[a.ID] = s.byAccount[a.ID]
	}
	return out, nil
}

func (s *staticBalances) PeriodSum(_ context.Context, _ []accounts.Account, _, _ time.Time, _ balances.Side, _ []int64) (float64, error) {
	return 0, nil
}

func (s *staticBalances) PeriodNet(_ context.Context, _ []accounts.Account, _, _ time.Time, _ []int64) (float64, error) {
	return 0, nil
}

func (s *staticBalances) PeriodSums(_ context.Context, _ []accounts.Account, _, _ *time.Time, _ []int64) (map[int64]balances.Sums, error) {
	return map[int64]balances.Sums{}, nil
}

type staticJournals struct{}

func (staticJournals) ListByAccount(_ context.Context, _ int64, _ journals.Filter) ([]journals.JournalLine, error) {
	return nil, nil
}

func (staticJournals) ListByFilter(_ context.Context, _ journals.Filter) ([]journals.JournalLine, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T) (*Handler, *staticAccounts) {
	t.Helper()
	current := true
	chart := &staticAccounts{chart: []accounts.Account{
		{ID: 1, Code: "1110", Name: "Cash", Type: accounts.TypeAsset, IsCurrent: &current, IsActive: true},
		{ID: 2, Code: "3110", Name: "Capital", Type: accounts.TypeEquity, IsActive: true},
		{ID: 3, Code: "1120", Name: "Petty Cash", Type: accounts.TypeAsset, IsCurrent: &current, IsActive: true},
	}}
	bals := &staticBalances{byAccount: map[int64]float64{1: 1000, 2: 1000}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewResponseCache(client, time.Minute, nil)

	bs := reports.NewBalanceSheetService(chart, bals)
	ledger := reports.NewLedgerQueryService(chart, staticJournals{})
	return NewHandler(testLogger(), bs, nil, nil, nil, ledger, cache), chart
}

func mountTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestBalanceSheetEndpoint(t *testing.T) {
	h, chart := newTestHandler(t)
	router := mountTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/reports/balance-sheet?as_of=2025-06-30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body reports.BalanceSheet
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalAssets != 1000 || !body.IsBalanced {
		t.Fatalf("payload = %+v", body)
	}

	callsAfterFirst := chart.listCalls
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet?as_of=2025-06-30", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d on cached request", rec.Code)
	}
	if chart.listCalls != callsAfterFirst {
		t.Fatal("second request must come from the cache, not the services")
	}
}

func TestBalanceSheetEndpointIncludeZero(t *testing.T) {
	h, _ := newTestHandler(t)
	router := mountTestRouter(h)

	fetch := func(url string) reports.BalanceSheet {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var body reports.BalanceSheet
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	def := fetch("/reports/balance-sheet?as_of=2025-06-30")
	if len(def.CurrentAssets.Accounts) != 1 {
		t.Fatalf("default rows = %d, zero-balance petty cash must stay hidden", len(def.CurrentAssets.Accounts))
	}
	withZeros := fetch("/reports/balance-sheet?as_of=2025-06-30&include_zero=true")
	if len(withZeros.CurrentAssets.Accounts) != 2 {
		t.Fatalf("include_zero rows = %d, want the petty cash row emitted", len(withZeros.CurrentAssets.Accounts))
	}
	if withZeros.TotalAssets != def.TotalAssets {
		t.Fatal("include_zero must not change totals")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet?as_of=2025-06-30&include_zero=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a bad include_zero value", rec.Code)
	}
}

func TestBalanceSheetEndpointRequiresDate(t *testing.T) {
	h, _ := newTestHandler(t)
	router := mountTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBalanceSheetEndpointRejectsBadBranches(t *testing.T) {
	h, _ := newTestHandler(t)
	router := mountTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/balance-sheet?as_of=2025-06-30&branches=1,x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLedgerAccountEndpointValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := mountTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/ledger/accounts/abc?to=2025-06-30", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a non-numeric id", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/ledger/accounts/99?to=2025-06-30", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an unknown account", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/ledger/summary?to=2025-06-30&journal_type=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an unknown journal type", rec.Code)
	}
}
