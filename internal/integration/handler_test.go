package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/costing"
)

type fakeRecorder struct {
	entries []costing.ProductionCostEntry
}

func (f *fakeRecorder) RecordProduction(_ context.Context, entry costing.ProductionCostEntry) (costing.ProductionCostEntry, []costing.CostVariance, error) {
	if err := entry.Validate(); err != nil {
		return costing.ProductionCostEntry{}, nil, err
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return entry, nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeLedger, *fakeRecorder) {
	t.Helper()
	ledger := &fakeLedger{}
	recorder := &fakeRecorder{}
	hooks := NewHooks(ledger, testMappings(), &fakeReceipts{})
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), hooks, recorder)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, ledger, recorder
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestInvoiceEndpointPostsToLedger(t *testing.T) {
	srv, ledger, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/integrations/procurement/invoices", map[string]any{
		"id":            5,
		"number":        "PI-005",
		"supplier_id":   7,
		"date":          "2025-03-10T00:00:00Z",
		"subtotal":      1000000,
		"tax_rate":      12,
		"tax_treatment": "exclusive",
		"total":         1120000,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, ledger.postings, 1)

	// Redelivery is accepted and does not post twice.
	resp = postJSON(t, srv.URL+"/integrations/procurement/invoices", map[string]any{
		"id":            5,
		"number":        "PI-005",
		"supplier_id":   7,
		"date":          "2025-03-10T00:00:00Z",
		"subtotal":      1000000,
		"tax_rate":      12,
		"tax_treatment": "exclusive",
		"total":         1120000,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, ledger.postings, 1)
}

func TestInvoiceEndpointRejectsBadPayload(t *testing.T) {
	srv, ledger, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/integrations/procurement/invoices", map[string]any{
		"id":     0,
		"number": "",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, ledger.postings)
}

func TestDepositEndpointValidatesParty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/integrations/cashbank/deposits", map[string]any{
		"id":     9,
		"number": "DP-009",
		"party":  "martian",
		"date":   "2025-03-10T00:00:00Z",
		"amount": 500,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductionRunEndpointRecordsEntry(t *testing.T) {
	srv, _, recorder := newTestServer(t)

	resp := postJSON(t, srv.URL+"/integrations/manufacturing/production-runs", map[string]any{
		"product_id":      3,
		"production_date": "2025-03-15T00:00:00Z",
		"quantity":        10,
		"material_cost":   500,
		"labor_cost":      300,
		"overhead_cost":   200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, recorder.entries, 1)

	var out productionRunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.EqualValues(t, 1, out.Entry.ID)
}
