package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

// Handler wires the financial statement endpoints. Every response is
// JSON; heavy statements go through the response cache.
type Handler struct {
	logger       *slog.Logger
	balanceSheet *reports.BalanceSheetService
	income       *reports.IncomeStatementService
	cogm         *reports.COGMService
	cashFlow     *reports.CashFlowService
	ledger       *reports.LedgerQueryService
	cache        *ResponseCache
	validator    *validator.Validate
}

func NewHandler(
	logger *slog.Logger,
	balanceSheet *reports.BalanceSheetService,
	income *reports.IncomeStatementService,
	cogm *reports.COGMService,
	cashFlow *reports.CashFlowService,
	ledger *reports.LedgerQueryService,
	cache *ResponseCache,
) *Handler {
	return &Handler{
		logger:       logger,
		balanceSheet: balanceSheet,
		income:       income,
		cogm:         cogm,
		cashFlow:     cashFlow,
		ledger:       ledger,
		cache:        cache,
		validator:    validator.New(),
	}
}

type balanceSheetQuery struct {
	AsOf         time.Time
	DisplayLevel reports.DisplayLevel `validate:"oneof=all parents_only totals_only"`
	BranchIDs    []int64              `validate:"dive,gt=0"`
	IncludeZero  bool
}

type windowQuery struct {
	From      time.Time
	To        time.Time
	BranchIDs []int64 `validate:"dive,gt=0"`
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseBalanceSheetQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	filters := reports.BalanceSheetFilters{AsOf: q.AsOf, BranchIDs: q.BranchIDs, DisplayLevel: q.DisplayLevel, IncludeZeroBalances: q.IncludeZero}
	zeroToken := "zeros=off"
	if q.IncludeZero {
		zeroToken = "zeros=on"
	}
	key := buildCacheKey("bs", q.BranchIDs, q.AsOf.Format(dateLayout), string(q.DisplayLevel), zeroToken)
	h.serveCached(w, r, "bs", key, func(ctx context.Context) (any, error) {
		return h.balanceSheet.Build(ctx, filters)
	})
}

func (h *Handler) handleBalanceSheetSummary(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseBalanceSheetQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	summary, err := h.balanceSheet.Summary(r.Context(), reports.BalanceSheetFilters{AsOf: q.AsOf, BranchIDs: q.BranchIDs})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleBalanceSheetComparison(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseBalanceSheetQuery(r)
	previous, err := parseDate(r.URL.Query().Get("previous_as_of"))
	if err != nil {
		errs["previous_as_of"] = "invalid date, expected YYYY-MM-DD"
	}
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	cmp, err := h.balanceSheet.ComparePeriods(r.Context(),
		reports.BalanceSheetFilters{AsOf: q.AsOf, BranchIDs: q.BranchIDs},
		reports.BalanceSheetFilters{AsOf: previous, BranchIDs: q.BranchIDs},
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) handleBalanceSheetValidation(w http.ResponseWriter, r *http.Request) {
	result, err := h.balanceSheet.ValidateClassification(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	filters := reports.IncomeStatementFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs}
	key := buildCacheKey("is", q.BranchIDs, q.From.Format(dateLayout), q.To.Format(dateLayout))
	h.serveCached(w, r, "is", key, func(ctx context.Context) (any, error) {
		return h.income.Build(ctx, filters)
	})
}

func (h *Handler) handleIncomeStatementSummary(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	summary, err := h.income.Summary(r.Context(), reports.IncomeStatementFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleIncomeStatementComparison(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	prevFrom, err := parseDate(r.URL.Query().Get("previous_from"))
	if err != nil {
		errs["previous_from"] = "invalid date, expected YYYY-MM-DD"
	}
	prevTo, err := parseDate(r.URL.Query().Get("previous_to"))
	if err != nil {
		errs["previous_to"] = "invalid date, expected YYYY-MM-DD"
	}
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	cmp, err := h.income.ComparePeriods(r.Context(),
		reports.IncomeStatementFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs},
		reports.IncomeStatementFilters{From: prevFrom, To: prevTo, BranchIDs: q.BranchIDs},
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) handleIncomeStatementGrouped(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	groups, err := h.income.GroupedByParent(r.Context(), reports.IncomeStatementFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) handleCOGM(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	useAllocation := false
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("allocation"))) {
	case "", "off":
	case "on":
		useAllocation = true
	default:
		errs["allocation"] = "must be on or off"
	}
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	filters := reports.COGMFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs, UseAllocation: useAllocation}
	allocToken := "alloc=off"
	if useAllocation {
		allocToken = "alloc=on"
	}
	key := buildCacheKey("cogm", q.BranchIDs, q.From.Format(dateLayout), q.To.Format(dateLayout), allocToken)
	h.serveCached(w, r, "cogm", key, func(ctx context.Context) (any, error) {
		return h.cogm.Build(ctx, filters)
	})
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	filters := reports.CashFlowFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs}
	key := buildCacheKey("cf", q.BranchIDs, q.From.Format(dateLayout), q.To.Format(dateLayout))
	h.serveCached(w, r, "cf", key, func(ctx context.Context) (any, error) {
		return h.cashFlow.Build(ctx, filters)
	})
}

func (h *Handler) handleCashFlowIndirect(w http.ResponseWriter, r *http.Request) {
	q, errs := h.parseWindowQuery(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	st, err := h.cashFlow.BuildIndirect(r.Context(), reports.CashFlowFilters{From: q.From, To: q.To, BranchIDs: q.BranchIDs})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) handleLedgerAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || accountID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "account id must be a positive integer")
		return
	}
	filters, errs := h.parseLedgerFilters(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	ledger, err := h.ledger.AccountEntries(r.Context(), accountID, filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) handleLedgerGrouped(w http.ResponseWriter, r *http.Request) {
	filters, errs := h.parseLedgerFilters(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	groups, err := h.ledger.GroupedByParent(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) handleLedgerSummary(w http.ResponseWriter, r *http.Request) {
	filters, errs := h.parseLedgerFilters(r)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	summary, err := h.ledger.Summary(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, report, key string, build func(context.Context) (any, error)) {
	payload, err := h.cache.Fetch(r.Context(), report, key, build)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidDateRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		h.logger.Error("report request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) parseBalanceSheetQuery(r *http.Request) (balanceSheetQuery, map[string]string) {
	q := r.URL.Query()
	errs := make(map[string]string)

	asOf, err := parseDate(q.Get("as_of"))
	if err != nil || asOf.IsZero() {
		errs["as_of"] = "required date, expected YYYY-MM-DD"
	}
	level := reports.DisplayLevel(strings.TrimSpace(q.Get("level")))
	if level == "" {
		level = reports.DisplayAll
	}
	branchIDs, err := parseBranchIDs(q.Get("branches"))
	if err != nil {
		errs["branches"] = "must be a comma-separated list of positive integers"
	}
	includeZero := false
	switch strings.ToLower(strings.TrimSpace(q.Get("include_zero"))) {
	case "", "false":
	case "true":
		includeZero = true
	default:
		errs["include_zero"] = "must be true or false"
	}

	parsed := balanceSheetQuery{AsOf: asOf, DisplayLevel: level, BranchIDs: branchIDs, IncludeZero: includeZero}
	if err := h.validator.Struct(parsed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs[strings.ToLower(fe.Field())] = "invalid value"
			}
		}
	}
	return parsed, errs
}

func (h *Handler) parseWindowQuery(r *http.Request) (windowQuery, map[string]string) {
	q := r.URL.Query()
	errs := make(map[string]string)

	from, err := parseDate(q.Get("from"))
	if err != nil || from.IsZero() {
		errs["from"] = "required date, expected YYYY-MM-DD"
	}
	to, err := parseDate(q.Get("to"))
	if err != nil || to.IsZero() {
		errs["to"] = "required date, expected YYYY-MM-DD"
	}
	branchIDs, err := parseBranchIDs(q.Get("branches"))
	if err != nil {
		errs["branches"] = "must be a comma-separated list of positive integers"
	}

	parsed := windowQuery{From: from, To: to, BranchIDs: branchIDs}
	if err := h.validator.Struct(parsed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs[strings.ToLower(fe.Field())] = "invalid value"
			}
		}
	}
	return parsed, errs
}

func (h *Handler) parseLedgerFilters(r *http.Request) (reports.LedgerFilters, map[string]string) {
	q := r.URL.Query()
	errs := make(map[string]string)

	var from *time.Time
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			errs["from"] = "invalid date, expected YYYY-MM-DD"
		} else {
			from = &parsed
		}
	}
	to, err := parseDate(q.Get("to"))
	if err != nil || to.IsZero() {
		errs["to"] = "required date, expected YYYY-MM-DD"
	}
	journalType := journals.JournalType(strings.TrimSpace(q.Get("journal_type")))
	if journalType != "" && !journalType.Valid() {
		errs["journal_type"] = "unknown journal type"
	}
	branchIDs, err := parseBranchIDs(q.Get("branches"))
	if err != nil {
		errs["branches"] = "must be a comma-separated list of positive integers"
	}
	if from != nil && !to.IsZero() && to.Before(*from) {
		errs["to"] = "must not precede from"
	}

	return reports.LedgerFilters{From: from, To: to, JournalType: journalType, BranchIDs: branchIDs}, errs
}

func respondFieldErrors(w http.ResponseWriter, errs map[string]string) {
	fields := make([]string, 0, len(errs))
	for field, msg := range errs {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(fields, "; "))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

func parseBranchIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	seen := make(map[int64]struct{})
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid branch id")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
