package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/accounting/mappings"
	"github.com/meridian-erp/meridian-erp/internal/accounting/periods"
	"github.com/meridian-erp/meridian-erp/internal/accounting/reports"
	reportshttp "github.com/meridian-erp/meridian-erp/internal/accounting/reports/http"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/cashbank"
	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/branches"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// A dead Redis only disables the report cache; the API stays up.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	reportshttp.SetupCacheMetrics(metrics.Registerer())

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	periodsService := periods.NewService(periods.NewRepository(pool))

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, logger)
	journalsService.WithPeriodGuard(periodsService)
	journalsHandler := journals.NewHandler(logger, journalsService)

	mappingsRepo := mappings.NewRepository(pool)
	aggregator := balances.NewAggregator(balances.NewRepository(pool))

	procurementRepo := procurement.NewRepository(pool)
	hooks := integration.NewHooks(journalsService, mappingsRepo, procurementRepo)

	inventoryRepo := inventory.NewRepository(pool)
	cashbankRepo := cashbank.NewRepository(pool)
	costingService := costing.NewService(costing.NewRepository(pool), logger)
	integrationHandler := integration.NewHandler(logger, hooks, costingService)

	balanceSheet := reports.NewBalanceSheetService(accountsRepo, aggregator)
	income := reports.NewIncomeStatementService(accountsRepo, aggregator)
	cogm := reports.NewCOGMService(accountsRepo, aggregator, mappingsRepo, inventoryRepo, costingService, logger)
	cashFlow := reports.NewCashFlowService(accountsRepo, aggregator, journalsRepo, mappingsRepo, cashbankRepo, income)
	ledgerQuery := reports.NewLedgerQueryService(accountsRepo, journalsRepo)

	responseCache := reportshttp.NewResponseCache(redisClient, cfg.ReportCacheTTL, logger)
	reportsHandler := reportshttp.NewHandler(logger, balanceSheet, income, cogm, cashFlow, ledgerQuery, responseCache)

	branchesService := branches.NewService(branches.NewRepository(pool))
	branchesHandler := branches.NewHandler(logger, branchesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accountsHandler,
		JournalsHandler:    journalsHandler,
		ReportsHandler:     reportsHandler,
		BranchesHandler:    branchesHandler,
		IntegrationHandler: integrationHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
