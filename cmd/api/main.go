package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmansour/farmgate-pos/api/routes"
	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/customers"
	"github.com/hmansour/farmgate-pos/internal/loads"
	"github.com/hmansour/farmgate-pos/internal/operators"
	"github.com/hmansour/farmgate-pos/internal/payments"
	"github.com/hmansour/farmgate-pos/internal/reconciliation"
	"github.com/hmansour/farmgate-pos/internal/salestx"
	"github.com/hmansour/farmgate-pos/internal/trucks"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/logger"
	"github.com/hmansour/farmgate-pos/pkg/metrics"
	"github.com/hmansour/farmgate-pos/pkg/migrate"
	"github.com/hmansour/farmgate-pos/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	txMetrics := metrics.NewTransactionMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, txMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs, metricsHandler),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, txMetrics *metrics.TransactionMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	factory, err := uow.NewFactory(conn, logg)
	if err != nil {
		return routes.Services{}, err
	}

	truckRepo := trucks.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	loadRepo := loads.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)
	reconciliationRepo := reconciliation.NewRepository(conn)
	invoiceRepo := salestx.NewRepository(conn)
	operatorRepo := operators.NewRepository(conn)

	operatorSvc, err := operators.NewService(operatorRepo, factory, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	truckSvc, err := trucks.NewService(truckRepo, factory)
	if err != nil {
		return routes.Services{}, err
	}
	customerSvc, err := customers.NewService(customerRepo, factory)
	if err != nil {
		return routes.Services{}, err
	}
	loadSvc, err := loads.NewService(loadRepo, truckRepo, factory, cfg.Sanity)
	if err != nil {
		return routes.Services{}, err
	}
	paymentSvc, err := payments.NewService(paymentRepo)
	if err != nil {
		return routes.Services{}, err
	}
	reconciliationSvc, err := reconciliation.NewService(reconciliationRepo, loadRepo, factory)
	if err != nil {
		return routes.Services{}, err
	}
	transactionSvc, err := salestx.NewService(
		invoiceRepo,
		customerRepo,
		paymentRepo,
		truckRepo,
		customerSvc,
		factory,
		txMetrics,
		cfg.Sanity,
	)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Operators:       operatorSvc,
		Trucks:          truckSvc,
		Customers:       customerSvc,
		Loads:           loadSvc,
		Payments:        paymentSvc,
		Reconciliations: reconciliationSvc,
		Transactions:    transactionSvc,
		AuditLogs:       audit.NewRepository(conn),
	}, nil
}
