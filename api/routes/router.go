package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hmansour/farmgate-pos/api/controllers"
	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/customers"
	"github.com/hmansour/farmgate-pos/internal/loads"
	"github.com/hmansour/farmgate-pos/internal/operators"
	"github.com/hmansour/farmgate-pos/internal/payments"
	"github.com/hmansour/farmgate-pos/internal/reconciliation"
	"github.com/hmansour/farmgate-pos/internal/salestx"
	"github.com/hmansour/farmgate-pos/internal/trucks"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	"github.com/hmansour/farmgate-pos/pkg/logger"
	pkgredis "github.com/hmansour/farmgate-pos/pkg/redis"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Operators       operators.Service
	Trucks          trucks.Service
	Customers       customers.Service
	Loads           loads.Service
	Payments        payments.Service
	Reconciliations reconciliation.Service
	Transactions    salestx.Service
	AuditLogs       audit.Repository
}

// NewRouter assembles the POS API surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *pkgredis.Client,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginNameLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(svcs.Operators, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/trucks", func(r chi.Router) {
			r.Post("/", controllers.TruckCreate(svcs.Trucks, logg))
			r.Get("/", controllers.TruckList(svcs.Trucks, logg))
			r.Get("/{truckID}", controllers.TruckGet(svcs.Trucks, logg))
			r.Patch("/{truckID}", controllers.TruckUpdate(svcs.Trucks, logg))
			r.Delete("/{truckID}", controllers.TruckDelete(svcs.Trucks, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CustomerCreate(svcs.Customers, logg))
			r.Get("/", controllers.CustomerList(svcs.Customers, logg))
			r.Get("/{customerID}", controllers.CustomerGet(svcs.Customers, logg))
			r.Patch("/{customerID}", controllers.CustomerUpdate(svcs.Customers, logg))
			r.Get("/{customerID}/balance", controllers.CustomerBalance(svcs.Customers, logg))
		})

		r.Route("/loads", func(r chi.Router) {
			r.Post("/", controllers.LoadCreate(svcs.Loads, logg))
			r.Get("/", controllers.LoadList(svcs.Loads, logg))
			r.Get("/{loadID}", controllers.LoadGet(svcs.Loads, logg))
			r.Patch("/{loadID}/status", controllers.LoadUpdateStatus(svcs.Loads, logg))
		})

		r.Post("/transactions", controllers.TransactionCreate(svcs.Transactions, logg))

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.InvoiceCreate(svcs.Transactions, logg))
			r.Get("/", controllers.InvoiceList(svcs.Transactions, logg))
			r.Get("/{invoiceID}", controllers.InvoiceGet(svcs.Transactions, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentCreate(svcs.Transactions, logg))
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
		})

		r.Route("/reconciliations", func(r chi.Router) {
			r.Post("/", controllers.ReconciliationCreate(svcs.Reconciliations, logg))
			r.Get("/", controllers.ReconciliationList(svcs.Reconciliations, logg))
			r.Patch("/{reconciliationID}/status", controllers.ReconciliationUpdateStatus(svcs.Reconciliations, logg))
		})

		r.Route("/operators", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.OperatorRoleAdmin), logg))
			r.Post("/", controllers.OperatorCreate(svcs.Operators, logg))
			r.Get("/", controllers.OperatorList(svcs.Operators, logg))
			r.Patch("/{operatorID}/active", controllers.OperatorSetActive(svcs.Operators, logg))
		})

		r.With(middleware.RequireRole(string(enums.OperatorRoleAdmin), logg)).
			Get("/audit-logs", controllers.AuditLogList(svcs.AuditLogs, logg))
	})

	return r
}
