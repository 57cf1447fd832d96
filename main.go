package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"flightops-cloud/internal/audit"
	"flightops-cloud/internal/auth"
	"flightops-cloud/internal/checkin/application"
	checkinrepo "flightops-cloud/internal/checkin/infrastructure/postgres"
	"flightops-cloud/internal/checkin/infrastructure/tax"
	checkininterfaces "flightops-cloud/internal/checkin/interfaces"
	"flightops-cloud/internal/invoicing"
	"flightops-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	bookingChecker := auth.NewBookingChecker(db)
	auditRepo := audit.NewRepository(db)

	billingCfg, err := application.LoadBillingConfig()
	if err != nil {
		logger.Fatalf("billing config error: %v", err)
	}

	bookingRepo := checkinrepo.NewBookingRepository(db)
	rateRepo := checkinrepo.NewChargeRateRepository(db)

	var taxProvider application.TaxRateProvider = tax.NewSettingsProvider(db)
	if billingCfg.FallbackTaxPct > 0 {
		fallback := decimal.NewFromFloat(billingCfg.FallbackTaxPct).Div(decimal.NewFromInt(100))
		withFallback, err := tax.NewFallbackProvider(taxProvider, fallback)
		if err != nil {
			logger.Fatalf("fallback tax rate error: %v", err)
		}
		taxProvider = withFallback
	}

	invoiceClient, err := invoicing.NewClient(cfg.InvoicingBaseURL, cfg.InvoicingToken)
	if err != nil {
		logger.Fatalf("invoicing client error: %v", err)
	}

	checkinService, err := application.NewCheckInService(bookingRepo, rateRepo, taxProvider, invoiceClient, nil, billingCfg)
	if err != nil {
		logger.Fatalf("checkin service error: %v", err)
	}
	checkinHandler, err := checkininterfaces.NewCheckInHandler(checkinService, bookingChecker, auditRepo)
	if err != nil {
		logger.Fatalf("checkin handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/checkins/", checkinHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	HTTPAddr         string
	InvoicingBaseURL string
	InvoicingToken   string
	JWTSecret        string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		InvoicingBaseURL: getenvDefault("INVOICING_BASE_URL", ""),
		InvoicingToken:   getenvDefault("INVOICING_TOKEN", ""),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.InvoicingBaseURL == "" {
		log.Fatal("INVOICING_BASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
