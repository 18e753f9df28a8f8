package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"uppf-engine/internal/audit"
	"uppf-engine/internal/auth"
	"uppf-engine/internal/claims/application"
	claimsrepo "uppf-engine/internal/claims/infrastructure/postgres"
	claimsinterfaces "uppf-engine/internal/claims/interfaces"
	claimshttp "uppf-engine/internal/claims/interfaces/http"
	claimsnotify "uppf-engine/internal/claims/notify"
	"uppf-engine/internal/eventing"
	"uppf-engine/internal/eventing/eventbus"
	eventingrepo "uppf-engine/internal/eventing/infrastructure/postgres"
	"uppf-engine/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	engineCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("engine config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(application.ClaimCreated{})
	registry.Register(application.ClaimVarianceFlagged{})
	registry.Register(application.ClaimsBatchSubmitted{})
	registry.Register(application.ClaimAgingAlert{})
	registry.Register(application.ClaimPaid{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.TenantID, baseBus)

	eventing.Subscribe(baseBus, eventbus.EventTypeOf[application.ClaimsBatchSubmitted](), "claims.log", func(ctx context.Context, event any) error {
		evt, ok := event.(application.ClaimsBatchSubmitted)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		logger.Printf("batch submitted: window=%s reference=%s claims=%d amount=%.2f",
			evt.WindowID, evt.SubmissionReference, evt.ClaimCount, evt.TotalAmount)
		return nil
	}, processedStore)

	claimRepo := claimsrepo.NewClaimRepository(db)
	deliveryRepo := claimsrepo.NewDeliveryRepository(db)
	equalisationRepo := claimsrepo.NewEqualisationRepository(db)
	traceRepo := claimsrepo.NewGPSTraceRepository(db)
	claimPublisher := claimsinterfaces.NewOutboxPublisher(publisher, cfg.TenantID)

	analyzer := application.NewGeoTraceAnalyzer(nil)
	reconciler := application.NewReconciliationEngine(engineCfg.Tolerances)
	claimService, err := application.NewClaimService(
		claimRepo, deliveryRepo, equalisationRepo,
		analyzer, reconciler, claimPublisher,
		cfg.TenantID, logger,
		application.WithAuditLogger(auditRepo),
		application.WithCurrency(cfg.Currency),
		application.WithTraceReader(traceRepo),
	)
	if err != nil {
		logger.Fatalf("claim service error: %v", err)
	}

	batchService, err := application.NewBatchSubmissionService(claimRepo, claimPublisher, auditRepo, cfg.TenantID, cfg.Currency, nil, logger)
	if err != nil {
		logger.Fatalf("batch service error: %v", err)
	}

	monitorOpts := []application.MonitorOption{
		application.WithAgingThresholdDays(engineCfg.AgingThresholdDays),
	}
	if engineCfg.WebhookURL != "" {
		channel := claimsnotify.NewWebhookChannel(engineCfg.WebhookURL)
		agingNotifier, err := claimsnotify.NewAgingNotifier(channel, cfg.TenantID)
		if err != nil {
			logger.Fatalf("aging notifier error: %v", err)
		}
		monitorOpts = append(monitorOpts, application.WithAgingAlertSink(agingNotifier))
	}
	monitor, err := application.NewVarianceAgingMonitor(claimRepo, claimPublisher, nil, logger, monitorOpts...)
	if err != nil {
		logger.Fatalf("monitor error: %v", err)
	}

	scheduler := application.NewScheduler(monitor, engineCfg.Schedule.DailyAt, logger)
	go scheduler.Start(context.Background())

	claimHandler, err := claimshttp.NewClaimHandler(claimService, batchService, monitor)
	if err != nil {
		logger.Fatalf("claim handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/uppf/claims", claimHandler)
	mux.Handle("/api/v1/uppf/claims/", claimHandler)
	mux.Handle("/api/v1/uppf/windows/", claimHandler)
	mux.Handle("/api/v1/uppf/dashboard", claimHandler)
	mux.Handle("/api/v1/uppf/submissions/", claimHandler)
	mux.Handle("/api/v1/uppf/payments", claimHandler)
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
	DatabaseURL string
	HTTPAddr    string
	TenantID    string
	Currency    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:    getenvDefault("TENANT_ID", "tenant-demo"),
		Currency:    getenvDefault("CURRENCY", "GHS"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
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
		logger.Printf("http %s %s %d %s ip=%s", r.Method, r.URL.Path, resp.status, time.Since(start), audit.ClientIP(r))
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
