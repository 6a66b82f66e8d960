package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/agency_site/internal/audit"
	"github.com/Skotchmaster/agency_site/internal/config"
	"github.com/Skotchmaster/agency_site/internal/db"
	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/httpserver"
	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/middleware/auth"
	"github.com/Skotchmaster/agency_site/internal/middleware/csrf"
	"github.com/Skotchmaster/agency_site/internal/middleware/ratelimit"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/search"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/tokens"
)

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid_config", err)
	}

	ctx := logging.IntoContext(context.Background(), logger)
	hasher := hash.NewBcrypt(cfg.BcryptCost)

	var (
		store  repo.Store
		closer func() error
	)
	switch cfg.StorageDriver {
	case "memory":
		store = repo.NewMemoryRepo(hasher)
	default:
		gdb, err := db.Open(ctx, cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			fatal(logger, "db_open_failed", err)
		}
		if err := db.Migrate(gdb); err != nil {
			fatal(logger, "db_migrate_failed", err)
		}
		store = repo.NewGormRepo(gdb, hasher)
		closer = func() error { return db.Close(gdb) }
	}

	if err := repo.Seed(ctx, store, repo.SeedConfig{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		AdminName:     cfg.AdminName,
	}); err != nil {
		fatal(logger, "seed_failed", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	var (
		producer *mykafka.Producer
		queue    *mykafka.Async
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		queue = mykafka.NewAsync(producer, logger, cfg.EventBuffer)
		events = queue
	}

	var revoked revocation.Store = revocation.NewMemory()
	var rdb *revocation.Redis
	if cfg.RedisAddr != "" {
		r, err := revocation.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fatal(logger, "redis_connect_failed", err)
		}
		rdb, revoked = r, r
	}

	var index service.SearchIndex
	if cfg.ESURL != "" {
		client, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			// the catalog search falls back to the store
			logger.Warn("elasticsearch_unavailable", "error", err)
		} else {
			index = search.NewIndex(client, cfg.ESIndex)
		}
	}

	m := metrics.New()
	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	recorder := audit.NewRecorder(store, events, logger, cfg.AuditBuffer)
	m.TrackAuditDropped(recorder.Dropped)
	if queue != nil {
		m.TrackEventsDropped(queue.Dropped)
	}

	catalog := &service.CatalogService{Store: store, Search: index, Events: events}
	if index != nil {
		if n, err := catalog.Reindex(ctx); err != nil {
			logger.Warn("reindex_failed", "indexed", n, "error", err)
		}
	}
	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Store: store, Tokens: issuer, Revoked: revoked, Events: events, Metrics: m},
			CookieSecure: cfg.CookieSecure,
		},
		UsersHandler:        &httpserver.UsersHTTP{Svc: &service.UserService{Store: store, Events: events, Audit: recorder}},
		CatalogHandler:      &httpserver.CatalogHTTP{Svc: catalog},
		AdminCatalogHandler: &httpserver.CatalogHTTP{Svc: catalog, Admin: true},
		CartHandler:         &httpserver.CartHTTP{Svc: &service.CartService{Store: store, Events: events}},
		OrdersHandler:       &httpserver.OrdersHTTP{Svc: &service.OrderService{Store: store, Events: events, Metrics: m}},
		SubmissionsHandler: &httpserver.SubmissionsHTTP{Svc: &service.SubmissionService{
			Store: store, Events: events, Metrics: m, Audit: recorder,
		}},
		AuditHandler: &httpserver.AuditHTTP{Svc: &service.AuditService{Store: store}},
		Authenticator: &auth.Authenticator{
			Issuer:    issuer,
			Revoked:   revoked,
			Audit:     recorder,
			SkipAudit: map[string]struct{}{httpserver.CheckPath: {}},
		},
		Limiter:     ratelimit.PerMinute(cfg.LoginRatePerMinute),
		Metrics:     m,
		Ready:       store.Ping,
		CORSOrigins: cfg.CORSOrigins,
	}
	if cfg.CSRFEnabled {
		c := csrf.DefaultConfig()
		c.Secure = cfg.CookieSecure
		c.SkipPaths = []string{"/api/auth/login", "/api/auth/register"}
		deps.CSRF = &c
	}

	e := httpserver.New(logger, deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server_started", "addr", srv.Addr, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "http_server_failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("audit_close_failed", "error", err)
	}
	if queue != nil {
		if err := queue.Close(shutdownCtx); err != nil {
			logger.Error("kafka_drain_failed", "error", err, "dropped", queue.Dropped())
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close_failed", "error", err)
		}
	}
	if closer != nil {
		if err := closer(); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}
	logger.Info("shutdown_complete")
}
