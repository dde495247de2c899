// Command server wires storage, cache, broker, and the HTTP surface into
// one process. Business rules live in the internal services; this file only
// composes them and owns the lifecycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	absencehandler "tempus/internal/absence/handler"
	absencemetrics "tempus/internal/absence/metrics"
	absenceservice "tempus/internal/absence/service"
	absencestore "tempus/internal/absence/store"
	approvalhandler "tempus/internal/approval/handler"
	approvalmetrics "tempus/internal/approval/metrics"
	approvalservice "tempus/internal/approval/service"
	approvalstore "tempus/internal/approval/store"
	"tempus/internal/audit"
	"tempus/internal/eventstore"
	"tempus/internal/platform/config"
	"tempus/internal/platform/httpserver"
	"tempus/internal/platform/kafka"
	"tempus/internal/platform/logger"
	platformmetrics "tempus/internal/platform/metrics"
	"tempus/internal/platform/postgres"
	"tempus/internal/platform/postgres/migrations"
	"tempus/internal/platform/redis"
	projcache "tempus/internal/projection/cache"
	projhandler "tempus/internal/projection/handler"
	projmetrics "tempus/internal/projection/metrics"
	projservice "tempus/internal/projection/service"
	projstore "tempus/internal/projection/store"
	"tempus/internal/ratelimit"
	ratelimitmetrics "tempus/internal/ratelimit/metrics"
	tenanthandler "tempus/internal/tenant/handler"
	tenantmetrics "tempus/internal/tenant/metrics"
	tenantservice "tempus/internal/tenant/service"
	tenantseed "tempus/internal/tenant/store"
	memberstore "tempus/internal/tenant/store/member"
	tenantstore "tempus/internal/tenant/store/tenant"
	workloghandler "tempus/internal/worklog/handler"
	worklogmetrics "tempus/internal/worklog/metrics"
	worklogservice "tempus/internal/worklog/service"
	worklogstore "tempus/internal/worklog/store"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/platform/middleware/admin"
	"tempus/pkg/platform/middleware/identity"
	"tempus/pkg/platform/middleware/metadata"
	"tempus/pkg/platform/middleware/observe"
	"tempus/pkg/platform/middleware/request"
	"tempus/pkg/platform/middleware/requesttime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tempus: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage. An empty DSN selects the in-memory stores; that mode serves
	// local runs and demos and loses all data on restart.
	var (
		events       eventstore.Store
		entryRows    worklogstore.EntryStore
		approvalRows approvalstore.ApprovalStore
		absences     absencestore.AbsenceStore
		auditStore   audit.Store
		outbox       audit.OutboxSource
		tenants      tenantservice.TenantStore
		members      tenantservice.MemberStore
		reads        projservice.Queries
		storeTx      *postgresStoreTx
	)
	probe := &healthProbe{}

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := postgres.ApplyMigrations(ctx, db, migrations.FS); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		pgAudit := audit.NewPostgresStore(db)
		events = eventstore.NewPostgresStore(db)
		entryRows = worklogstore.NewPostgresEntryStore(db)
		approvalRows = approvalstore.NewPostgresApprovalStore(db)
		absences = absencestore.NewPostgresAbsenceStore(db)
		auditStore, outbox = pgAudit, pgAudit
		tenants = tenantstore.NewPostgres(db)
		members = memberstore.NewPostgres(db)
		reads = projstore.NewPostgresReadStore(db)
		storeTx = newPostgresStoreTx(db)
		probe.add("postgres", db.PingContext)
		log.Info("storage ready", "mode", "postgres")
	} else {
		memTenants := tenantstore.NewInMemory()
		memMembers := memberstore.NewInMemory()
		bootTenant, bootMembers := tenantseed.SeedBootstrapTenant(memTenants, memMembers)
		log.Info("seeded bootstrap tenant",
			"tenant_id", bootTenant.ID.String(),
			"manager_id", bootMembers[0].ID.String(),
			"member_id", bootMembers[1].ID.String())

		events = eventstore.NewMemoryStore()
		entryRows = worklogstore.NewInMemoryEntryStore()
		approvalRows = approvalstore.NewInMemoryApprovalStore()
		absences = absencestore.NewInMemoryAbsenceStore()
		auditStore = audit.NewInMemoryStore()
		tenants, members = memTenants, memMembers
		reads = projstore.NewInMemoryReadStore(entryRows, absences, approvalRows)
		log.Warn("storage ready", "mode", "memory", "note", "data is not persisted")
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	// Only the Redis backend gets the circuit breaker; the in-process cache
	// has no network path to fail.
	var cacheBackend projcache.Cache
	if redisClient != nil {
		defer redisClient.Close()
		cacheBackend = projcache.NewBreakerCache(projcache.NewRedisCache(redisClient.Client), log)
		probe.add("redis", redisClient.Health)
		log.Info("projection cache ready", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		cacheBackend = projcache.NewInMemoryCache()
		log.Info("projection cache ready", "backend", "memory")
	}

	auditPub := audit.NewPublisher(auditStore)
	defer auditPub.Close()

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopics(ctx, cfg.Kafka.AuditTopic); err != nil {
			return fmt.Errorf("ensure kafka topics: %w", err)
		}
		if outbox == nil {
			log.Warn("audit relay disabled", "reason", "outbox requires postgres storage")
		} else {
			relay := audit.NewRelay(outbox, producer, cfg.Kafka.AuditTopic, cfg.Kafka.RelayBatch, log)
			go func() {
				if err := relay.Run(ctx, cfg.Kafka.RelayInterval); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit relay stopped", "error", err)
				}
			}()
			log.Info("audit relay started", "topic", cfg.Kafka.AuditTopic, "interval", cfg.Kafka.RelayInterval)
		}
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec,
		ratelimit.WithIdleAfter(cfg.RateLimit.IdleAfter),
		ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval),
	)
	defer limiter.Stop()
	throttle := ratelimit.NewMiddleware(limiter,
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimitmetrics.New()),
		ratelimit.WithDisabled(!cfg.RateLimit.Enabled),
	)

	entryRepo := worklogstore.NewRepository(events, entryRows)
	approvalRepo := approvalstore.NewRepository(events, approvalRows)

	tenantOpts := []tenantservice.Option{
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantmetrics.New()),
		tenantservice.WithAuditPublisher(auditPub),
	}
	worklogOpts := []worklogservice.Option{
		worklogservice.WithLogger(log),
		worklogservice.WithMetrics(worklogmetrics.New()),
		worklogservice.WithAuditPublisher(auditPub),
		worklogservice.WithCache(cacheBackend),
	}
	approvalOpts := []approvalservice.Option{
		approvalservice.WithLogger(log),
		approvalservice.WithMetrics(approvalmetrics.New()),
		approvalservice.WithAuditPublisher(auditPub),
		approvalservice.WithCache(cacheBackend),
		approvalservice.WithFiscalStartDay(cfg.Worklog.FiscalMonthStartDay),
	}
	absenceOpts := []absenceservice.Option{
		absenceservice.WithLogger(log),
		absenceservice.WithMetrics(absencemetrics.New()),
		absenceservice.WithAuditPublisher(auditPub),
		absenceservice.WithCache(cacheBackend),
	}
	if storeTx != nil {
		tenantOpts = append(tenantOpts, tenantservice.WithStoreTx(storeTx))
		worklogOpts = append(worklogOpts, worklogservice.WithStoreTx(storeTx))
		approvalOpts = append(approvalOpts, approvalservice.WithStoreTx(storeTx))
		absenceOpts = append(absenceOpts, absenceservice.WithStoreTx(storeTx))
	}

	// The tenant service doubles as the role directory for every command
	// service.
	tenantSvc := tenantservice.New(tenants, members, tenantOpts...)
	worklogSvc := worklogservice.New(entryRepo, entryRows, approvalRows, tenantSvc, worklogOpts...)
	approvalSvc := approvalservice.New(events, approvalRepo, approvalRows, entryRepo, entryRows, tenantSvc, approvalOpts...)
	absenceSvc := absenceservice.New(absences, tenantSvc, absenceOpts...)
	projSvc := projservice.New(reads,
		projservice.WithLogger(log),
		projservice.WithCache(cacheBackend),
		projservice.WithMetrics(projmetrics.New()),
		projservice.WithTTL(cfg.Cache.TTL),
		projservice.WithDetailTTL(cfg.Cache.DetailTTL),
	)
	rebuilder := projstore.NewRebuilder(events, entryRepo, entryRows, approvalRepo, approvalRows, log)

	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(observe.Middleware(platformmetrics.New()))

	r.Get("/healthz", probe.liveness)
	r.Get("/readyz", probe.readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Probes and scrapes stay outside the throttle; member traffic does not.
	r.Group(func(api chi.Router) {
		api.Use(throttle.Limit)
		api.Use(identity.Require(log))
		workloghandler.New(worklogSvc, log).Register(api)
		approvalhandler.New(approvalSvc, log).Register(api)
		absencehandler.New(absenceSvc, log).Register(api)
		projhandler.New(projSvc, log,
			projhandler.WithFiscalStartDay(cfg.Worklog.FiscalMonthStartDay)).Register(api)
	})

	// An unset token must not fall through to an unguarded admin surface,
	// so the subtree simply is not mounted.
	if cfg.Admin.Token == "" {
		log.Warn("admin routes disabled", "reason", "TEMPUS_ADMIN_TOKEN is not set")
	} else {
		r.Group(func(adm chi.Router) {
			adm.Use(throttle.Limit)
			adm.Use(admin.RequireAdminToken(cfg.Admin.Token, log))
			tenanthandler.New(tenantSvc, log, tenanthandler.WithAuditPublisher(auditPub)).Register(adm)
			adm.Post("/admin/projections/rebuild", rebuildProjections(rebuilder, log))
		})
	}

	srv := httpserver.New(cfg.Server, r)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()
	log.Info("server listening", "addr", cfg.Server.Addr)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown started", "signal", sig.String())

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info("shutdown complete")
	}
	return nil
}

// rebuildProjections replays the entry and approval read models from the
// event log and rewrites the row images. Recovery tool after a projection
// defect (truncate the row tables first, see Rebuilder); not part of
// routine operation.
func rebuildProjections(rebuilder *projstore.Rebuilder, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rebuilder.Rebuild(r.Context()); err != nil {
			log.Error("projection rebuild failed", "error", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
	}
}
