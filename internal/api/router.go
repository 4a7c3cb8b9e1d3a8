package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/api/handlers"
	mw "github.com/Harshitk-cp/tenantedge/internal/api/middleware"
	"github.com/Harshitk-cp/tenantedge/internal/backend"
	"github.com/Harshitk-cp/tenantedge/internal/buildconfig"
	"github.com/Harshitk-cp/tenantedge/internal/config"
	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/provider"
	"github.com/Harshitk-cp/tenantedge/internal/service"
	"github.com/Harshitk-cp/tenantedge/internal/store"
	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const limiterCleanupInterval = 10 * time.Minute

// registry is a BuildRegistry that can report its health.
type registry interface {
	domain.BuildRegistry
	Ping(ctx context.Context) error
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router      *chi.Mux
	Provisioner *service.Provisioner
	Registry    domain.BuildRegistry

	limiter *mw.RateLimiter
	stopCh  chan struct{}
}

// NewApp wires the service. A nil db selects the in-memory build registry.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	var reg registry
	if db != nil {
		reg = store.NewBuildStore(db)
		logger.Info("using postgres build registry")
	} else {
		reg = store.NewMemoryBuildRegistry()
		logger.Warn("DATABASE_URL not set, build registry is in memory")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	providerMetrics := provider.NewMetrics()
	httpMetrics := mw.NewMetrics()
	promRegistry.MustRegister(providerMetrics.PrometheusCollectors()...)
	promRegistry.MustRegister(httpMetrics.PrometheusCollectors()...)

	// External clients
	providerClient, err := provider.NewClient(provider.Config{
		BaseURL:     config.ProviderAPIURL(),
		Token:       config.ProviderToken(),
		TeamID:      config.ProviderTeamID(),
		ProjectID:   config.ProviderProjectID(),
		ProjectName: config.ProviderProjectName(),
		Timeout:     config.ProviderTimeout(),
		RPS:         config.ProviderRPS(),
		Burst:       config.ProviderBurst(),
	}, providerMetrics)
	if err != nil {
		return nil, err
	}
	backendClient := backend.NewClient(config.BackendAPIURL(), config.BackendTimeout())

	// Services
	buildSvc := service.NewBuildService(reg, providerClient, logger)
	buildSvc.SetFreshness(config.BuildFreshness())
	provisioner := service.NewProvisionerWithOptions(buildSvc, reg, logger,
		config.ProvisionWorkers(), config.ProvisionQueueSize(), config.ProvisionMaxAttempts())
	domainSvc := service.NewDomainService(providerClient, service.DomainConfig{
		BaseDomain:    config.BaseDomain(),
		FallbackURL:   config.FallbackURL(),
		Environment:   config.Environment(),
		ForceCreation: config.ForceDomainCreation(),
		ExistsTTL:     config.DomainCacheTTL(),
	}, logger)
	resolverSvc := service.NewResolverService(backendClient, provisioner, logger)

	// Handlers
	cookies := handlers.DefaultCookieConfig()
	cookies.Secure = config.SecureCookies()
	domainHandler := handlers.NewDomainHandler(domainSvc, clock.New())
	authHandler := handlers.NewAuthHandler(cookies, logger)
	rootHandler := handlers.NewRootHandler(resolverSvc, cookies, logger)
	buildHandler := handlers.NewBuildHandler(provisioner, logger)

	edge := mw.NewEdge(config.RootHost(), logger, "/health", "/metrics")
	limiter := mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst())

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		Provisioner: provisioner,
		Registry:    reg,
		limiter:     limiter,
		stopCh:      make(chan struct{}),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpMetrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(limiter))
	r.Use(edge.Middleware(rootHandler))

	r.Get("/health", healthHandler(reg))
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	r.Method(http.MethodGet, mw.RootPath, rootHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/domain/check", domainHandler.Check)
		r.Post("/domain/check/", domainHandler.CanonicalRedirect)
		r.Post("/auth/logout", authHandler.Logout)

		r.Route("/builds/{tenantId}", func(r chi.Router) {
			r.Use(mw.RequireTenantSession("tenantId"))
			r.Get("/", buildHandler.Status)
			r.Post("/", buildHandler.Request)
		})
	})

	return app, nil
}

// Start launches background workers.
func (app *App) Start() {
	app.Provisioner.Start()
	go app.limiter.Run(limiterCleanupInterval, app.stopCh)
}

// Stop waits for in-flight provisioning jobs to exit.
func (app *App) Stop() {
	close(app.stopCh)
	app.Provisioner.Stop()
}

func healthHandler(reg registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := buildconfig.VersionInfo()

		if err := reg.Ping(r.Context()); err != nil {
			body["status"] = "error"
			body["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(body)
			return
		}

		body["status"] = "ok"
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ registry                 = (*store.BuildStore)(nil)
	_ registry                 = (*store.MemoryBuildRegistry)(nil)
	_ domain.DeploymentClient  = (*provider.Client)(nil)
	_ domain.DomainClient      = (*provider.Client)(nil)
	_ domain.WorkspaceClient   = (*backend.Client)(nil)
	_ handlers.DomainRegistrar = (*service.DomainService)(nil)
	_ handlers.RootResolver    = (*service.ResolverService)(nil)
	_ handlers.BuildTracker    = (*service.Provisioner)(nil)
	_ service.BuildProvider    = (*service.BuildService)(nil)
	_ service.BuildRequester   = (*service.Provisioner)(nil)
)
