package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"careergate/internal/audit"
	"careergate/internal/authz"
	"careergate/internal/generation"
	"careergate/internal/generation/openai"
	"careergate/internal/identity"
	"careergate/internal/identity/jwtverifier"
	"careergate/internal/platform/config"
	"careergate/internal/platform/database"
	"careergate/internal/platform/health"
	"careergate/internal/provider/supabase"
	"careergate/internal/roles"
	"careergate/internal/session"
	"careergate/internal/store/sqlstore"
	httptransport "careergate/internal/transport/http"
	dErrors "careergate/pkg/domain-errors"
	"careergate/pkg/platform/circuit"
	request "careergate/pkg/platform/middleware/request"
)

// app holds the wired collaborators for one process.
type app struct {
	cfg      config.Server
	logger   *slog.Logger
	registry *prometheus.Registry
	pool     *database.Pool

	public    *supabase.PublicClient
	checker   *authz.Checker
	audit     *audit.Logger
	auditLog  audit.Lister
	generator *generation.Service
	sessions  *session.CookieStore
	health    *health.Handler
	metrics   *request.Metrics
}

type stores struct {
	roles   roles.Store
	audit   audit.Store
	lister  audit.Lister
	history generation.HistoryStore
}

func build(ctx context.Context, cfg config.Server, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		health:   health.New(cfg.Environment),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.public = supabase.NewPublicClient(cfg.Provider.URL, cfg.Provider.AnonKey,
		supabase.WithPublicTimeout(cfg.Provider.Timeout))
	a.health.RegisterCheck("provider", a.public.Health)

	st, err := a.buildStores(ctx)
	if err != nil {
		return nil, err
	}

	table, err := authz.NewTable()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load policy table: %w", err)
	}
	resolver := identity.NewResolver(a.identityProvider(), identity.WithLogger(logger))
	a.checker = authz.NewChecker(table, resolver, roles.NewAdapter(st.roles),
		authz.WithLogger(logger),
		authz.WithMetrics(authz.NewMetrics(a.registry)),
	)

	a.audit = audit.NewLogger(st.audit,
		audit.WithAsyncBuffer(cfg.AuditBuffer),
		audit.WithAppendTimeout(cfg.AuditTimeout),
		audit.WithLogger(logger),
		audit.WithMetrics(audit.NewMetrics(a.registry)),
	)
	a.auditLog = st.lister

	a.generator = generation.NewService(a.textGenerator(), st.history, generation.WithLogger(logger))

	a.sessions, err = session.NewCookieStore(cfg.SessionSecret, session.WithSecure(cfg.SecureCookies))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.metrics = request.NewMetrics(a.registry)
	return a, nil
}

// buildStores uses the SQL database when one is configured and the
// provider's REST API otherwise.
func (a *app) buildStores(ctx context.Context) (stores, error) {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = a.cfg.DatabaseURL
	pool, err := database.New(ctx, dbCfg)
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	if pool != nil {
		a.pool = pool
		a.health.RegisterCheck("database", pool.Health)
		a.logger.Info("using sql stores", "dialect", pool.Dialect())
		auditLog := sqlstore.NewAuditLog(pool.DB())
		return stores{
			roles:   sqlstore.NewProfiles(pool.DB()),
			audit:   auditLog,
			lister:  auditLog,
			history: sqlstore.NewHistory(pool.DB()),
		}, nil
	}

	a.logger.Info("using provider rest stores")
	svc := supabase.NewServiceClient(a.cfg.Provider.URL, a.cfg.Provider.ServiceKey,
		supabase.WithServiceTimeout(a.cfg.Provider.Timeout))
	return stores{roles: svc, audit: svc, lister: svc, history: svc}, nil
}

func (a *app) identityProvider() identity.Provider {
	a.logger.Info("credential verification", "mode", a.cfg.Provider.VerifyMode)
	switch a.cfg.Provider.VerifyMode {
	case config.VerifyLocal:
		return jwtverifier.New(a.cfg.Provider.JWTSecret)
	case config.VerifyFallback:
		return identity.NewResilientProvider(a.public, jwtverifier.New(a.cfg.Provider.JWTSecret),
			identity.WithBreaker(circuit.New("identity_provider")),
			identity.WithResilientLogger(a.logger),
		)
	default:
		return a.public
	}
}

func (a *app) textGenerator() generation.TextGenerator {
	if a.cfg.OpenAIKey == "" {
		a.logger.Warn("OPENAI_API_KEY not set, generation is disabled")
		return disabledGenerator{}
	}
	return openai.New(a.cfg.OpenAIKey, openai.WithModel(a.cfg.OpenAIModel))
}

func (a *app) router() http.Handler {
	return httptransport.NewRouter(httptransport.Deps{
		Logger:         a.logger,
		Checker:        a.checker,
		Sessions:       a.sessions,
		Auth:           a.public,
		Audit:          a.audit,
		AuditLog:       a.auditLog,
		Generator:      a.generator,
		Health:         a.health,
		Metrics:        a.metrics,
		MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	})
}

// Close drains pending audit records before releasing the database.
func (a *app) Close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}
}

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string) (string, error) {
	return "", dErrors.New(dErrors.CodeUnavailable, "text generation is not configured")
}
