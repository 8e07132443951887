package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"careergate/internal/audit"
	"careergate/internal/authz"
	"careergate/internal/generation"
	"careergate/internal/guard"
	"careergate/internal/platform/health"
	"careergate/internal/provider/supabase"
	"careergate/internal/session"
	request "careergate/pkg/platform/middleware/request"
)

// Authenticator signs callers in and out with the identity provider.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (supabase.Session, error)
	SignOut(ctx context.Context, token string) error
}

// AuditRecorder is the best-effort audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, action audit.Action, actorID, targetID string, metadata map[string]any)
}

// Generator is the career-guidance feature.
type Generator interface {
	Generate(ctx context.Context, ownerID string, req generation.Request) (generation.Entry, error)
	History(ctx context.Context, ownerID string, limit int) ([]generation.Entry, error)
}

// maxBodyBytes bounds JSON and form bodies. Generation inputs are short
// free text.
const maxBodyBytes = 64 << 10

// Deps are the collaborators the router needs. Handlers hold no state of
// their own beyond these.
type Deps struct {
	Logger         *slog.Logger
	Checker        guard.Checker
	Sessions       session.Store
	Auth           Authenticator
	Audit          AuditRecorder
	AuditLog       audit.Lister
	Generator      Generator
	Health         *health.Handler
	Metrics        *request.Metrics
	MetricsHandler http.Handler
}

// Handler is the thin HTTP layer. It delegates every decision to the guards
// and every effect to domain services.
type Handler struct {
	logger    *slog.Logger
	checker   guard.Checker
	sessions  session.Store
	auth      Authenticator
	audit     AuditRecorder
	auditLog  audit.Lister
	generator Generator
	pages     *pages
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		checker:   d.Checker,
		sessions:  d.Sessions,
		auth:      d.Auth,
		audit:     d.Audit,
		auditLog:  d.AuditLog,
		generator: d.Generator,
		pages:     mustParsePages(),
	}
}

// NewRouter wires every endpoint with its middleware. Each guarded route is
// a thin adapter over one capability in the shared policy table.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	r := chi.NewRouter()

	r.Use(request.Recovery(h.logger))
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(h.logger))
	r.Use(request.LatencyMiddleware(d.Metrics))
	r.Use(request.BodyLimit(maxBodyBytes))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}

	api := func(c authz.Capability) func(http.Handler) http.Handler {
		return guard.API(h.checker, c, h.logger)
	}
	r.Route("/api", func(r chi.Router) {
		r.With(api(authz.CapabilityAdminAPI)).Get("/admin", h.handleAdminAPI)
		r.With(api(authz.CapabilityImpersonate)).Post("/admin/impersonate", h.handleStartImpersonation)
		r.With(api(authz.CapabilityImpersonate)).Delete("/admin/impersonate", h.handleStopImpersonation)
		r.With(api(authz.CapabilityAdminAudit)).Get("/admin/audit", h.handleAuditList)
		r.With(api(authz.CapabilityGenerate)).Post("/generate", h.handleGenerate)
		r.With(api(authz.CapabilityHistory)).Get("/history", h.handleHistory)
	})

	page := func(c authz.Capability, landing string) func(http.Handler) http.Handler {
		return guard.Page(h.checker, h.sessions, guard.PageConfig{
			Capability:  c,
			LoginPath:   "/login",
			LandingPath: landing,
		}, h.logger)
	}
	r.Get("/", h.handleHome)
	r.Get("/login", h.handleLoginForm)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(page(authz.CapabilityDashboard, "/")).Get("/dashboard", h.handleDashboard)
	r.With(page(authz.CapabilityGenerate, "/")).Post("/dashboard/generate", h.handleDashboardGenerate)
	r.With(page(authz.CapabilityAdminDashboard, "/dashboard")).Get("/admin", h.handleAdminPage)
	r.With(page(authz.CapabilityImpersonate, "/dashboard")).Post("/admin/impersonate", h.handleImpersonateForm)
	r.With(page(authz.CapabilityImpersonate, "/dashboard")).Post("/admin/impersonate/stop", h.handleStopImpersonateForm)

	return r
}
