package httptransport

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"careergate/internal/audit"
	"careergate/internal/generation"
	"careergate/internal/identity"
	"careergate/internal/impersonation"
	"careergate/internal/provider/supabase"
	"careergate/internal/roles"
	"careergate/internal/session"
	dErrors "careergate/pkg/domain-errors"
	"careergate/pkg/platform/httputil"
	"careergate/pkg/requestcontext"
)

//go:embed templates/*.html
var templateFS embed.FS

const dashboardHistoryLimit = 20

// dashboardErrors maps the ?error= values set by form redirects to the
// message shown above the form.
var dashboardErrors = map[string]string{
	"missing_fields": "Missing required fields",
	"unavailable":    "Suggestions are unavailable right now. Please try again.",
	"invalid_target": "Enter a valid user id.",
}

type pages struct {
	tmpl *template.Template
}

func mustParsePages() *pages {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
		"sections":   generation.Sections,
	}
	return &pages{tmpl: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))}
}

// render executes into a buffer so a template failure never leaves a
// half-written page behind.
func (p *pages) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type pageData struct {
	Title    string
	SignedIn bool
}

type loginData struct {
	pageData
	Email string
	Error string
}

type dashboardData struct {
	pageData
	SubjectID    string
	Impersonated bool
	IsAdmin      bool
	Entries      []generation.Entry
	Error        string
}

type adminData struct {
	pageData
	ActorID          string
	Impersonating    string
	Records          []audit.Record
	AuditUnavailable bool
	Error            string
}

type errorData struct {
	pageData
	Error string
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.pages.render(w, status, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			"page", name,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var de *dErrors.Error
	if errors.As(err, &de) {
		status = httputil.DomainCodeToHTTPStatus(de.Code)
	}
	h.renderPage(w, r, status, "error", errorData{
		pageData: pageData{Title: "Error", SignedIn: true},
		Error:    "Something went wrong. Please try again later.",
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	values := h.loadSession(r)
	_, signedIn := values.Get(session.KeyAccessToken)
	h.renderPage(w, r, http.StatusOK, "home", pageData{Title: "Home", SignedIn: signedIn})
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "login", loginData{pageData: pageData{Title: "Sign in"}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, "login", loginData{
			pageData: pageData{Title: "Sign in"},
			Error:    "Invalid form submission",
		})
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	form := loginData{pageData: pageData{Title: "Sign in"}, Email: email}

	if email == "" || password == "" {
		form.Error = "Email and password are required"
		h.renderPage(w, r, http.StatusBadRequest, "login", form)
		return
	}

	sess, err := h.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidLogin) {
			h.logger.InfoContext(ctx, "sign in rejected", "request_id", requestID)
			form.Error = "Invalid email or password"
			h.renderPage(w, r, http.StatusUnauthorized, "login", form)
			return
		}
		h.logger.ErrorContext(ctx, "sign in failed", "error", err, "request_id", requestID)
		form.Error = "Sign in is unavailable right now. Please try again."
		h.renderPage(w, r, http.StatusInternalServerError, "login", form)
		return
	}

	// A fresh session never inherits impersonation state from a previous one.
	values := session.Values{}
	values.Set(session.KeyAccessToken, sess.AccessToken)
	if err := h.sessions.Save(w, values); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err, "request_id", requestID)
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := h.loadSession(r)
	if token, ok := values.Get(session.KeyAccessToken); ok {
		if err := h.auth.SignOut(ctx, token); err != nil {
			h.logger.WarnContext(ctx, "provider sign out failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	values := session.FromContext(ctx)
	token, _ := values.Get(session.KeyAccessToken)
	imp := impersonation.New(values)

	view, err := impersonation.DataSubject(ctx, h.checker, identity.FromToken(token), out, imp)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			// Stale state from a role that no longer allows impersonation.
			h.logger.WarnContext(ctx, "dropping impersonation state", "subject_id", out.Identity.SubjectID, "request_id", requestID)
			imp.Stop()
			if saveErr := h.sessions.Save(w, values); saveErr != nil {
				h.renderError(w, r, saveErr)
				return
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve data subject", "error", err, "request_id", requestID)
		h.renderError(w, r, err)
		return
	}

	entries, err := h.generator.History(ctx, view.SubjectID, dashboardHistoryLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load history", "error", err, "request_id", requestID)
		h.renderError(w, r, err)
		return
	}
	if view.Impersonated {
		h.audit.Record(ctx, audit.ActionImpersonatedHistoryViewed, view.ActorID, view.SubjectID,
			map[string]any{"entries": len(entries)})
	}

	h.renderPage(w, r, http.StatusOK, "dashboard", dashboardData{
		pageData:     pageData{Title: "Dashboard", SignedIn: true},
		SubjectID:    view.SubjectID,
		Impersonated: view.Impersonated,
		IsAdmin:      out.Role == roles.RoleAdmin,
		Entries:      entries,
		Error:        dashboardErrors[r.URL.Query().Get("error")],
	})
}

func (h *Handler) handleDashboardGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard?error=missing_fields", http.StatusSeeOther)
		return
	}
	req := generation.Request{
		Education: r.PostForm.Get("education"),
		Skills:    r.PostForm.Get("skills"),
		Interest:  r.PostForm.Get("interest"),
	}
	if _, err := h.generator.Generate(ctx, out.Identity.SubjectID, req); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			http.Redirect(w, r, "/dashboard?error=missing_fields", http.StatusSeeOther)
			return
		}
		h.logger.ErrorContext(ctx, "generation failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		http.Redirect(w, r, "/dashboard?error=unavailable", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	data := adminData{
		pageData: pageData{Title: "Admin", SignedIn: true},
		ActorID:  out.Identity.SubjectID,
	}
	if r.URL.Query().Get("error") == "invalid_target" {
		data.Error = dashboardErrors["invalid_target"]
	}
	data.Impersonating, _ = impersonation.New(session.FromContext(ctx)).Current()

	records, err := h.auditLog.ListRecent(ctx, defaultListLimit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records", "error", err, "request_id", requestcontext.RequestID(ctx))
		data.AuditUnavailable = true
	}
	data.Records = records

	h.audit.Record(ctx, audit.ActionAdminDashboardViewed, out.Identity.SubjectID, "", nil)
	h.renderPage(w, r, http.StatusOK, "admin", data)
}

func (h *Handler) handleImpersonateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin?error=invalid_target", http.StatusSeeOther)
		return
	}
	target := impersonateRequest{SubjectID: strings.TrimSpace(r.PostForm.Get("subject_id"))}
	if err := httputil.Validate(target); err != nil {
		http.Redirect(w, r, "/admin?error=invalid_target", http.StatusSeeOther)
		return
	}

	values := session.FromContext(ctx)
	if err := impersonation.New(values).Impersonate(target.SubjectID); err != nil {
		http.Redirect(w, r, "/admin?error=invalid_target", http.StatusSeeOther)
		return
	}
	if err := h.sessions.Save(w, values); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err, "request_id", requestcontext.RequestID(ctx))
		h.renderError(w, r, err)
		return
	}
	h.audit.Record(ctx, audit.ActionImpersonationStarted, out.Identity.SubjectID, target.SubjectID, nil)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleStopImpersonateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	values := session.FromContext(ctx)
	imp := impersonation.New(values)
	target, active := imp.Current()
	imp.Stop()
	if err := h.sessions.Save(w, values); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err, "request_id", requestcontext.RequestID(ctx))
		h.renderError(w, r, err)
		return
	}
	if active {
		h.audit.Record(ctx, audit.ActionImpersonationStopped, out.Identity.SubjectID, target, nil)
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
