package httptransport

import (
	"net/http"
	"strconv"

	"careergate/internal/audit"
	"careergate/internal/authz"
	"careergate/internal/generation"
	"careergate/internal/identity"
	"careergate/internal/impersonation"
	"careergate/internal/session"
	dErrors "careergate/pkg/domain-errors"
	"careergate/pkg/platform/httputil"
	"careergate/pkg/requestcontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type impersonateRequest struct {
	SubjectID string `json:"subject_id" validate:"required,uuid"`
}

type impersonationResponse struct {
	Impersonating *string `json:"impersonating"`
}

type generateResponse struct {
	ID         string `json:"id"`
	AIResponse string `json:"ai_response"`
}

type historyResponse struct {
	SubjectID    string             `json:"subject_id"`
	Impersonated bool               `json:"impersonated"`
	Entries      []generation.Entry `json:"entries"`
}

type auditListResponse struct {
	Records []audit.Record `json:"records"`
}

// outcome returns the authorized outcome the guard stored. Its absence means
// a route was wired without a guard, which is a server bug.
func (h *Handler) outcome(w http.ResponseWriter, r *http.Request) (authz.Outcome, bool) {
	out, ok := authz.OutcomeFrom(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "handler reached without authorization outcome",
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "missing authorization"))
		return authz.Outcome{}, false
	}
	return out, true
}

func (h *Handler) handleAdminAPI(w http.ResponseWriter, r *http.Request) {
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	h.audit.Record(r.Context(), audit.ActionAdminAPIAccessed, out.Identity.SubjectID, "", nil)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleStartImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndValidate[impersonateRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}

	values := h.loadSession(r)
	if err := impersonation.New(values).Impersonate(req.SubjectID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.sessions.Save(w, values); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	h.audit.Record(ctx, audit.ActionImpersonationStarted, out.Identity.SubjectID, req.SubjectID, nil)
	httputil.WriteJSON(w, http.StatusOK, impersonationResponse{Impersonating: &req.SubjectID})
}

func (h *Handler) handleStopImpersonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}

	values := h.loadSession(r)
	imp := impersonation.New(values)
	target, active := imp.Current()
	imp.Stop()
	if err := h.sessions.Save(w, values); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	if active {
		h.audit.Record(ctx, audit.ActionImpersonationStopped, out.Identity.SubjectID, target, nil)
	}
	httputil.WriteJSON(w, http.StatusOK, impersonationResponse{})
}

func (h *Handler) handleAuditList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.outcome(w, r); !ok {
		return
	}
	records, err := h.auditLog.ListRecent(ctx, listLimit(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit records", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, auditListResponse{Records: records})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndValidate[generation.Request](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}

	// Generations are always owned by the real identity.
	entry, err := h.generator.Generate(ctx, out.Identity.SubjectID, *req)
	if err != nil {
		h.logger.ErrorContext(ctx, "generation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, generateResponse{ID: entry.ID.String(), AIResponse: entry.Response})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	out, ok := h.outcome(w, r)
	if !ok {
		return
	}

	cred := identity.FromAuthorizationHeader(r.Header.Get("Authorization"))
	view, err := impersonation.DataSubject(ctx, h.checker, cred, out, impersonation.New(h.loadSession(r)))
	if err != nil {
		h.logger.WarnContext(ctx, "history view refused", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.generator.History(ctx, view.SubjectID, listLimit(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load history", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	if view.Impersonated {
		h.audit.Record(ctx, audit.ActionImpersonatedHistoryViewed, view.ActorID, view.SubjectID,
			map[string]any{"entries": len(entries)})
	}
	if entries == nil {
		entries = []generation.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{
		SubjectID:    view.SubjectID,
		Impersonated: view.Impersonated,
		Entries:      entries,
	})
}

// loadSession returns the caller's session, or an empty one if the cookie
// is missing or cannot be opened.
func (h *Handler) loadSession(r *http.Request) session.Values {
	values, err := h.sessions.Load(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ignoring unreadable session",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	if values == nil {
		values = session.Values{}
	}
	return values
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
