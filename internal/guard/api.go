// Package guard runs the authorization check in front of API endpoints and
// server-rendered views. Guards never decide anything themselves: every
// decision comes from the shared authz checker.
package guard

import (
	"context"
	"log/slog"
	"net/http"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/pkg/platform/httputil"
	"careergate/pkg/requestcontext"
)

// Checker is the authorization entry point.
type Checker interface {
	Check(ctx context.Context, cred identity.Credential, capability authz.Capability) authz.Outcome
}

// API guards an endpoint with capability. The check completes before next is
// invoked; on anything but Authorized next never runs.
func API(checker Checker, capability authz.Capability, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			cred := identity.FromAuthorizationHeader(r.Header.Get("Authorization"))
			out := checker.Check(ctx, cred, capability)

			if !out.IsAuthorized() {
				logDenied(ctx, logger, "unauthorized access", capability, out)
				httputil.WriteError(w, out.Err())
				return
			}

			next.ServeHTTP(w, r.WithContext(authz.WithOutcome(ctx, out)))
		})
	}
}

func logDenied(ctx context.Context, logger *slog.Logger, msg string, capability authz.Capability, out authz.Outcome) {
	attrs := []any{
		"capability", capability,
		"outcome", out.Kind.String(),
		"reason", out.Reason,
		"request_id", requestcontext.RequestID(ctx),
	}
	if out.Kind == authz.KindSystemError {
		logger.ErrorContext(ctx, msg+" - check failed", append(attrs, "error", out.Cause)...)
		return
	}
	logger.WarnContext(ctx, msg+" - "+string(out.Reason), attrs...)
}
