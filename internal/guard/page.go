package guard

import (
	"log/slog"
	"net/http"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/internal/session"
	"careergate/pkg/requestcontext"
)

// PageConfig describes where denied page requests are sent.
type PageConfig struct {
	Capability  authz.Capability
	LoginPath   string
	LandingPath string
}

// Page guards a server-rendered view. The credential comes from the session
// cookie. Denials redirect with 303 and nothing of the page is written
// before the check authorizes.
func Page(checker Checker, sessions session.Store, cfg PageConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			values, err := sessions.Load(r)
			if err != nil {
				logger.WarnContext(ctx, "discarding unreadable session",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				sessions.Clear(w)
			}

			token, _ := values.Get(session.KeyAccessToken)
			view := NewView(checker, cfg.Capability, cfg.LoginPath, cfg.LandingPath)
			view.SignIn(identity.FromToken(token))
			snap := view.Activate(ctx)

			switch snap.State {
			case StateAuthorized:
				w.Header().Set("Cache-Control", "no-store")
				ctx = authz.WithOutcome(ctx, snap.Outcome)
				ctx = session.WithValues(ctx, values)
				next.ServeHTTP(w, r.WithContext(ctx))
			case StateDenied:
				logDenied(ctx, logger, "page access denied", cfg.Capability, snap.Outcome)
				http.Redirect(w, r, snap.Redirect, http.StatusSeeOther)
			default:
				// The request context ended before the check did.
				logger.InfoContext(ctx, "page check abandoned",
					"capability", cfg.Capability,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
		})
	}
}
