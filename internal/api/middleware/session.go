package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Cookie names shared with the frontend. Values are opaque.
const (
	SessionCookie      = "session_token"
	TenantCookie       = "tenantId"
	LegacyTenantCookie = "tenant_id"
	WorkspaceCookie    = "workspaceId"
)

// SessionFromRequest reads the session cookies. The tenant id is taken
// from tenantId, falling back to the legacy tenant_id.
func SessionFromRequest(r *http.Request) domain.Session {
	tenantID := cookieValue(r, TenantCookie)
	if tenantID == "" {
		tenantID = cookieValue(r, LegacyTenantCookie)
	}
	return domain.Session{
		Token:       cookieValue(r, SessionCookie),
		TenantID:    tenantID,
		WorkspaceID: cookieValue(r, WorkspaceCookie),
	}
}

// SessionFromContext returns the session stored by the edge layer, or the
// zero Session.
func SessionFromContext(ctx context.Context) domain.Session {
	s, _ := ctx.Value(sessionContextKey).(domain.Session)
	return s
}

// RequireTenantSession rejects requests without a valid session (401) and
// requests whose URL tenant, read from the chi param, is not the session's
// tenant (403).
func RequireTenantSession(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromRequest(r)
			if !sess.Valid() {
				writeError(w, http.StatusUnauthorized, "session required")
				return
			}
			if chi.URLParam(r, param) != sess.TenantID {
				writeError(w, http.StatusForbidden, "tenant does not match session")
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
		})
	}
}

func withSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
