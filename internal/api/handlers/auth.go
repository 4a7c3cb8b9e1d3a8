package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/tenantedge/internal/api/middleware"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cookies CookieConfig
	logger  *zap.Logger
}

func NewAuthHandler(cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cookies: cookies, logger: logger}
}

// Logout clears the session cookies. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)
	clearSessionCookies(w, h.cookies)
	h.logger.Info("session cleared", zap.String("tenant_id", sess.TenantID))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
