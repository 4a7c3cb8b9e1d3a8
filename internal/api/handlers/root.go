package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/api/middleware"
	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/service"
	"go.uber.org/zap"
)

const (
	loginPath      = "/login"
	onboardingPath = "/onboarding"

	workspaceCookieTTL = 30 * 24 * time.Hour
)

// RootResolver picks the landing page for a session.
type RootResolver interface {
	Resolve(ctx context.Context, sess domain.Session) (*service.Resolution, error)
}

// RootHandler serves the root host for signed-in users. Every failure is
// a redirect.
type RootHandler struct {
	resolver RootResolver
	cookies  CookieConfig
	logger   *zap.Logger
}

func NewRootHandler(resolver RootResolver, cookies CookieConfig, logger *zap.Logger) *RootHandler {
	return &RootHandler{resolver: resolver, cookies: cookies, logger: logger}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if !sess.Valid() {
		sess = middleware.SessionFromRequest(r)
	}

	res, err := h.resolver.Resolve(r.Context(), sess)
	if err != nil {
		target := loginPath
		if errors.Is(err, service.ErrNoWorkspaces) || errors.Is(err, service.ErrNoPages) {
			target = onboardingPath
		}
		h.logger.Warn("root resolution failed",
			zap.String("tenant_id", sess.TenantID),
			zap.String("redirect", target),
			zap.Error(err))
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	setWorkspaceCookie(w, res.WorkspaceID, workspaceCookieTTL, h.cookies)
	http.Redirect(w, r, res.Target, http.StatusFound)
}
