package handlers

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/api/middleware"
)

// CookieConfig holds cookie attributes shared by every session cookie.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionCookies are cleared on logout. tenant_id is the legacy name.
var sessionCookies = []string{
	middleware.SessionCookie,
	middleware.TenantCookie,
	middleware.LegacyTenantCookie,
	middleware.WorkspaceCookie,
}

func setWorkspaceCookie(w http.ResponseWriter, workspaceID string, ttl time.Duration, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.WorkspaceCookie,
		Value:    workspaceID,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

func clearSessionCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range sessionCookies {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     cfg.Path,
			Domain:   cfg.Domain,
			MaxAge:   -1,
			HttpOnly: name == middleware.SessionCookie,
			Secure:   cfg.Secure,
			SameSite: cfg.SameSite,
		})
	}
}
