package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/benbjohnson/clock"
)

// DomainRegistrar registers tenant subdomains.
type DomainRegistrar interface {
	RegisterTenantDomain(ctx context.Context, workspaceName, tenantID string, forceCreation bool) domain.TenantDomainResult
}

type DomainHandler struct {
	svc   DomainRegistrar
	clock clock.Clock
}

func NewDomainHandler(svc DomainRegistrar, clk clock.Clock) *DomainHandler {
	if clk == nil {
		clk = clock.New()
	}
	return &DomainHandler{svc: svc, clock: clk}
}

type domainCheckRequest struct {
	WorkspaceName string `json:"workspaceName"`
	TenantID      string `json:"tenantId"`
}

type domainCheckResponse struct {
	Success    bool   `json:"success"`
	URL        string `json:"url"`
	Message    string `json:"message"`
	ServerTime string `json:"serverTime"`
}

// Check registers the tenant's subdomain. Provider failures come back as a
// 200 with success=false and a fallback URL.
func (h *DomainHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req domainCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	res := h.svc.RegisterTenantDomain(r.Context(), req.WorkspaceName, req.TenantID, force)

	writeJSON(w, http.StatusOK, domainCheckResponse{
		Success:    res.Success,
		URL:        res.URL,
		Message:    res.Message,
		ServerTime: h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// CanonicalRedirect sends the trailing-slash variant to the canonical path.
// 308 keeps the method and body.
func (h *DomainHandler) CanonicalRedirect(w http.ResponseWriter, r *http.Request) {
	target := "/api/domain/check"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}
