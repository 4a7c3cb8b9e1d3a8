package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildTracker starts and reports tenant build provisioning.
type BuildTracker interface {
	Request(ctx context.Context, tenantID, workspaceID string) domain.ProvisionStatus
	Status(ctx context.Context, tenantID string) (domain.ProvisionStatus, error)
}

type BuildHandler struct {
	builds BuildTracker
	logger *zap.Logger
}

func NewBuildHandler(builds BuildTracker, logger *zap.Logger) *BuildHandler {
	return &BuildHandler{builds: builds, logger: logger}
}

func (h *BuildHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	st, err := h.builds.Status(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, service.ErrBuildNotFound) {
			writeError(w, http.StatusNotFound, "no build for tenant")
			return
		}
		h.logger.Error("build status failed", zap.String("tenant_id", tenantID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read build status")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type buildRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

// Request queues provisioning. The body is optional.
func (h *BuildHandler) Request(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st := h.builds.Request(r.Context(), tenantID, req.WorkspaceID)
	switch st.State {
	case domain.ProvisionReady:
		writeJSON(w, http.StatusOK, st)
	case domain.ProvisionFailed:
		writeJSON(w, http.StatusServiceUnavailable, st)
	default:
		writeJSON(w, http.StatusAccepted, st)
	}
}
