package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/store"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBuildFreshness = 10 * time.Minute
	// Upper bound for one get-or-create, shared by every coalesced caller.
	defaultBuildOpTimeout = 45 * time.Second

	targetProduction = "production"
)

var (
	ErrTenantRequired  = errors.New("tenant id is required")
	ErrNoDeploymentURL = errors.New("provider returned a deployment without a url")
)

// BuildService returns a reachable build URL for a tenant, creating a
// deployment when none exists. Calls for the same tenant are coalesced so
// only one lookup-or-create runs at a time per tenant.
type BuildService struct {
	registry domain.BuildRegistry
	client   domain.DeploymentClient
	logger   *zap.Logger

	clock     clock.Clock
	freshness time.Duration
	opTimeout time.Duration

	group singleflight.Group
}

func NewBuildService(registry domain.BuildRegistry, client domain.DeploymentClient, logger *zap.Logger) *BuildService {
	return &BuildService{
		registry:  registry,
		client:    client,
		logger:    logger,
		clock:     clock.New(),
		freshness: defaultBuildFreshness,
		opTimeout: defaultBuildOpTimeout,
	}
}

func (s *BuildService) SetClock(c clock.Clock) {
	s.clock = c
}

// SetFreshness sets how long an active entry is trusted before it is
// re-validated with the provider.
func (s *BuildService) SetFreshness(d time.Duration) {
	if d > 0 {
		s.freshness = d
	}
}

// GetOrCreateBuildURL returns the tenant's build URL. The URL may point at
// a deployment that is still building. Failures are returned as is; no
// retry happens here.
func (s *BuildService) GetOrCreateBuildURL(ctx context.Context, tenantID, workspaceID string) (string, error) {
	if tenantID == "" {
		return "", ErrTenantRequired
	}

	ch := s.group.DoChan(tenantID, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the callers sharing this flight.
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opTimeout)
		defer cancel()
		return s.getOrCreate(opCtx, tenantID, workspaceID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *BuildService) getOrCreate(ctx context.Context, tenantID, workspaceID string) (string, error) {
	log := s.logger.With(zap.String("tenant_id", tenantID), zap.String("workspace_id", workspaceID))

	info, err := s.registry.Get(ctx, tenantID)
	switch {
	case err == nil:
		if url, ok := s.fromRegistry(ctx, info, log); ok {
			return url, nil
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		log.Warn("build registry lookup failed", zap.Error(err))
	}

	deployments, err := s.client.ListDeployments(ctx, domain.DeploymentFilter{
		TenantID: tenantID,
		Target:   targetProduction,
		State:    domain.DeploymentReady,
	})
	if err != nil {
		return "", fmt.Errorf("list deployments: %w", err)
	}

	if latest := newestReady(deployments, tenantID); latest != nil {
		url := latest.HTTPSURL()
		s.store(ctx, &domain.TenantBuildInfo{
			TenantID:     tenantID,
			WorkspaceID:  workspaceID,
			DeploymentID: latest.ID,
			BuildURL:     url,
			LastUpdated:  s.clock.Now(),
			Active:       true,
		}, log)
		log.Info("found existing deployment", zap.String("deployment_id", latest.ID))
		return url, nil
	}

	d, err := s.client.CreateDeployment(ctx, tenantID, workspaceID)
	if err != nil {
		return "", fmt.Errorf("create deployment: %w", err)
	}
	url := d.HTTPSURL()
	if url == "" {
		return "", ErrNoDeploymentURL
	}

	s.store(ctx, &domain.TenantBuildInfo{
		TenantID:     tenantID,
		WorkspaceID:  workspaceID,
		DeploymentID: d.ID,
		BuildURL:     url,
		LastUpdated:  s.clock.Now(),
		Active:       d.Ready(),
	}, log)
	log.Info("created deployment",
		zap.String("deployment_id", d.ID),
		zap.String("state", string(d.State)))
	return url, nil
}

// fromRegistry answers from a stored entry when it can. Active entries
// inside the freshness window are returned without a provider call; other
// entries with a known deployment are checked against the provider so a
// build that is still running is not created twice.
func (s *BuildService) fromRegistry(ctx context.Context, info *domain.TenantBuildInfo, log *zap.Logger) (string, bool) {
	now := s.clock.Now()
	if info.Active && info.Fresh(now, s.freshness) {
		return info.BuildURL, true
	}
	if info.DeploymentID == "" {
		return "", false
	}

	d, err := s.client.GetDeployment(ctx, info.DeploymentID)
	if err != nil {
		log.Warn("deployment state check failed",
			zap.String("deployment_id", info.DeploymentID),
			zap.Error(err))
		return "", false
	}

	switch {
	case d.Ready():
		info.Active = true
		info.LastUpdated = now
		if u := d.HTTPSURL(); u != "" {
			info.BuildURL = u
		}
		s.store(ctx, info, log)
		return info.BuildURL, true
	case d.InProgress():
		if info.Active {
			// A previously ready deployment that is rebuilding is no longer
			// confirmed; fall back to the provider's ready list.
			return "", false
		}
		return info.BuildURL, true
	default:
		log.Info("stored deployment is no longer usable",
			zap.String("deployment_id", info.DeploymentID),
			zap.String("state", string(d.State)))
		return "", false
	}
}

func (s *BuildService) store(ctx context.Context, info *domain.TenantBuildInfo, log *zap.Logger) {
	if err := s.registry.Put(ctx, info); err != nil {
		log.Error("failed to store build info", zap.Error(err))
	}
}

// newestReady picks the most recently created ready deployment that belongs
// to the tenant.
func newestReady(deployments []domain.Deployment, tenantID string) *domain.Deployment {
	var candidates []domain.Deployment
	for _, d := range deployments {
		if !d.Ready() || d.URL == "" {
			continue
		}
		if tid, ok := d.Meta["tenantId"]; ok && tid != tenantID {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return nil
	}
	slices.SortFunc(candidates, func(a, b domain.Deployment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return &candidates[0]
}
