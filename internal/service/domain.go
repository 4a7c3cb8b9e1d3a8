package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/Harshitk-cp/tenantedge/internal/provider"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	environmentProduction  = "production"
	defaultDomainExistsTTL = 5 * time.Minute
	// Upper bound for one check-and-register, shared by coalesced callers.
	defaultDomainOpTimeout = 20 * time.Second
)

// DomainConfig controls domain registration. It is passed to the service
// once; nothing toggles it at runtime.
type DomainConfig struct {
	BaseDomain  string
	FallbackURL string
	Environment string
	// ForceCreation registers domains outside production.
	ForceCreation bool
	ExistsTTL     time.Duration
}

// DomainService registers tenant subdomains with the provider. Registration
// is best effort: failures come back as an unsuccessful result carrying the
// fallback URL, never as an error.
type DomainService struct {
	client domain.DomainClient
	cfg    DomainConfig
	logger *zap.Logger

	exists *cache.Cache
	group  singleflight.Group
}

func NewDomainService(client domain.DomainClient, cfg DomainConfig, logger *zap.Logger) *DomainService {
	if cfg.ExistsTTL <= 0 {
		cfg.ExistsTTL = defaultDomainExistsTTL
	}
	cfg.BaseDomain = strings.Trim(cfg.BaseDomain, ".")
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = "https://app." + cfg.BaseDomain
	}
	return &DomainService{
		client: client,
		cfg:    cfg,
		logger: logger,
		exists: cache.New(cfg.ExistsTTL, 2*cfg.ExistsTTL),
	}
}

// FallbackURL is the generic URL returned when no tenant domain is usable.
func (s *DomainService) FallbackURL() string {
	return s.cfg.FallbackURL
}

// DomainFor returns the fully-qualified tenant domain for a workspace.
func (s *DomainService) DomainFor(workspaceName, tenantID string) string {
	return NormalizeSubdomain(workspaceName, tenantID) + "." + s.cfg.BaseDomain
}

// RegisterTenantDomain ensures the tenant's subdomain is attached to the
// project. Repeating the call with the same inputs is safe.
func (s *DomainService) RegisterTenantDomain(ctx context.Context, workspaceName, tenantID string, forceCreation bool) domain.TenantDomainResult {
	if strings.TrimSpace(workspaceName) == "" || strings.TrimSpace(tenantID) == "" {
		return s.fallback("workspaceName and tenantId are required")
	}

	fqdn := s.DomainFor(workspaceName, tenantID)
	url := "https://" + fqdn
	log := s.logger.With(
		zap.String("tenant_id", tenantID),
		zap.String("workspace_name", workspaceName),
		zap.String("domain", fqdn))

	if !forceCreation && !s.cfg.ForceCreation && s.cfg.Environment != environmentProduction {
		log.Debug("domain registration skipped", zap.String("environment", s.cfg.Environment))
		return domain.TenantDomainResult{
			URL:     s.cfg.FallbackURL,
			Success: true,
			Message: "domain registration skipped outside production",
		}
	}

	if _, ok := s.exists.Get(fqdn); ok {
		return domain.TenantDomainResult{URL: url, Success: true, Message: "domain already registered"}
	}

	v, err, _ := s.group.Do(fqdn, func() (any, error) {
		opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultDomainOpTimeout)
		defer cancel()
		return s.ensure(opCtx, fqdn)
	})
	if err != nil {
		status := provider.StatusCode(err)
		log.Warn("tenant domain registration failed", zap.Int("status", status), zap.Error(err))
		return s.fallback(diagnostic(err))
	}

	s.exists.Set(fqdn, struct{}{}, cache.DefaultExpiration)
	msg := "domain registered"
	if existed := v.(bool); existed {
		msg = "domain already registered"
	}
	log.Info(msg)
	return domain.TenantDomainResult{URL: url, Success: true, Message: msg}
}

// ensure returns whether the domain already existed.
func (s *DomainService) ensure(ctx context.Context, fqdn string) (bool, error) {
	found, err := s.client.GetDomain(ctx, fqdn)
	if err != nil {
		return false, &stepError{step: "domain check", err: err}
	}
	if found {
		return true, nil
	}
	if err := s.client.AddDomain(ctx, fqdn); err != nil {
		return false, &stepError{step: "domain registration", err: err}
	}
	return false, nil
}

func (s *DomainService) fallback(msg string) domain.TenantDomainResult {
	return domain.TenantDomainResult{URL: s.cfg.FallbackURL, Success: false, Message: msg}
}

type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// diagnostic describes a failure without the provider's response body.
func diagnostic(err error) string {
	step := "domain registration"
	var se *stepError
	if errors.As(err, &se) {
		step = se.step
	}
	switch {
	case errors.Is(err, provider.ErrTimeout):
		return step + " failed: provider timed out"
	case errors.Is(err, context.Canceled):
		return step + " failed: request canceled"
	}
	if status := provider.StatusCode(err); status != 0 {
		return fmt.Sprintf("%s failed: provider returned status %d", step, status)
	}
	return step + " failed: provider unreachable"
}
