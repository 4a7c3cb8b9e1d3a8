package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrNoSession    = errors.New("no valid session")
	ErrNoWorkspaces = errors.New("user has no workspaces")
	ErrNoPages      = errors.New("workspace has no pages")
)

// homeNames are the page names or slugs treated as a workspace's landing
// page when no page is flagged as home.
var homeNames = []string{"home", "accueil", "index"}

// BuildRequester starts provisioning without waiting for it.
type BuildRequester interface {
	Request(ctx context.Context, tenantID, workspaceID string) domain.ProvisionStatus
}

// Resolution is where a user landing on the root host is sent.
type Resolution struct {
	WorkspaceID string
	Page        domain.Page
	Build       domain.ProvisionStatus
	Target      string
}

// ResolverService picks the landing page for a session on the root host.
type ResolverService struct {
	workspaces domain.WorkspaceClient
	builds     BuildRequester
	logger     *zap.Logger
}

func NewResolverService(workspaces domain.WorkspaceClient, builds BuildRequester, logger *zap.Logger) *ResolverService {
	return &ResolverService{workspaces: workspaces, builds: builds, logger: logger}
}

// Resolve never retries: any failure is returned for the caller to turn
// into a redirect.
func (s *ResolverService) Resolve(ctx context.Context, sess domain.Session) (*Resolution, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}

	workspaces, err := s.workspaces.ListWorkspaces(ctx, sess.Token)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if len(workspaces) == 0 {
		return nil, ErrNoWorkspaces
	}

	ws := pickWorkspace(workspaces, sess.WorkspaceID)

	pages, err := s.workspaces.ListPages(ctx, sess.Token, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	home, ok := findHomePage(pages)
	if !ok {
		return nil, ErrNoPages
	}

	build := s.builds.Request(ctx, sess.TenantID, ws.ID)
	if build.State != domain.ProvisionReady {
		s.logger.Info("tenant build not ready, using shared deployment",
			zap.String("tenant_id", sess.TenantID),
			zap.String("workspace_id", ws.ID),
			zap.String("state", string(build.State)))
	}

	return &Resolution{
		WorkspaceID: ws.ID,
		Page:        home,
		Build:       build,
		Target:      landingURL(build, home, ws.ID),
	}, nil
}

func pickWorkspace(workspaces []domain.Workspace, preferred string) domain.Workspace {
	if preferred != "" {
		for _, ws := range workspaces {
			if ws.ID == preferred {
				return ws
			}
		}
	}
	return workspaces[0]
}

func findHomePage(pages []domain.Page) (domain.Page, bool) {
	if len(pages) == 0 {
		return domain.Page{}, false
	}
	for _, p := range pages {
		if p.IsHome {
			return p, true
		}
	}
	for _, name := range homeNames {
		for _, p := range pages {
			if strings.EqualFold(p.Slug, name) || strings.EqualFold(p.Name, name) {
				return p, true
			}
		}
	}
	return pages[0], true
}

// landingURL points at the tenant build when it is ready and at the shared
// deployment (a relative path) otherwise.
func landingURL(build domain.ProvisionStatus, page domain.Page, workspaceID string) string {
	path := "/" + strings.Trim(page.Slug, "/")
	q := url.Values{"workspaceId": []string{workspaceID}}
	target := path + "?" + q.Encode()
	if build.State == domain.ProvisionReady && build.URL != "" {
		return strings.TrimRight(build.URL, "/") + target
	}
	return target
}
