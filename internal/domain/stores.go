package domain

import "context"

// BuildRegistry maps tenant id to the tenant's known build.
type BuildRegistry interface {
	Get(ctx context.Context, tenantID string) (*TenantBuildInfo, error)
	Put(ctx context.Context, info *TenantBuildInfo) error
}

// DeploymentClient is the deployment provider as seen by the build service.
type DeploymentClient interface {
	ListDeployments(ctx context.Context, filter DeploymentFilter) ([]Deployment, error)
	CreateDeployment(ctx context.Context, tenantID, workspaceID string) (*Deployment, error)
	GetDeployment(ctx context.Context, id string) (*Deployment, error)
}

// DomainClient is the domain side of the provider API.
type DomainClient interface {
	GetDomain(ctx context.Context, name string) (bool, error)
	AddDomain(ctx context.Context, name string) error
}

// WorkspaceClient reads workspaces and pages from the platform backend on
// behalf of the session holder.
type WorkspaceClient interface {
	ListWorkspaces(ctx context.Context, sessionToken string) ([]Workspace, error)
	ListPages(ctx context.Context, sessionToken, workspaceID string) ([]Page, error)
}
