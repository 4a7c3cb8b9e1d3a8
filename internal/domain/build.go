package domain

import "time"

// TenantBuildInfo is the known deployment of one tenant.
// At most one entry exists per TenantID; a newer build supersedes the old one.
type TenantBuildInfo struct {
	TenantID     string    `json:"tenant_id"`
	WorkspaceID  string    `json:"workspace_id"`
	DeploymentID string    `json:"deployment_id,omitempty"`
	BuildURL     string    `json:"build_url"`
	LastUpdated  time.Time `json:"last_updated"`
	Active       bool      `json:"active"`
}

// Fresh reports whether the entry was confirmed within window of now.
func (b *TenantBuildInfo) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(b.LastUpdated) <= window
}

type ProvisionState string

const (
	ProvisionReady   ProvisionState = "ready"
	ProvisionPending ProvisionState = "pending"
	ProvisionFailed  ProvisionState = "failed"
)

// ProvisionStatus describes where a tenant's build stands from the
// caller's point of view.
type ProvisionStatus struct {
	TenantID string         `json:"tenant_id"`
	State    ProvisionState `json:"state"`
	URL      string         `json:"url,omitempty"`
	Error    string         `json:"error,omitempty"`
}
