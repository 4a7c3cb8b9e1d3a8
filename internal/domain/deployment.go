package domain

import (
	"strings"
	"time"
)

type DeploymentState string

const (
	DeploymentQueued       DeploymentState = "QUEUED"
	DeploymentInitializing DeploymentState = "INITIALIZING"
	DeploymentBuilding     DeploymentState = "BUILDING"
	DeploymentReady        DeploymentState = "READY"
	DeploymentError        DeploymentState = "ERROR"
	DeploymentCanceled     DeploymentState = "CANCELED"
)

// Deployment is one deployment as reported by the provider.
type Deployment struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	State     DeploymentState   `json:"state"`
	Target    string            `json:"target"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (d *Deployment) Ready() bool {
	return d.State == DeploymentReady
}

// InProgress reports whether the provider is still working on the build.
func (d *Deployment) InProgress() bool {
	switch d.State {
	case DeploymentQueued, DeploymentInitializing, DeploymentBuilding:
		return true
	}
	return false
}

// HTTPSURL returns the deployment URL with an https scheme. The provider
// reports bare hostnames.
func (d *Deployment) HTTPSURL() string {
	if d.URL == "" {
		return ""
	}
	if strings.HasPrefix(d.URL, "https://") || strings.HasPrefix(d.URL, "http://") {
		return d.URL
	}
	return "https://" + d.URL
}

// DeploymentFilter selects deployments tagged with a tenant.
type DeploymentFilter struct {
	TenantID string
	Target   string
	State    DeploymentState
}
