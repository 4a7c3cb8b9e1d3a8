package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
)

const (
	metaTenantID    = "tenantId"
	metaWorkspaceID = "workspaceId"

	envTenantID    = "NEXT_PUBLIC_TENANT_ID"
	envWorkspaceID = "NEXT_PUBLIC_WORKSPACE_ID"

	targetProduction = "production"
)

// deployment covers both the list and the single-deployment payloads; the
// list endpoint reports uid/state/created, the others id/readyState/createdAt.
type deployment struct {
	UID        string            `json:"uid"`
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	State      string            `json:"state"`
	ReadyState string            `json:"readyState"`
	Target     string            `json:"target"`
	Meta       map[string]string `json:"meta"`
	Created    int64             `json:"created"`
	CreatedAt  int64             `json:"createdAt"`
}

func (d deployment) toDomain() domain.Deployment {
	id := d.ID
	if id == "" {
		id = d.UID
	}
	state := d.ReadyState
	if state == "" {
		state = d.State
	}
	created := d.CreatedAt
	if created == 0 {
		created = d.Created
	}
	return domain.Deployment{
		ID:        id,
		URL:       d.URL,
		State:     domain.DeploymentState(state),
		Target:    d.Target,
		Meta:      d.Meta,
		CreatedAt: time.UnixMilli(created).UTC(),
	}
}

type listDeploymentsResponse struct {
	Deployments []deployment `json:"deployments"`
}

// ListDeployments returns the project's deployments tagged with the tenant.
// Order is whatever the provider returns.
func (c *Client) ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]domain.Deployment, error) {
	q := url.Values{}
	q.Set("projectId", c.cfg.ProjectID)
	if filter.Target != "" {
		q.Set("target", filter.Target)
	}
	if filter.State != "" {
		q.Set("state", string(filter.State))
	}
	if filter.TenantID != "" {
		q.Set("meta-"+metaTenantID, filter.TenantID)
	}

	var resp listDeploymentsResponse
	if err := c.do(ctx, "list_deployments", http.MethodGet, "/v6/deployments", q, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Deployment, 0, len(resp.Deployments))
	for _, d := range resp.Deployments {
		out = append(out, d.toDomain())
	}
	return out, nil
}

type createDeploymentRequest struct {
	Name    string            `json:"name"`
	Project string            `json:"project"`
	Target  string            `json:"target"`
	Meta    map[string]string `json:"meta"`
	Env     map[string]string `json:"env"`
}

// CreateDeployment requests a production deployment for the tenant. The
// returned deployment is usually not ready yet.
func (c *Client) CreateDeployment(ctx context.Context, tenantID, workspaceID string) (*domain.Deployment, error) {
	body := createDeploymentRequest{
		Name:    c.cfg.ProjectName,
		Project: c.cfg.ProjectID,
		Target:  targetProduction,
		Meta: map[string]string{
			metaTenantID:    tenantID,
			metaWorkspaceID: workspaceID,
		},
		Env: map[string]string{
			envTenantID:    tenantID,
			envWorkspaceID: workspaceID,
		},
	}

	var resp deployment
	if err := c.do(ctx, "create_deployment", http.MethodPost, "/v13/deployments", nil, body, &resp); err != nil {
		return nil, err
	}
	d := resp.toDomain()
	if d.ID == "" {
		return nil, &Error{Op: "create_deployment", StatusCode: http.StatusOK, Err: fmt.Errorf("response has no deployment id")}
	}
	return &d, nil
}

// GetDeployment reads the current state of one deployment.
func (c *Client) GetDeployment(ctx context.Context, id string) (*domain.Deployment, error) {
	var resp deployment
	if err := c.do(ctx, "get_deployment", http.MethodGet, "/v13/deployments/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	d := resp.toDomain()
	return &d, nil
}
