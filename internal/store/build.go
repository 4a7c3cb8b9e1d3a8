package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BuildStore is the durable build registry, one row per tenant.
type BuildStore struct {
	db *pgxpool.Pool
}

func NewBuildStore(db *pgxpool.Pool) *BuildStore {
	return &BuildStore{db: db}
}

func (s *BuildStore) Get(ctx context.Context, tenantID string) (*domain.TenantBuildInfo, error) {
	b := &domain.TenantBuildInfo{}
	err := s.db.QueryRow(ctx,
		`SELECT tenant_id, workspace_id, deployment_id, build_url, last_updated, active
		 FROM tenant_builds WHERE tenant_id = $1`,
		tenantID,
	).Scan(&b.TenantID, &b.WorkspaceID, &b.DeploymentID, &b.BuildURL, &b.LastUpdated, &b.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Put upserts the tenant's entry. The newer entry always wins.
func (s *BuildStore) Put(ctx context.Context, b *domain.TenantBuildInfo) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenant_builds (tenant_id, workspace_id, deployment_id, build_url, last_updated, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   workspace_id = EXCLUDED.workspace_id,
		   deployment_id = EXCLUDED.deployment_id,
		   build_url = EXCLUDED.build_url,
		   last_updated = EXCLUDED.last_updated,
		   active = EXCLUDED.active`,
		b.TenantID, b.WorkspaceID, b.DeploymentID, b.BuildURL, b.LastUpdated, b.Active,
	)
	return err
}

func (s *BuildStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
