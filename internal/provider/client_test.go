package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Harshitk-cp/tenantedge/internal/config"
	"github.com/Harshitk-cp/tenantedge/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	m := NewMetrics()
	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		Token:       "tok",
		TeamID:      "team_1",
		ProjectID:   "prj_1",
		ProjectName: "sites",
		Timeout:     time.Second,
	}, m)
	require.NoError(t, err)
	return c, m
}

func TestNewClient_MissingConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://x"}, nil)
	require.Error(t, err)

	var missing *config.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"PROVIDER_TOKEN", "PROVIDER_PROJECT_ID"}, missing.Keys)
}

func TestListDeployments_SendsFilter(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v6/deployments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "prj_1", q.Get("projectId"))
		assert.Equal(t, "team_1", q.Get("teamId"))
		assert.Equal(t, "production", q.Get("target"))
		assert.Equal(t, "READY", q.Get("state"))
		assert.Equal(t, "tenant-1", q.Get("meta-tenantId"))

		_, _ = w.Write([]byte(`{"deployments":[
			{"uid":"dpl_old","url":"old.vercel.app","state":"READY","target":"production","created":1700000000000},
			{"uid":"dpl_new","url":"new.vercel.app","state":"READY","target":"production","created":1700000500000,"meta":{"tenantId":"tenant-1"}}
		]}`))
	})

	got, err := c.ListDeployments(context.Background(), domain.DeploymentFilter{
		TenantID: "tenant-1",
		Target:   "production",
		State:    domain.DeploymentReady,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dpl_new", got[1].ID)
	assert.Equal(t, domain.DeploymentReady, got[1].State)
	assert.Equal(t, time.UnixMilli(1700000500000).UTC(), got[1].CreatedAt)
	assert.Equal(t, "tenant-1", got[1].Meta["tenantId"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("list_deployments", "success")))
}

func TestCreateDeployment_TagsTenant(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v13/deployments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body createDeploymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sites", body.Name)
		assert.Equal(t, "prj_1", body.Project)
		assert.Equal(t, "production", body.Target)
		assert.Equal(t, map[string]string{"tenantId": "t1", "workspaceId": "w1"}, body.Meta)
		assert.Equal(t, "t1", body.Env["NEXT_PUBLIC_TENANT_ID"])
		assert.Equal(t, "w1", body.Env["NEXT_PUBLIC_WORKSPACE_ID"])

		_, _ = w.Write([]byte(`{"id":"dpl_1","url":"sites-abc.vercel.app","readyState":"QUEUED","createdAt":1700000000000}`))
	})

	d, err := c.CreateDeployment(context.Background(), "t1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "dpl_1", d.ID)
	assert.Equal(t, domain.DeploymentQueued, d.State)
	assert.False(t, d.Ready())
	assert.Equal(t, "https://sites-abc.vercel.app", d.HTTPSURL())
}

func TestCreateDeployment_MissingID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.CreateDeployment(context.Background(), "t1", "w1")
	require.Error(t, err)
}

func TestGetDeployment(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v13/deployments/dpl_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"dpl_1","url":"sites-abc.vercel.app","readyState":"READY"}`))
	})

	d, err := c.GetDeployment(context.Background(), "dpl_1")
	require.NoError(t, err)
	assert.True(t, d.Ready())
}

func TestProviderError_PreservesStatus(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"rate_limited","message":"slow down"}}`))
	})

	_, err := c.GetDeployment(context.Background(), "dpl_1")
	require.Error(t, err)

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Equal(t, "rate_limited", pe.Code)
	assert.Equal(t, 7*time.Second, pe.RetryAfter)
	assert.True(t, pe.RateLimited())
	assert.True(t, Temporary(err))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.NotContains(t, err.Error(), "slow down")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("get_deployment", "error")))
}

func TestProviderError_NotTemporaryOnClientError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListDeployments(context.Background(), domain.DeploymentFilter{})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.False(t, Temporary(err))
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)
	c.cfg.Timeout = 50 * time.Millisecond

	_, err := c.GetDeployment(context.Background(), "dpl_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("get_deployment", "timeout")))
}

func TestCallerCancellation(t *testing.T) {
	block := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.GetDeployment(ctx, "dpl_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestGetDomain(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v9/projects/prj_1/domains/acme-abc.example.app":
			_, _ = w.Write([]byte(`{"name":"acme-abc.example.app"}`))
		case "/v9/projects/prj_1/domains/missing.example.app":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	ok, err := c.GetDomain(context.Background(), "acme-abc.example.app")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.GetDomain(context.Background(), "missing.example.app")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.GetDomain(context.Background(), "broken.example.app")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestAddDomain(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"created", http.StatusOK, `{"name":"a.example.app"}`, false},
		{"already attached", http.StatusConflict, `{"error":{"code":"domain_already_exists"}}`, false},
		{"owned elsewhere", http.StatusConflict, `{"error":{"code":"domain_already_in_use"}}`, true},
		{"server error", http.StatusBadGateway, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v10/projects/prj_1/domains", r.URL.Path)
				var body addDomainRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "a.example.app", body.Name)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.AddDomain(context.Background(), "a.example.app")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
