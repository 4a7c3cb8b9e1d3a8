package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/Harshitk-cp/tenantedge/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/workspaces":
			_, _ = w.Write([]byte(`{"data":[{"id":"w1","name":"Main"}]}`))
		case "/workspaces/w1/pages":
			_, _ = w.Write([]byte(`{"data":[{"id":"p1","name":"Home","slug":"home"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	t.Setenv("APP_ENV", "development")
	t.Setenv("PROVIDER_API_URL", "http://127.0.0.1:1")
	t.Setenv("PROVIDER_TOKEN", "tok")
	t.Setenv("PROVIDER_PROJECT_ID", "prj_1")
	t.Setenv("BASE_DOMAIN", "example.app")
	t.Setenv("ROOT_HOST", "app.example.app")
	t.Setenv("BACKEND_API_URL", backend.URL)

	app, err := NewApp(nil, zap.NewNop())
	require.NoError(t, err)
	return app
}

func serve(app *App, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, r)
	return rec
}

func TestNewApp_RequiresProviderConfig(t *testing.T) {
	t.Setenv("PROVIDER_TOKEN", "")
	t.Setenv("PROVIDER_PROJECT_ID", "")

	_, err := NewApp(nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_TOKEN")
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(mw.RequestIDHeader))
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t)
	serve(app, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "tenantedge_http_requests_total")
}

func TestRouter_PagesRequireSession(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "http://app.example.app/", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?callbackUrl=%2F", rec.Header().Get("Location"))
}

func TestRouter_RootHostResolvesLanding(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest(http.MethodGet, "http://app.example.app/", nil)
	r.AddCookie(&http.Cookie{Name: mw.SessionCookie, Value: "sess"})
	r.AddCookie(&http.Cookie{Name: mw.TenantCookie, Value: "t1"})
	rec := serve(app, r)

	// Provisioner is not started, so the build stays pending and the user
	// lands on the shared deployment.
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home?workspaceId=w1", rec.Header().Get("Location"))

	st, err := app.Provisioner.Status(r.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "pending", string(st.State))
}

func TestRouter_DomainCheck(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/api/domain/check",
		strings.NewReader(`{"workspaceName":"Acme","tenantId":"abcdef123456"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"url":"https://app.example.app"`)

	rec = serve(app, httptest.NewRequest(http.MethodPost, "/api/domain/check/", nil))
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/api/domain/check", rec.Header().Get("Location"))
}

func TestRouter_Logout(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 4)
}

func withSession(r *http.Request, tenantID string) *http.Request {
	r.AddCookie(&http.Cookie{Name: mw.SessionCookie, Value: "sess"})
	r.AddCookie(&http.Cookie{Name: mw.TenantCookie, Value: tenantID})
	return r
}

func TestRouter_BuildsRequireTenantSession(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		method   string
		tenant   string
		wantCode int
	}{
		{"status without session", http.MethodGet, "", http.StatusUnauthorized},
		{"request without session", http.MethodPost, "", http.StatusUnauthorized},
		{"status for other tenant", http.MethodGet, "t2", http.StatusForbidden},
		{"request for other tenant", http.MethodPost, "t2", http.StatusForbidden},
		{"status for own tenant", http.MethodGet, "t1", http.StatusNotFound},
		{"request for own tenant", http.MethodPost, "t1", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/builds/t1", strings.NewReader(`{"workspaceId":"w1"}`))
			if tt.tenant != "" {
				withSession(r, tt.tenant)
			}
			rec := serve(app, r)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	// Rejected requests never reach the provisioner.
	_, err := app.Provisioner.Status(context.Background(), "t1")
	require.NoError(t, err, "own-tenant request was queued")
	st, _ := app.Provisioner.Status(context.Background(), "t2")
	assert.Empty(t, st.State)
}

func TestApp_StartStop(t *testing.T) {
	app := newTestApp(t)
	app.Start()
	app.Stop()
}
