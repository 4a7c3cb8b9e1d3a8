package domain

import (
	"testing"
	"time"
)

func TestDeploymentState(t *testing.T) {
	tests := []struct {
		name       string
		state      DeploymentState
		ready      bool
		inProgress bool
	}{
		{"queued", DeploymentQueued, false, true},
		{"initializing", DeploymentInitializing, false, true},
		{"building", DeploymentBuilding, false, true},
		{"ready", DeploymentReady, true, false},
		{"error", DeploymentError, false, false},
		{"canceled", DeploymentCanceled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deployment{State: tt.state}
			if d.Ready() != tt.ready {
				t.Errorf("Ready() = %v, want %v", d.Ready(), tt.ready)
			}
			if d.InProgress() != tt.inProgress {
				t.Errorf("InProgress() = %v, want %v", d.InProgress(), tt.inProgress)
			}
		})
	}
}

func TestDeploymentHTTPSURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"", ""},
		{"acme-abc.vercel.app", "https://acme-abc.vercel.app"},
		{"https://acme.example.app", "https://acme.example.app"},
		{"http://localhost:3000", "http://localhost:3000"},
	}

	for _, tt := range tests {
		d := Deployment{URL: tt.url}
		if got := d.HTTPSURL(); got != tt.want {
			t.Errorf("HTTPSURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestTenantBuildInfoFresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := TenantBuildInfo{LastUpdated: now.Add(-5 * time.Minute)}

	if !b.Fresh(now, 10*time.Minute) {
		t.Error("entry confirmed 5m ago should be fresh in a 10m window")
	}
	if b.Fresh(now, time.Minute) {
		t.Error("entry confirmed 5m ago should be stale in a 1m window")
	}
}

func TestSessionValid(t *testing.T) {
	if (Session{Token: "t"}).Valid() {
		t.Error("session without tenant should be invalid")
	}
	if (Session{TenantID: "x"}).Valid() {
		t.Error("session without token should be invalid")
	}
	if !(Session{Token: "t", TenantID: "x"}).Valid() {
		t.Error("session with token and tenant should be valid")
	}
}
