package buildconfig

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// UserAgent is sent on every outbound request to the deployment provider
// and the backend API.
func UserAgent() string {
	return "tenantedge/" + version + " (" + commit + ")"
}

// VersionInfo returns the version fields reported by /health.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
