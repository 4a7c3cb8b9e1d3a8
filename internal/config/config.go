package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by TENANTEDGE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TENANTEDGE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// MissingError reports required configuration keys that are not set.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

// Require returns a *MissingError naming every key whose value is empty.
// The argument list alternates key, value.
func Require(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// Validate checks the keys the server cannot start without.
func Validate() error {
	return Require(
		"PROVIDER_TOKEN", ProviderToken(),
		"PROVIDER_PROJECT_ID", ProviderProjectID(),
		"BASE_DOMAIN", BaseDomain(),
		"ROOT_HOST", RootHost(),
	)
}

func ServerPort() int {
	return getEnvInt("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. When empty the build registry is kept in memory.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	return getEnv("MIGRATIONS_PATH", "migrations")
}

// Environment returns the deployment environment name.
// Defaults to "development" if not set.
func Environment() string {
	return getEnv("APP_ENV", "development")
}

func ProviderAPIURL() string {
	return strings.TrimRight(getEnv("PROVIDER_API_URL", "https://api.vercel.com"), "/")
}

func ProviderToken() string {
	return os.Getenv("PROVIDER_TOKEN")
}

func ProviderTeamID() string {
	return os.Getenv("PROVIDER_TEAM_ID")
}

func ProviderProjectID() string {
	return os.Getenv("PROVIDER_PROJECT_ID")
}

// ProviderProjectName is the deployment name sent on creation.
// Defaults to the project id.
func ProviderProjectName() string {
	return getEnv("PROVIDER_PROJECT_NAME", ProviderProjectID())
}

// ProviderTimeout bounds every call to the deployment provider.
func ProviderTimeout() time.Duration {
	return getEnvDuration("PROVIDER_TIMEOUT", 8*time.Second)
}

// ProviderRPS limits outbound provider requests per second.
func ProviderRPS() float64 {
	return getEnvFloat("PROVIDER_RPS", 5)
}

func ProviderBurst() int {
	return getEnvInt("PROVIDER_BURST", 10)
}

// BaseDomain is the suffix appended to tenant subdomains, e.g. "example.app".
func BaseDomain() string {
	return strings.Trim(os.Getenv("BASE_DOMAIN"), ".")
}

// RootHost is the shared top-level host users log in on.
func RootHost() string {
	return strings.ToLower(os.Getenv("ROOT_HOST"))
}

// FallbackURL is the generic, non-tenant-specific URL.
// Defaults to https://app.<BASE_DOMAIN>.
func FallbackURL() string {
	if v := os.Getenv("FALLBACK_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "https://app." + BaseDomain()
}

// ForceDomainCreation registers tenant domains outside production.
func ForceDomainCreation() bool {
	return getEnvBool("FORCE_DOMAIN_CREATION", false)
}

func BackendAPIURL() string {
	return strings.TrimRight(getEnv("BACKEND_API_URL", "http://localhost:3001/api"), "/")
}

func BackendTimeout() time.Duration {
	return getEnvDuration("BACKEND_TIMEOUT", 5*time.Second)
}

// BuildFreshness is how long an active build entry is trusted without
// asking the provider again.
func BuildFreshness() time.Duration {
	return getEnvDuration("BUILD_FRESHNESS", 10*time.Minute)
}

func DomainCacheTTL() time.Duration {
	return getEnvDuration("DOMAIN_CACHE_TTL", 5*time.Minute)
}

func ProvisionWorkers() int {
	return getEnvInt("PROVISION_WORKERS", 4)
}

func ProvisionQueueSize() int {
	return getEnvInt("PROVISION_QUEUE_SIZE", 256)
}

func ProvisionMaxAttempts() int {
	return getEnvInt("PROVISION_MAX_ATTEMPTS", 3)
}

// SecureCookies marks cookies written by the service as Secure.
// Defaults to true in production.
func SecureCookies() bool {
	return getEnvBool("SECURE_COOKIES", Environment() == "production")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	return getEnvFloat("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return getEnvInt("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
