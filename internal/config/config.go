package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Calendar
	Timezone          string         // IANA name of the business timezone (ex: "America/New_York")
	Location          *time.Location // resolved from Timezone
	TimelineStartHour int            // first hour of the day timeline (default: 7)
	ShowArchived      bool           // default of the archive filter

	// Catalog
	CatalogFile           string        // path to the catalog yaml (services, add-ons, employees)
	CatalogReloadInterval time.Duration // interval to reload the catalog (default: 1h, 0 = manual only)

	// Bookings
	RealtimeMode      string        // "refetch" (default) | "apply"
	RefreshInterval   time.Duration // periodic full refetch (default: 0 = disabled)
	RollbackOnFailure bool          // restore local state when a remote write fails
	RemoteTimeout     time.Duration // bound of a fire-and-forget remote write (ex: 10s)

	// Side effects
	OutboxInterval    time.Duration // interval between outbox batches (default: 5s)
	OutboxMaxAttempts int           // attempts before dead-lettering (default: 8)
	OutboxBaseBackoff time.Duration // first retry delay, doubled per attempt (default: 10s)
	OutboxMaxBackoff  time.Duration // retry delay ceiling (default: 30m)
	OutboxBatchSize   int           // side effects per batch (default: 50)
	ReminderInterval  time.Duration // interval between reminder scans (default: 1h)
	NotificationLimit int           // notifications kept in memory (default: 100)

	// Customers (optional)
	DatabaseURL string // postgres DSN, empty = customer directory runs on its cache only

	// Actor identity (optional)
	JWTSecret string // HS256 secret, empty = every request acts as the system admin

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access restrictions
	AllowedHosts      []string // optional, restrict access to specific Host headers
	AllowedCIDRS      []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy        bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins       []string // optional, origins allowed to call the API ("*" = any)
	RateLimitBurst    int      // write requests allowed in a burst per IP
	RateLimitPerMin   int      // write requests refilled per IP per minute
	RateLimitMaxIPs   int      // tracked IPs before an early sweep
	RateLimitIdleTTL  time.Duration
	RateLimitDisabled bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is loaded first without overriding
// variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] failed to load .env: %v", err)
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("DETAILCAL_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DETAILCAL_SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  mustDuration("DETAILCAL_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("DETAILCAL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DETAILCAL_PRETTY_LOG", true),

		// Calendar
		Timezone:          getenv("DETAILCAL_TIMEZONE", "Local"),
		TimelineStartHour: getenvInt("DETAILCAL_TIMELINE_START_HOUR", 7),
		ShowArchived:      mustBool("DETAILCAL_SHOW_ARCHIVED", false),

		// Catalog
		CatalogFile:           getenv("DETAILCAL_CATALOG_FILE", "/app/catalog.yaml"),
		CatalogReloadInterval: mustDuration("DETAILCAL_CATALOG_RELOAD_INTERVAL", time.Hour),

		// Bookings
		RealtimeMode:      strings.ToLower(getenv("DETAILCAL_REALTIME_MODE", "refetch")),
		RefreshInterval:   mustDuration("DETAILCAL_REFRESH_INTERVAL", 0),
		RollbackOnFailure: mustBool("DETAILCAL_ROLLBACK_ON_FAILURE", false),
		RemoteTimeout:     mustDuration("DETAILCAL_REMOTE_TIMEOUT", 10*time.Second),

		// Side effects
		OutboxInterval:    mustDuration("DETAILCAL_OUTBOX_INTERVAL", 5*time.Second),
		OutboxMaxAttempts: getenvInt("DETAILCAL_OUTBOX_MAX_ATTEMPTS", 8),
		OutboxBaseBackoff: mustDuration("DETAILCAL_OUTBOX_BASE_BACKOFF", 10*time.Second),
		OutboxMaxBackoff:  mustDuration("DETAILCAL_OUTBOX_MAX_BACKOFF", 30*time.Minute),
		OutboxBatchSize:   getenvInt("DETAILCAL_OUTBOX_BATCH_SIZE", 50),
		ReminderInterval:  mustDuration("DETAILCAL_REMINDER_INTERVAL", time.Hour),
		NotificationLimit: getenvInt("DETAILCAL_NOTIFICATION_LIMIT", 100),

		// Optional collaborators
		DatabaseURL: getenv("DETAILCAL_DATABASE_URL", ""),
		JWTSecret:   getenv("DETAILCAL_JWT_SECRET", ""),

		// Redis settings
		RedisAddr:             requireEnv("DETAILCAL_REDIS_ADDR"),
		RedisUser:             getenv("DETAILCAL_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("DETAILCAL_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("DETAILCAL_REDIS_PASSWORD", ""),
		RedisDB:               requireEnvInt("DETAILCAL_REDIS_DB"),
		RedisDT:               mustDuration("DETAILCAL_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("DETAILCAL_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("DETAILCAL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("DETAILCAL_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("DETAILCAL_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("DETAILCAL_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("DETAILCAL_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("DETAILCAL_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("DETAILCAL_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:      splitAndTrim(getenv("DETAILCAL_ALLOWED_HOSTS", "")),
		AllowedCIDRS:      parseAllowedIPs(getenv("DETAILCAL_ALLOWED_CIDRS", "")),
		TrustProxy:        mustBool("DETAILCAL_TRUST_PROXY", false),
		CORSOrigins:       splitAndTrim(getenv("DETAILCAL_CORS_ORIGINS", "")),
		RateLimitBurst:    getenvInt("DETAILCAL_RATE_LIMIT_BURST", 30),
		RateLimitPerMin:   getenvInt("DETAILCAL_RATE_LIMIT_PER_MIN", 60),
		RateLimitMaxIPs:   getenvInt("DETAILCAL_RATE_LIMIT_MAX_IPS", 10000),
		RateLimitIdleTTL:  mustDuration("DETAILCAL_RATE_LIMIT_IDLE_TTL", 15*time.Minute),
		RateLimitDisabled: mustBool("DETAILCAL_RATE_LIMIT_DISABLED", false),
	}

	cfg.Location = mustLocation(cfg.Timezone)

	if cfg.TimelineStartHour < 0 || cfg.TimelineStartHour > 23 {
		panic(fmt.Sprintf("❌ FATAL: DETAILCAL_TIMELINE_START_HOUR must be between 0 and 23, got %d", cfg.TimelineStartHour))
	}

	if cfg.RealtimeMode != "refetch" && cfg.RealtimeMode != "apply" {
		panic(fmt.Sprintf("❌ FATAL: DETAILCAL_REALTIME_MODE must be refetch or apply, got %q", cfg.RealtimeMode))
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: DETAILCAL_REDIS_PASSWORD is required when DETAILCAL_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	const redacted = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = redacted
	}
	if cp.RedisUser != "" {
		cp.RedisUser = redacted
	}
	if cp.DatabaseURL != "" {
		cp.DatabaseURL = redacted
	}
	if cp.JWTSecret != "" {
		cp.JWTSecret = redacted
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func mustLocation(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid timezone %q: %v", name, err))
	}
	return loc
}
