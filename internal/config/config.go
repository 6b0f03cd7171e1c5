package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":3000"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, covers a mutation and its refetch

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Bookmark API
	APIBaseURL string        // ex: "http://localhost:8000"
	APITimeout time.Duration // per-request timeout
	APIRPS     float64       // outbound requests per second, 0 = unlimited
	APIBurst   int

	// Presentation
	FaviconURL  string         // favicon service endpoint
	FaviconSize int            // favicon pixel size
	Location    *time.Location // zone that defines "today"

	RefreshInterval time.Duration // background refetch interval, 0 = disabled
	SeedFile        string        // optional YAML file imported once at startup
	GCInterval      time.Duration // how often stale in-flight states are swept
	StaleOpAfter    time.Duration // a loading state older than this is abandoned

	// Redis (optional, empty addr = in-memory operation status)
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between retries
	RedisPingTimeout      time.Duration // timeout for each ping attempt
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold    int
	RedisStateTTL         time.Duration // lifetime of a recorded operation state

	AllowedHosts     []string // optional, restrict pages to specific Host headers
	AllowedCIDRS     []string // optional, restrict ops endpoints to specific networks
	TrustProxy       bool     // true => trust X-Forwarded-For headers
	CORSOrigins      []string // allowed origins for /api
	RateBurst        int      // per-client burst on mutating routes
	RateRefillPerMin int      // per-client sustained rate on mutating routes
}

// RedisEnabled reports whether a shared status store is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("RECALL_LISTEN_PORT", ":3000"),
		ShutdownTimeout: mustDuration("RECALL_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("RECALL_REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("RECALL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("RECALL_PRETTY_LOG", true),

		// Bookmark API
		APIBaseURL: requireHTTPURL("RECALL_API_BASE_URL", "http://localhost:8000"),
		APITimeout: mustDuration("RECALL_API_TIMEOUT", 10*time.Second),
		APIRPS:     getenvFloat("RECALL_API_RPS", 10),
		APIBurst:   getenvInt("RECALL_API_BURST", 20),

		// Presentation
		FaviconURL:  getenv("RECALL_FAVICON_URL", "https://www.google.com/s2/favicons"),
		FaviconSize: getenvInt("RECALL_FAVICON_SIZE", 32),
		Location:    mustLocation("RECALL_TIMEZONE", time.Local),

		RefreshInterval: mustDuration("RECALL_REFRESH_INTERVAL", 5*time.Minute),
		SeedFile:        getenv("RECALL_SEED_FILE", ""),
		GCInterval:      mustDuration("RECALL_GC_INTERVAL", time.Minute),
		StaleOpAfter:    mustDuration("RECALL_STALE_OP_AFTER", 5*time.Minute),

		// Redis settings
		RedisAddr:             getenv("RECALL_REDIS_ADDR", ""),
		RedisUser:             getenv("RECALL_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("RECALL_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("RECALL_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("RECALL_REDIS_DB", 0),
		RedisDT:               mustDuration("RECALL_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("RECALL_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("RECALL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("RECALL_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("RECALL_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("RECALL_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("RECALL_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("RECALL_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("RECALL_REDIS_WARN_THRESHOLD", 3),
		RedisStateTTL:         mustDuration("RECALL_REDIS_STATE_TTL", 24*time.Hour),

		// Access restrictions
		AllowedHosts:     splitAndTrim(getenv("RECALL_ALLOWED_HOSTS", "")),
		AllowedCIDRS:     parseAllowedIPs(getenv("RECALL_ALLOWED_CIDRS", "")),
		TrustProxy:       mustBool("RECALL_TRUST_PROXY", false),
		CORSOrigins:      splitAndTrim(getenv("RECALL_CORS_ORIGINS", "http://localhost:3000")),
		RateBurst:        getenvInt("RECALL_RATE_BURST", 20),
		RateRefillPerMin: getenvInt("RECALL_RATE_REFILL_PER_MIN", 60),
	}

	if cfg.RedisEnabled() && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: RECALL_REDIS_PASSWORD is required when RECALL_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.FaviconSize <= 0 {
		panic(fmt.Sprintf("❌ FATAL: RECALL_FAVICON_SIZE must be > 0, got %d", cfg.FaviconSize))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

// mustLocation loads an IANA zone name. An unknown zone is fatal.
func mustLocation(key string, def *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid time zone for %s: %s", key, v))
	}
	return loc
}

// requireHTTPURL returns an absolute http(s) URL without trailing slash.
func requireHTTPURL(key, def string) string {
	v := getenv(key, def)
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: %s must be an absolute http(s) URL, got %q", key, v))
	}
	return strings.TrimRight(v, "/")
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
