package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration for the reports service.
// It supports environment-based initialization, with sensible defaults.
type Config struct {
	ServiceName string // e.g. "connect-reports"
	Env         string // e.g. "dev", "uat", "prod"
	RunMode     string // "once" or "serve"
	LogLevel    string // "debug", "info", etc.
	Port        int    // HTTP port in serve mode

	// Connect API access. The token may instead be resolved from AWS
	// Secrets Manager; see internal/secrets/resolver.go.
	ConnectBaseURL    string
	ConnectToken      string
	ConnectSecretName string
	AWSRegion         string

	// Report inputs for one-shot mode.
	ProductAll     bool
	ProductChoices []string // product IDs, comma-separated in env
	RendererType   string   // "csv" is the only renderer shipped
	OutputPath     string   // report file path in one-shot mode

	// Optional integrations.
	DatabaseURL     string // report run registry; empty disables it
	NATSURL         string // run lifecycle events; empty disables it
	OutboundSubject string // NATS subject for report events

	CacheTTL    time.Duration // TTL for the secret cache
	CleanupFreq time.Duration // frequency for cache cleanup goroutine

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	PGMaxConns          int
	PGMinConns          int
	PGMaxConnLifetime   time.Duration
	PGMaxConnIdleTime   time.Duration
	PGHealthCheckPeriod time.Duration

	RateLimitRPS   int
	RateLimitBurst int
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:         GetEnv("SERVICE_NAME", "connect-reports"),
		Env:                 GetEnv("ENV", "dev"),
		RunMode:             GetEnv("RUN_MODE", "once"),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		Port:                GetEnvInt("REPORTS_PORT", 9030),
		ConnectBaseURL:      GetEnv("CONNECT_BASE_URL", "https://api.connect.cloudblue.com/public/v1"),
		ConnectToken:        GetEnv("CONNECT_TOKEN", ""),
		ConnectSecretName:   GetEnv("CONNECT_SECRET_NAME", ""),
		AWSRegion:           GetEnv("AWS_REGION", "us-east-2"),
		ProductAll:          GetEnvBool("PRODUCT_ALL", true),
		ProductChoices:      splitList(GetEnv("PRODUCT_CHOICES", "")),
		RendererType:        GetEnv("RENDERER_TYPE", "csv"),
		OutputPath:          GetEnv("OUTPUT_PATH", "active_assets.csv"),
		DatabaseURL:         GetEnv("DATABASE_URL", ""),
		NATSURL:             GetEnv("NATS_URL", ""),
		OutboundSubject:     GetEnv("OUTBOUND_SUBJECT", "evt.reports.active_assets.v1"),
		CacheTTL:            GetEnvDuration("CACHE_TTL", 24*time.Hour),
		CleanupFreq:         GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),
		HTTPReadTimeout:     GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:    GetEnvDuration("HTTP_WRITE_TIMEOUT", 120*time.Second),
		HTTPIdleTimeout:     GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:       GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		PGMaxConns:          GetEnvInt("PG_MAX_CONNS", 10),
		PGMinConns:          GetEnvInt("PG_MIN_CONNS", 2),
		PGMaxConnLifetime:   GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PGMaxConnIdleTime:   GetEnvDuration("PG_MAX_CONN_IDLE", 5*time.Minute),
		PGHealthCheckPeriod: GetEnvDuration("PG_HEALTH_CHECK_PERIOD", 1*time.Minute),
		RateLimitRPS:        GetEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      GetEnvInt("RATE_LIMIT_BURST", 20),
	}

	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
