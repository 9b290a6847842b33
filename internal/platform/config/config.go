package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration assembled from the
// environment so main stays lean.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	Policy   Policy
	Jobs     Jobs
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// Database captures PostgreSQL connectivity.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures cache connectivity. An empty URL disables Redis.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the audit event pipeline configuration. Empty broker
// list disables publishing.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Policy holds the business policy constants the domain logic depends
// on. Surfaced as configuration so operators can tune them without a
// release; the defaults are the documented platform policy.
type Policy struct {
	// MinViableVolunteers gates the recruiting -> active campaign
	// transition.
	MinViableVolunteers int
	// NearCapacityThreshold is the utilization ratio at which a
	// campaign is flagged near capacity.
	NearCapacityThreshold float64
	// HighValueBudgetFloor marks campaigns as high value on budget
	// alone.
	HighValueBudgetFloor float64
	// RelevanceFloor is the minimum evidence relevance for a
	// disclosure data point to count as satisfied.
	RelevanceFloor float64
	// ConsumptionAlerts toggles rollup over-consumption alerting.
	ConsumptionAlerts bool
}

// Jobs holds background job scheduling intervals.
type Jobs struct {
	// RollupInterval is how often the metric rollup sweeps all
	// campaigns. Zero disables the periodic run; the HTTP trigger
	// still works.
	RollupInterval time.Duration
	// OutboxRelayInterval is the audit outbox poll interval.
	OutboxRelayInterval time.Duration
}

// PackStatusTTL bounds how long asynchronous pack generation status is
// cached in Redis.
var PackStatusTTL = 24 * time.Hour

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envString("TANGIBLE_ADDR", ":8080"),
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envString("JWT_ISSUER", "tangible"),
			JWTAudience:   envString("JWT_AUDIENCE", "tangible-api"),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "tangible.audit.events"),
		},
		Policy: Policy{
			MinViableVolunteers:   envInt("POLICY_MIN_VIABLE_VOLUNTEERS", 5),
			NearCapacityThreshold: envFloat("POLICY_NEAR_CAPACITY_THRESHOLD", 0.8),
			HighValueBudgetFloor:  envFloat("POLICY_HIGH_VALUE_BUDGET_FLOOR", 50000),
			RelevanceFloor:        envFloat("POLICY_RELEVANCE_FLOOR", 0.6),
			ConsumptionAlerts:     envString("POLICY_CONSUMPTION_ALERTS", "true") == "true",
		},
		Jobs: Jobs{
			RollupInterval:      envDuration("JOBS_ROLLUP_INTERVAL", 15*time.Minute),
			OutboxRelayInterval: envDuration("JOBS_OUTBOX_RELAY_INTERVAL", 5*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
