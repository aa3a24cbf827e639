package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server    Server
	RateLimit RateLimit
	Chat      Backend
	Verify    Verify
	Assist    Assistant
	Log       Log
	Snapshot  Snapshot
	Redis     RedisConfig
	Postgres  PostgresConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// RateLimit throttles per client IP the routes that call the backends.
// Zero Requests disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Backend is an outbound JSON API.
type Backend struct {
	BaseURL string
	Timeout time.Duration
}

// Verify configures the verification backend and the breaker guarding it.
type Verify struct {
	Backend
	BreakerFailures  int
	BreakerSuccesses int
	BreakerCooldown  time.Duration
}

// Assistant configures conversation behavior.
type Assistant struct {
	MatchMode string
	Greeting  string
}

type Log struct {
	Level  string
	Format string
}

// SnapshotBackend selects where conversation snapshots live.
type SnapshotBackend string

const (
	SnapshotMemory   SnapshotBackend = "memory"
	SnapshotRedis    SnapshotBackend = "redis"
	SnapshotPostgres SnapshotBackend = "postgres"
)

type Snapshot struct {
	Backend       SnapshotBackend
	TTL           time.Duration
	SweepInterval time.Duration
	// IdleAfter releases in-memory conversations unused for this long.
	IdleAfter time.Duration
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GREETING=off disables the greeting.
const greetingOff = "off"

// FromEnv builds a Config from environment variables so main stays lean.
// Malformed numeric or duration values are reported rather than ignored.
func FromEnv() (Config, error) {
	e := &envReader{}

	cfg := Config{
		Server: Server{
			Addr:            e.str("DOMAIN_AGENT_ADDR", ":8090"),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  e.duration("REQUEST_TIMEOUT", 90*time.Second),
		},
		RateLimit: RateLimit{
			Requests: e.integer("RATE_LIMIT_REQUESTS", 30),
			Window:   e.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Chat: Backend{
			BaseURL: e.str("CHAT_BASE_URL", "http://localhost:8080/api"),
			Timeout: e.duration("CHAT_TIMEOUT", 60*time.Second),
		},
		Verify: Verify{
			Backend: Backend{
				BaseURL: e.str("VERIFY_BASE_URL", "http://localhost:8080/api"),
				Timeout: e.duration("VERIFY_TIMEOUT", 30*time.Second),
			},
			BreakerFailures:  e.integer("VERIFY_BREAKER_FAILURES", 5),
			BreakerSuccesses: e.integer("VERIFY_BREAKER_SUCCESSES", 3),
			BreakerCooldown:  e.duration("VERIFY_BREAKER_COOLDOWN", 30*time.Second),
		},
		Assist: Assistant{
			MatchMode: e.str("REASON_MATCH_MODE", "exact"),
			Greeting:  os.Getenv("GREETING"),
		},
		Log: Log{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "json"),
		},
		Snapshot: Snapshot{
			Backend:       SnapshotBackend(strings.ToLower(e.str("SNAPSHOT_BACKEND", string(SnapshotMemory)))),
			TTL:           e.duration("SNAPSHOT_TTL", 24*time.Hour),
			SweepInterval: e.duration("SNAPSHOT_SWEEP_INTERVAL", 5*time.Minute),
			IdleAfter:     e.duration("CONVERSATION_IDLE_AFTER", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    e.integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    e.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
	}
	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, cfg.Validate()
}

// GreetingText resolves the configured greeting: unset keeps def, "off"
// disables it.
func (a Assistant) GreetingText(def string) string {
	switch strings.TrimSpace(a.Greeting) {
	case "":
		return def
	case greetingOff:
		return ""
	default:
		return a.Greeting
	}
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Snapshot.Backend {
	case SnapshotMemory:
	case SnapshotRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("SNAPSHOT_BACKEND=redis requires REDIS_URL")
		}
	case SnapshotPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("SNAPSHOT_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.Snapshot.Backend)
	}
	if c.RateLimit.Requests < 0 || (c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit needs a non-negative RATE_LIMIT_REQUESTS and a positive RATE_LIMIT_WINDOW")
	}
	if c.Verify.BreakerFailures < 1 || c.Verify.BreakerSuccesses < 1 {
		return fmt.Errorf("verification breaker thresholds must be positive")
	}
	return nil
}

// envReader collects the first parse error so FromEnv can read every value
// in one pass.
type envReader struct {
	err error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
