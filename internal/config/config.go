package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Shortener ShortenerConfig
	Auth      AuthConfig
	Sweep     SweepConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port string
	Host string
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ShortenerConfig struct {
	BaseURL        string
	AliasLength    int
	GenAttempts    int
	RedirectStatus int // 301 or 302
	// DefaultLinkTTL is applied when a creation request carries no expiry.
	// Zero means links without an expiry never expire.
	DefaultLinkTTL time.Duration
	// CacheTTL bounds resolution-cache entries for never-expiring links.
	CacheTTL time.Duration
	// VerifyTargets enables a reachability probe of the target URL at
	// creation time.
	VerifyTargets bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type SweepConfig struct {
	Interval       time.Duration
	StaleAge       time.Duration
	StaleMaxClicks int64
}

type RateLimitConfig struct {
	CreatePerMinute int
}

type MongoConfig struct {
	URI      string
	Database string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type OutboxConfig struct {
	WorkerID  string
	BatchSize int
	PollEvery time.Duration
	Lease     time.Duration
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "shortlinks"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: GetEnv("APP_PORT", "8080"),
			Host: GetEnv("APP_HOST", "localhost"),
		},
		Postgres: PostgresConfig{
			DSN: GetEnv("DB_DSN", DefaultPostgresDSN()),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Shortener: ShortenerConfig{
			BaseURL:        GetEnv("SHORTENER_BASE_URL", "http://localhost:8080"),
			AliasLength:    GetEnvInt("ALIAS_LENGTH", 10),
			GenAttempts:    GetEnvInt("ALIAS_GEN_ATTEMPTS", 10),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 302),
			DefaultLinkTTL: GetEnvDuration("DEFAULT_LINK_TTL", 3*time.Minute),
			CacheTTL:       GetEnvDuration("CACHE_TTL", time.Hour),
			VerifyTargets:  GetEnvBool("VERIFY_TARGETS", false),
		},
		Auth: AuthConfig{
			JWTSecret: GetEnv("JWT_SECRET", ""),
			TokenTTL:  GetEnvDuration("TOKEN_TTL", 24*time.Hour),
		},
		Sweep: SweepConfig{
			Interval:       GetEnvDuration("SWEEP_INTERVAL", time.Minute),
			StaleAge:       GetEnvDuration("SWEEP_STALE_AGE", 0),
			StaleMaxClicks: int64(GetEnvInt("SWEEP_STALE_MAX_CLICKS", 0)),
		},
		RateLimit: RateLimitConfig{
			CreatePerMinute: GetEnvInt("CREATE_RATE_PER_MINUTE", 60),
		},
		Mongo: MongoConfig{
			URI:      GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGO_DATABASE", "shortlinks"),
		},
		Kafka: KafkaConfig{
			Brokers: SplitCSV(GetEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   GetEnv("KAFKA_CLICKS_TOPIC", "link.clicks"),
			GroupID: GetEnv("KAFKA_GROUP_ID", "click-consumer"),
		},
		Outbox: OutboxConfig{
			WorkerID:  GetEnv("OUTBOX_WORKER_ID", DefaultWorkerID("outbox-worker")),
			BatchSize: GetEnvInt("OUTBOX_BATCH_SIZE", 50),
			PollEvery: GetEnvDuration("OUTBOX_POLL_EVERY", time.Second),
			Lease:     GetEnvDuration("OUTBOX_LEASE", 30*time.Second),
		},
		OTel: OTelConfig{
			Enabled:  GetEnvBool("OTEL_ENABLED", false),
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}

	if cfg.Shortener.RedirectStatus != 301 && cfg.Shortener.RedirectStatus != 302 {
		return nil, fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", cfg.Shortener.RedirectStatus)
	}
	if cfg.Shortener.AliasLength < 4 || cfg.Shortener.AliasLength > 32 {
		return nil, fmt.Errorf("ALIAS_LENGTH must be between 4 and 32 (got %d)", cfg.Shortener.AliasLength)
	}
	if cfg.Shortener.GenAttempts < 1 {
		return nil, fmt.Errorf("ALIAS_GEN_ATTEMPTS must be >= 1 (got %d)", cfg.Shortener.GenAttempts)
	}
	if cfg.Auth.JWTSecret == "" {
		if cfg.App.Env != "development" {
			return nil, fmt.Errorf("JWT_SECRET must be set outside development")
		}
		cfg.Auth.JWTSecret = "dev-only-secret"
	}

	return cfg, nil
}
