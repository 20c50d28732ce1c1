package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"jdpanel/pkg/client"
	"jdpanel/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresDSN         string
	PostgresConnTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GatewayBaseURL       string
	GatewayTimeout       time.Duration
	GatewayRatePerSecond int
	GatewayBurst         int
	GatewayWebhookSecret string
	AgendaCacheTTL       time.Duration

	ClinicTimeZone string
	ClinicLocation *time.Location
	SealerKey      string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the process environment.
// Invalid configuration is fatal.
func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    logger.JSON,
		AddSource: getEnvBool(EnvLogAddSource, true),
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to parse .env file, using process environment only", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables without validating it
// and without a logger or client attached.
func FromEnv() *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresDSN:         getEnvStr(EnvPostgresDSN, DefaultPostgresDSN),
		PostgresConnTimeout: getEnvDuration(EnvPostgresConnTimeout, DefaultPostgresConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		GatewayBaseURL:       getEnvStr(EnvGatewayBaseURL, DefaultGatewayBaseURL),
		GatewayTimeout:       getEnvDuration(EnvGatewayTimeout, DefaultGatewayTimeout),
		GatewayRatePerSecond: getEnvNum(EnvGatewayRatePerSecond, DefaultGatewayRatePerSecond),
		GatewayBurst:         getEnvNum(EnvGatewayBurst, DefaultGatewayBurst),
		GatewayWebhookSecret: getEnvStr(EnvGatewayWebhookSecret, ""),
		AgendaCacheTTL:       getEnvDuration(EnvAgendaCacheTTL, DefaultAgendaCacheTTL),

		ClinicTimeZone: getEnvStr(EnvClinicTimeZone, DefaultClinicTimeZone),
		SealerKey:      getEnvStr(EnvSealerKey, DefaultSealerKey),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.PostgresConnTimeout)
}

// SetRedis connects only when REDIS_ADDR is set; otherwise callers fall back
// to in-process stores.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("REDIS_ADDR not set, using in-memory idempotency store")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, DefaultRedisConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.PostgresDSN == "" {
		errors = append(errors, "PostgresDSN cannot be empty")
	} else if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresDSN) {
		errors = append(errors, fmt.Sprintf("PostgresDSN must start with 'postgres://' or 'postgresql://', got: %s", redactURI(cfg.PostgresDSN)))
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if u, err := url.Parse(cfg.GatewayBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("GatewayBaseURL must be an absolute URL, got: %s", cfg.GatewayBaseURL))
	}
	if cfg.GatewayRatePerSecond <= 0 {
		errors = append(errors, fmt.Sprintf("GatewayRatePerSecond must be positive, got: %d", cfg.GatewayRatePerSecond))
	}
	if cfg.GatewayBurst <= 0 {
		errors = append(errors, fmt.Sprintf("GatewayBurst must be positive, got: %d", cfg.GatewayBurst))
	}

	if loc, err := time.LoadLocation(cfg.ClinicTimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("ClinicTimeZone must be a valid IANA time zone, got: %s", cfg.ClinicTimeZone))
	} else {
		cfg.ClinicLocation = loc
	}

	if key, err := base64.StdEncoding.DecodeString(cfg.SealerKey); err != nil || len(key) != 32 {
		errors = append(errors, "SealerKey must be a base64 encoded 32 byte key")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"PostgresConnTimeout", cfg.PostgresConnTimeout},
		{"GatewayTimeout", cfg.GatewayTimeout},
		{"AgendaCacheTTL", cfg.AgendaCacheTTL},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_dsn", redactURI(cfg.PostgresDSN),
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"gateway_base_url", cfg.GatewayBaseURL,
		"gateway_timeout", cfg.GatewayTimeout,
		"gateway_rate_per_second", cfg.GatewayRatePerSecond,
		"gateway_burst", cfg.GatewayBurst,
		"gateway_webhook_enabled", cfg.GatewayWebhookSecret != "",
		"agenda_cache_ttl", cfg.AgendaCacheTTL,
		"clinic_time_zone", cfg.ClinicTimeZone,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
	if cfg.SealerKey == DefaultSealerKey {
		cfg.Log.Warn("SEALER_KEY not set, using the development key")
	}
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`^([a-z+]+://)[^:/@]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
