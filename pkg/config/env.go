package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresDSN         = "POSTGRES_DSN"
	EnvPostgresConnTimeout = "POSTGRES_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvGatewayBaseURL       = "GATEWAY_BASE_URL"
	EnvGatewayTimeout       = "GATEWAY_TIMEOUT"
	EnvGatewayRatePerSecond = "GATEWAY_RATE_PER_SECOND"
	EnvGatewayBurst         = "GATEWAY_BURST"
	EnvGatewayWebhookSecret = "GATEWAY_WEBHOOK_SECRET"
	EnvAgendaCacheTTL       = "AGENDA_CACHE_TTL"

	EnvClinicTimeZone = "CLINIC_TIME_ZONE"
	EnvSealerKey      = "SEALER_KEY"

	EnvPort         = "PORT"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogAddSource = "LOG_ADD_SOURCE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
