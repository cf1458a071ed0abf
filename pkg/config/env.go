package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	IdempotencyBackendRedis = "redis"
	IdempotencyBackendDB    = "db"

	DefaultCommissionRate = "0.15"
)

const (
	EnvAppEnv    = "PLATEHUB_APP_ENV"
	EnvPort      = "PLATEHUB_APP_PORT"
	EnvLogLevel  = "PLATEHUB_LOG_LEVEL"
	EnvLogFormat = "PLATEHUB_LOG_FORMAT"

	EnvDBDSN    = "PLATEHUB_DB_DSN"
	EnvDBDriver = "PLATEHUB_DB_DRIVER"
	EnvDBHost   = "PLATEHUB_DB_HOST"
	EnvDBUser   = "PLATEHUB_DB_USER"
	EnvDBName   = "PLATEHUB_DB_NAME"

	EnvRedisURL = "PLATEHUB_REDIS_URL"

	EnvJWTSecret  = "PLATEHUB_JWT_SECRET"
	EnvJWTIssuer  = "PLATEHUB_JWT_ISSUER"
	EnvJWTExpMins = "PLATEHUB_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite          = "PLATEHUB_USE_SQLITE"
	EnvAutoMigrate        = "PLATEHUB_AUTO_MIGRATE"
	EnvIdempotencyBackend = "PLATEHUB_IDEMPOTENCY_BACKEND"

	EnvIdempotencyTTL         = "PLATEHUB_IDEMPOTENCY_TTL"
	EnvIdempotencyWaitTimeout = "PLATEHUB_IDEMPOTENCY_WAIT_TIMEOUT"

	EnvDefaultCommissionRate = "PLATEHUB_DEFAULT_COMMISSION_RATE"

	EnvGCPProjectID             = "PLATEHUB_GCP_PROJECT_ID"
	EnvPubSubEnabled            = "PLATEHUB_PUBSUB_ENABLED"
	EnvPubSubNotificationsTopic = "PLATEHUB_PUBSUB_NOTIFICATIONS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
