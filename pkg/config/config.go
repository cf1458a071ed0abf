package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	CORS         CORSConfig
	Orders       OrdersConfig
	Idempotency  IdempotencyConfig
	Ledger       LedgerConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLATEHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATEHUB_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PLATEHUB_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PLATEHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEHUB_DB_DSN"`
	Driver string `envconfig:"PLATEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEHUB_DB_USER"`
	LegacyPassword string `envconfig:"PLATEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEHUB_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"PLATEHUB_SQLITE_PATH" default:"platehub.db"`

	MaxOpenConns    int           `envconfig:"PLATEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEHUB_REDIS_URL"`
	Address      string        `envconfig:"PLATEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PLATEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PLATEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLATEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLATEHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite          bool   `envconfig:"PLATEHUB_USE_SQLITE" default:"false"`
	AutoMigrate        bool   `envconfig:"PLATEHUB_AUTO_MIGRATE" default:"false"`
	IdempotencyBackend string `envconfig:"PLATEHUB_IDEMPOTENCY_BACKEND" default:"redis"`
	MetricsEnabled     bool   `envconfig:"PLATEHUB_METRICS_ENABLED" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PLATEHUB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type OrdersConfig struct {
	TransitionTimeout time.Duration `envconfig:"PLATEHUB_ORDERS_TRANSITION_TIMEOUT" default:"10s"`
	NotifyTimeout     time.Duration `envconfig:"PLATEHUB_ORDERS_NOTIFY_TIMEOUT" default:"3s"`
}

type IdempotencyConfig struct {
	TTL          time.Duration `envconfig:"PLATEHUB_IDEMPOTENCY_TTL" default:"24h"`
	WaitTimeout  time.Duration `envconfig:"PLATEHUB_IDEMPOTENCY_WAIT_TIMEOUT" default:"5s"`
	PollInterval time.Duration `envconfig:"PLATEHUB_IDEMPOTENCY_POLL_INTERVAL" default:"100ms"`
}

type LedgerConfig struct {
	DefaultCommissionRate string `envconfig:"PLATEHUB_DEFAULT_COMMISSION_RATE" default:"0.15"`
}

// CommissionRate parses the platform-wide fallback commission rate.
func (l LedgerConfig) CommissionRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(l.DefaultCommissionRate))
	if err != nil {
		return decimal.RequireFromString(DefaultCommissionRate)
	}
	return rate
}

func (l LedgerConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(l.DefaultCommissionRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvDefaultCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0,1], got %s", EnvDefaultCommissionRate, rate.String())
	}
	return nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"PLATEHUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	Enabled            bool   `envconfig:"PLATEHUB_PUBSUB_ENABLED" default:"false"`
	NotificationsTopic string `envconfig:"PLATEHUB_PUBSUB_NOTIFICATIONS_TOPIC" default:"platehub-notifications"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || strings.EqualFold(db.Driver, DBDriverSQLite) {
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
