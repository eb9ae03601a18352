package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by envconfig.
	EnvPrefix = "installr"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Fallback     FallbackConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payments     PaymentsConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INSTALLR_APP_ENV" required:"true"`
	Port         string `envconfig:"INSTALLR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"INSTALLR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INSTALLR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"INSTALLR_DB_DSN"`

	Host     string `envconfig:"INSTALLR_DB_HOST"`
	Port     int    `envconfig:"INSTALLR_DB_PORT" default:"5432"`
	User     string `envconfig:"INSTALLR_DB_USER"`
	Password string `envconfig:"INSTALLR_DB_PASSWORD"`
	Name     string `envconfig:"INSTALLR_DB_NAME"`
	SSLMode  string `envconfig:"INSTALLR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INSTALLR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INSTALLR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INSTALLR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INSTALLR_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// OpTimeout bounds every remote-store call; an expired deadline counts as
	// a remote failure, not an indefinite wait.
	OpTimeout time.Duration `envconfig:"INSTALLR_DB_OP_TIMEOUT" default:"5s"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name parts are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

// FallbackConfig locates the local fallback ledger. The ledger is durable on
// the local node only; it is not replicated.
type FallbackConfig struct {
	Path string `envconfig:"INSTALLR_FALLBACK_PATH" default:"installr-fallback.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INSTALLR_REDIS_URL"`
	Address      string        `envconfig:"INSTALLR_REDIS_ADDR"`
	Password     string        `envconfig:"INSTALLR_REDIS_PASSWORD"`
	DB           int           `envconfig:"INSTALLR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INSTALLR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INSTALLR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INSTALLR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INSTALLR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INSTALLR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"INSTALLR_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"INSTALLR_JWT_ISSUER" default:"installr"`
}

type PaymentsConfig struct {
	SquareAccessToken string `envconfig:"INSTALLR_SQUARE_ACCESS_TOKEN"`
	SquareEnvironment string `envconfig:"INSTALLR_SQUARE_ENV" default:"sandbox"`
	SquareLocationID  string `envconfig:"INSTALLR_SQUARE_LOCATION_ID"`

	// TaxRateBps is the sales tax applied at order creation, in basis points.
	TaxRateBps int `envconfig:"INSTALLR_TAX_RATE_BPS" default:"0"`
}

type SyncConfig struct {
	Interval time.Duration `envconfig:"INSTALLR_SYNC_INTERVAL" default:"1m"`
	LockKey  string        `envconfig:"INSTALLR_SYNC_LOCK_KEY" default:"installr:lock:fallback-sync"`
	LockTTL  time.Duration `envconfig:"INSTALLR_SYNC_LOCK_TTL" default:"5m"`
	// MetricsPort exposes /metrics on the sync worker; empty disables it.
	MetricsPort string `envconfig:"INSTALLR_SYNC_METRICS_PORT" default:"9100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INSTALLR_AUTO_MIGRATE" default:"false"`
}
