package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Coupon       CouponConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CHECKOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"CHECKOUT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHECKOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHECKOUT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CHECKOUT_DB_DSN"`
	Driver string `envconfig:"CHECKOUT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHECKOUT_DB_HOST"`
	LegacyPort     int    `envconfig:"CHECKOUT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHECKOUT_DB_USER"`
	LegacyPassword string `envconfig:"CHECKOUT_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHECKOUT_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHECKOUT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHECKOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHECKOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHECKOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHECKOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHECKOUT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CHECKOUT_REDIS_ADDR"`
	Password     string        `envconfig:"CHECKOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHECKOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHECKOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHECKOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHECKOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CouponConfig tunes the coupon lock lifecycle. LockTTL bounds how long a
// provisional reservation survives if the checkout that acquired it dies
// before redeeming or rolling back.
type CouponConfig struct {
	LockTTL time.Duration `envconfig:"CHECKOUT_COUPON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHECKOUT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHECKOUT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CHECKOUT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHECKOUT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"CHECKOUT_PUBSUB_ORDERS_TOPIC" default:"checkout-order-events"`
	CouponsTopic string `envconfig:"CHECKOUT_PUBSUB_COUPONS_TOPIC" default:"checkout-coupon-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CHECKOUT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CHECKOUT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CHECKOUT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// ensureDSN assembles a DSN from the discrete legacy variables when no DSN
// was provided directly.
func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   "/" + d.LegacyName,
	}
	query := url.Values{}
	query.Set("sslmode", d.LegacySSLMode)
	dsn.RawQuery = query.Encode()
	d.DSN = dsn.String()
	return nil
}
