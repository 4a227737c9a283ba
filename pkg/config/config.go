package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Sandbox  SandboxConfig
	Password PasswordConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"warn"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the client at the storefront REST API.
type BackendConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:1000"`
	RequestTimeout time.Duration `envconfig:"STOREFRONT_API_REQUEST_TIMEOUT" default:"30s"`
	UserAgent      string        `envconfig:"STOREFRONT_API_USER_AGENT" default:"storefront-cli"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(b.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, b.BaseURL)
	}
	if b.RequestTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvAPIRequestTimeout)
	}
	return nil
}

// StorageConfig selects the backend holding the local cart and favourites.
type StorageConfig struct {
	Driver      string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"sqlite"`
	Namespace   string `envconfig:"STOREFRONT_STORAGE_NAMESPACE" default:"default"`
	AutoMigrate bool   `envconfig:"STOREFRONT_STORAGE_AUTO_MIGRATE" default:"true"`
}

func (s StorageConfig) validate() error {
	switch s.NormalizedDriver() {
	case StorageDriverSQLite, StorageDriverPostgres, StorageDriverRedis, StorageDriverMemory:
		return nil
	}
	return fmt.Errorf("%s must be one of sqlite|postgres|redis|memory, got %q", EnvStorageDriver, s.Driver)
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

// IsSQL reports whether the driver is backed by gorm.
func (s StorageConfig) IsSQL() bool {
	d := s.NormalizedDriver()
	return d == StorageDriverSQLite || d == StorageDriverPostgres
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN" default:"storefront.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig holds the constants shown on the order summary.
type CheckoutConfig struct {
	ShippingFee int64  `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_FEE" default:"500"`
	Currency    string `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"KES"`
}

// SandboxConfig configures the in-memory development backend.
type SandboxConfig struct {
	Port              string   `envconfig:"STOREFRONT_SANDBOX_PORT" default:"1000"`
	JWTSecret         string   `envconfig:"STOREFRONT_SANDBOX_JWT_SECRET" default:"sandbox-secret"`
	JWTIssuer         string   `envconfig:"STOREFRONT_SANDBOX_JWT_ISSUER" default:"storefront-sandbox"`
	SessionTTLMinutes int      `envconfig:"STOREFRONT_SANDBOX_SESSION_TTL_MINUTES" default:"1440"`
	AllowedOrigins    []string `envconfig:"STOREFRONT_SANDBOX_ALLOWED_ORIGINS" default:"http://localhost:5501"`
	SeedCatalog       bool     `envconfig:"STOREFRONT_SANDBOX_SEED_CATALOG" default:"true"`
}

// SessionTTL returns the lifetime of a sandbox session cookie.
func (s SandboxConfig) SessionTTL() time.Duration {
	if s.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}
