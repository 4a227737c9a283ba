package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

const (
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvLogLevel           = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat          = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL         = "STOREFRONT_API_BASE_URL"
	EnvAPIRequestTimeout  = "STOREFRONT_API_REQUEST_TIMEOUT"
	EnvStorageDriver      = "STOREFRONT_STORAGE_DRIVER"
	EnvStorageNamespace   = "STOREFRONT_STORAGE_NAMESPACE"
	EnvDBDSN              = "STOREFRONT_DB_DSN"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvCheckoutShipping   = "STOREFRONT_CHECKOUT_SHIPPING_FEE"
	EnvSandboxPort        = "STOREFRONT_SANDBOX_PORT"
	EnvSandboxJWTSecret   = "STOREFRONT_SANDBOX_JWT_SECRET"
	EnvSandboxOrigins     = "STOREFRONT_SANDBOX_ALLOWED_ORIGINS"
	EnvSandboxSessionTTL  = "STOREFRONT_SANDBOX_SESSION_TTL_MINUTES"
	EnvSandboxSeedCatalog = "STOREFRONT_SANDBOX_SEED_CATALOG"
)
