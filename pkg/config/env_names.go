package config

// EnvPrefix is the envconfig prefix; every field below also pins its full name.
const EnvPrefix = "STOREFRONT"

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvPublicURL    = "STOREFRONT_PUBLIC_URL"
	EnvCORSOrigins  = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvBackendURL   = "STOREFRONT_BACKEND_BASE_URL"
	EnvBackendTO    = "STOREFRONT_BACKEND_TIMEOUT"
	EnvCartDriver   = "STOREFRONT_CART_DRIVER"
	EnvCartSlot     = "STOREFRONT_CART_SLOT"
	EnvSessionStore = "STOREFRONT_SESSION_DRIVER"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvFreeShipping = "STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD"
	EnvFlatShipping = "STOREFRONT_CHECKOUT_FLAT_SHIPPING_RATE"
	EnvCities       = "STOREFRONT_CHECKOUT_CITIES"
	EnvConfirmWait  = "STOREFRONT_CONFIRMATION_TIMEOUT"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQL    = "sql"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)
