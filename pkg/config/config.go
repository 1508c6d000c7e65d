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
	App           AppConfig
	Backend       BackendConfig
	Cart          CartConfig
	Session       SessionConfig
	Checkout      CheckoutConfig
	Confirmation  ConfirmationConfig
	AuthRateLimit AuthRateLimitConfig
	Redis         RedisConfig
	DB            DBConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"STOREFRONT_PUBLIC_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the commerce API that owns pricing, stock, auth and orders.
type BackendConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_BACKEND_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"15s"`

	RegisterPath       string `envconfig:"STOREFRONT_BACKEND_REGISTER_PATH" default:"/api/auth/register/"`
	LoginPath          string `envconfig:"STOREFRONT_BACKEND_LOGIN_PATH" default:"/api/auth/login/"`
	ProfilePath        string `envconfig:"STOREFRONT_BACKEND_PROFILE_PATH" default:"/api/auth/profile/"`
	ProductsPath       string `envconfig:"STOREFRONT_BACKEND_PRODUCTS_PATH" default:"/api/products/"`
	ProductSearchPath  string `envconfig:"STOREFRONT_BACKEND_PRODUCT_SEARCH_PATH" default:"/api/products/search/"`
	OrderCreatePath    string `envconfig:"STOREFRONT_BACKEND_ORDER_CREATE_PATH" default:"/api/orders/create/"`
	OrdersPath         string `envconfig:"STOREFRONT_BACKEND_ORDERS_PATH" default:"/api/orders/"`
	UserOrdersPath     string `envconfig:"STOREFRONT_BACKEND_USER_ORDERS_PATH" default:"/api/user/orders/"`
	TrackOrderPath     string `envconfig:"STOREFRONT_BACKEND_TRACK_ORDER_PATH" default:"/api/track-order/"`
	PaymentInitPath    string `envconfig:"STOREFRONT_BACKEND_PAYMENT_INITIATE_PATH" default:"/api/esewa/payment/"`
	PaymentConfirmPath string `envconfig:"STOREFRONT_BACKEND_PAYMENT_CONFIRM_PATH" default:"/api/esewa/payment-confirm/"`

	AdminDashboardPath  string `envconfig:"STOREFRONT_BACKEND_ADMIN_DASHBOARD_PATH" default:"/api/admin/dashboard/"`
	AdminProductsPath   string `envconfig:"STOREFRONT_BACKEND_ADMIN_PRODUCTS_PATH" default:"/api/admin/products/"`
	AdminCategoriesPath string `envconfig:"STOREFRONT_BACKEND_ADMIN_CATEGORIES_PATH" default:"/api/admin/categories/"`
	AdminUsersPath      string `envconfig:"STOREFRONT_BACKEND_ADMIN_USERS_PATH" default:"/api/admin/users/"`
	AdminOrdersPath     string `envconfig:"STOREFRONT_BACKEND_ADMIN_ORDERS_PATH" default:"/api/admin/orders/"`

	BreakerMaxFailures uint32        `envconfig:"STOREFRONT_BACKEND_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"STOREFRONT_BACKEND_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

// CartConfig selects where each browser session's cart slot lives.
type CartConfig struct {
	Driver  string        `envconfig:"STOREFRONT_CART_DRIVER" default:"memory"`
	Slot    string        `envconfig:"STOREFRONT_CART_SLOT" default:"cart"`
	TTL     time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
	IdleTTL time.Duration `envconfig:"STOREFRONT_CART_IDLE_TTL" default:"30m"`
}

type SessionConfig struct {
	Driver       string        `envconfig:"STOREFRONT_SESSION_DRIVER" default:"memory"`
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
	CookieSecure bool          `envconfig:"STOREFRONT_SESSION_COOKIE_SECURE" default:"false"`
	TTL          time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"168h"`
}

type CheckoutConfig struct {
	FreeShippingThreshold string   `envconfig:"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"15000"`
	FlatShippingRate      string   `envconfig:"STOREFRONT_CHECKOUT_FLAT_SHIPPING_RATE" default:"100"`
	Cities                []string `envconfig:"STOREFRONT_CHECKOUT_CITIES" default:"kathmandu,bhaktapur,lalitpur"`
}

// Threshold parses the free shipping threshold.
func (c CheckoutConfig) Threshold() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.FreeShippingThreshold))
}

// FlatRate parses the flat shipping rate.
func (c CheckoutConfig) FlatRate() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.FlatShippingRate))
}

type ConfirmationConfig struct {
	Timeout time.Duration `envconfig:"STOREFRONT_CONFIRMATION_TIMEOUT" default:"10s"`
}

// AuthRateLimitConfig throttles login and register per client IP and per
// username. Limits apply only when Redis is configured.
type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver          string        `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN             string        `envconfig:"STOREFRONT_DB_DSN" default:"storefront.db"`
	AutoMigrate     bool          `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"true"`
	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// NeedsRedis reports whether any store is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cart.Driver == DriverRedis || c.Session.Driver == DriverRedis
}

// NeedsDB reports whether the cart slots live in SQL.
func (c *Config) NeedsDB() bool {
	return c.Cart.Driver == DriverSQL
}

func (c *Config) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvBackendURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendTO)
	}

	switch c.Cart.Driver {
	case DriverMemory, DriverRedis, DriverSQL:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvCartDriver, DriverMemory, DriverRedis, DriverSQL)
	}
	if strings.TrimSpace(c.Cart.Slot) == "" {
		return fmt.Errorf("%s is required", EnvCartSlot)
	}

	switch c.Session.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvSessionStore, DriverMemory, DriverRedis)
	}

	if c.NeedsRedis() && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("%s is required when a redis driver is selected", EnvRedisURL)
	}

	if c.NeedsDB() {
		switch c.DB.Driver {
		case DBDriverSQLite, DBDriverPostgres:
		default:
			return fmt.Errorf("%s must be %s or %s", EnvDBDriver, DBDriverSQLite, DBDriverPostgres)
		}
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvCartDriver, DriverSQL)
		}
	}

	threshold, err := c.Checkout.Threshold()
	if err != nil || threshold.IsNegative() {
		return fmt.Errorf("%s must be a non-negative number", EnvFreeShipping)
	}
	rate, err := c.Checkout.FlatRate()
	if err != nil || rate.IsNegative() {
		return fmt.Errorf("%s must be a non-negative number", EnvFlatShipping)
	}
	if len(c.Checkout.Cities) == 0 {
		return fmt.Errorf("%s must list at least one city", EnvCities)
	}

	if c.Confirmation.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvConfirmWait)
	}
	return nil
}
