package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "mboa"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App        AppConfig
	Upstream   UpstreamConfig
	Redis      RedisConfig
	Session    SessionConfig
	Categories CategoriesConfig
	Toast      ToastConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MBOA_APP_ENV" required:"true"`
	Port         string `envconfig:"MBOA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MBOA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MBOA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the REST backend that owns catalog, orders,
// payments and authentication.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"MBOA_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"MBOA_UPSTREAM_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MBOA_REDIS_URL"`
	Address      string        `envconfig:"MBOA_REDIS_ADDR"`
	Password     string        `envconfig:"MBOA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MBOA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MBOA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MBOA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MBOA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MBOA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MBOA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis endpoint was provided at all. Without
// one the token store degrades to process memory, which is fine for dev.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// SessionConfig governs the signed browser-session cookie.
type SessionConfig struct {
	Secret     string        `envconfig:"MBOA_SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"MBOA_SESSION_ISSUER" default:"mboa-storefront"`
	CookieName string        `envconfig:"MBOA_SESSION_COOKIE" default:"mboa_session"`
	TTL        time.Duration `envconfig:"MBOA_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"MBOA_SESSION_SECURE" default:"true"`
}

type CategoriesConfig struct {
	CacheTTL time.Duration `envconfig:"MBOA_CATEGORIES_CACHE_TTL" default:"5m"`
}

type ToastConfig struct {
	AutoClose time.Duration `envconfig:"MBOA_TOAST_AUTO_CLOSE" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MBOA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig throttles the login endpoint. Limits of zero disable the
// corresponding counter; without Redis the throttle is skipped entirely.
type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MBOA_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"MBOA_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginCMPIDLimit int           `envconfig:"MBOA_LOGIN_RATE_CMPID_LIMIT" default:"5"`
}
