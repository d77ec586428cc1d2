package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Without WebhookSecret the service boots but refuses every delivery
	// with a configuration error.
	WebhookSecret          string `env:"WEBHOOK_SECRET"`
	WebhookSignatureHeader string `env:"WEBHOOK_SIGNATURE_HEADER" envDefault:"X-Signature"`
	RequestTimeoutMS       int    `env:"REQUEST_TIMEOUT_MS" envDefault:"10000"`

	GatewayBaseURL     string `env:"GATEWAY_BASE_URL" envDefault:"http://mock-gateway:8081"`
	GatewayAccessToken string `env:"GATEWAY_ACCESS_TOKEN"`
	GatewayTimeoutMS   int    `env:"GATEWAY_TIMEOUT_MS" envDefault:"5000"`

	LedgerCurrency string `env:"LEDGER_CURRENCY" envDefault:"BRL"`

	RedisURL           string `env:"REDIS_URL"`
	ProcessedCacheTTLS int    `env:"PROCESSED_CACHE_TTL_S" envDefault:"86400"`

	JWTSecret string `env:"JWT_SECRET,required"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads an optional .env file and then the process environment, which
// takes precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutMS) * time.Millisecond
}

func (c *Config) ProcessedCacheTTL() time.Duration {
	return time.Duration(c.ProcessedCacheTTLS) * time.Second
}
