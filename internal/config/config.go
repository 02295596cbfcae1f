package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeRemote = "remote"
	AuthModeLocal  = "local"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Cart     CartConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Breaker  BreakerConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
	// File enables a rotating JSON log file next to stdout when set.
	File string
}

type CartConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

type AuthConfig struct {
	Mode       string
	ServiceURL string
	Timeout    time.Duration
	JWTSecret  []byte
	CacheTTL   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BreakerConfig struct {
	FailureThreshold uint32
	Cooldown         time.Duration
}

type OrderConfig struct {
	PersistMaxAttempts int
	RequestTimeout     time.Duration
}

// Load reads configuration from the environment. When path is not empty the
// YAML file is read first and environment variables override its keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "orders")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "orders")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("CART_SERVICE_URL", "http://localhost:8082/api/carts")
	v.SetDefault("CART_TIMEOUT", "3s")
	v.SetDefault("AUTH_MODE", AuthModeRemote)
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:8081/api/auth/validate")
	v.SetDefault("AUTH_TIMEOUT", "2s")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_CACHE_TTL", "1m")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BREAKER_FAILURE_THRESHOLD", 5)
	v.SetDefault("BREAKER_COOLDOWN", "30s")
	v.SetDefault("ORDER_PERSIST_MAX_ATTEMPTS", 3)
	v.SetDefault("ORDER_REQUEST_TIMEOUT", "10s")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"DB_CONN_MAX_LIFETIME",
		"CART_TIMEOUT",
		"AUTH_TIMEOUT",
		"AUTH_CACHE_TTL",
		"BREAKER_COOLDOWN",
		"ORDER_REQUEST_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		Cart: CartConfig{
			ServiceURL: strings.TrimRight(v.GetString("CART_SERVICE_URL"), "/"),
			Timeout:    durations["CART_TIMEOUT"],
		},
		Auth: AuthConfig{
			Mode:       strings.ToLower(v.GetString("AUTH_MODE")),
			ServiceURL: v.GetString("AUTH_SERVICE_URL"),
			Timeout:    durations["AUTH_TIMEOUT"],
			CacheTTL:   durations["AUTH_CACHE_TTL"],
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Breaker: BreakerConfig{
			FailureThreshold: v.GetUint32("BREAKER_FAILURE_THRESHOLD"),
			Cooldown:         durations["BREAKER_COOLDOWN"],
		},
		Order: OrderConfig{
			PersistMaxAttempts: v.GetInt("ORDER_PERSIST_MAX_ATTEMPTS"),
			RequestTimeout:     durations["ORDER_REQUEST_TIMEOUT"],
		},
	}

	if secret := v.GetString("AUTH_JWT_SECRET"); secret != "" {
		key, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("decoding AUTH_JWT_SECRET: %w", err)
		}
		cfg.Auth.JWTSecret = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeRemote:
		if c.Auth.ServiceURL == "" {
			return fmt.Errorf("AUTH_SERVICE_URL is required when AUTH_MODE=%s", AuthModeRemote)
		}
	case AuthModeLocal:
		if len(c.Auth.JWTSecret) == 0 {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=%s", AuthModeLocal)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	if c.Cart.ServiceURL == "" {
		return fmt.Errorf("CART_SERVICE_URL is required")
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.Order.PersistMaxAttempts < 1 {
		return fmt.Errorf("ORDER_PERSIST_MAX_ATTEMPTS must be at least 1")
	}
	if c.Order.RequestTimeout <= 0 {
		return fmt.Errorf("ORDER_REQUEST_TIMEOUT must be positive")
	}
	return nil
}
