package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and env for environment variable binding.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Token signing material: base64-encoded PEM. The process refuses to
	// start without both halves.
	JWTPrivateKeyB64 string `mapstructure:"JWT_PRIVATE_KEY"`
	JWTPublicKeyB64  string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer        string `mapstructure:"JWT_ISSUER"`

	AccessTokenTTLMin   int `mapstructure:"ACCESS_TOKEN_TTL_MIN"`
	RefreshTokenTTLHour int `mapstructure:"REFRESH_TOKEN_TTL_HOUR"`
	// VerifyLeewaySec is the clock-skew tolerance applied when validating
	// token expiry. Zero by default.
	VerifyLeewaySec int `mapstructure:"VERIFY_LEEWAY_SEC"`

	// Login throttling.
	CacheBackend       string `mapstructure:"CACHE_BACKEND"` // "memory" or "redis"
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	LoginAttemptLimit  int    `mapstructure:"LOGIN_ATTEMPT_LIMIT"`
	LoginAttemptWindow int    `mapstructure:"LOGIN_ATTEMPT_WINDOW_MIN"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/shopd/")
	v.AddConfigPath("$HOME/.shopd")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/shopd_dev")
	v.SetDefault("MONGO_DB_NAME", "shopd_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "shopd-server")
	v.SetDefault("JWT_ISSUER", "shopd")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_HOUR", 8760) // 1 year
	v.SetDefault("VERIFY_LEEWAY_SEC", 0)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LOGIN_ATTEMPT_LIMIT", 5)
	v.SetDefault("LOGIN_ATTEMPT_WINDOW_MIN", 15)

	if err := v.ReadInConfig(); err != nil {
		// ConfigFileNotFoundError is acceptable, means we use defaults/env vars.
		// Other errors (e.g., permission issues, malformed config) should be returned.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
