package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds all runtime configuration for the API server.
// Tags use mapstructure for Viper unmarshalling; every key is also bound to
// the environment variable of the same name.
type ServerConfig struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"`
	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoDBName     string `mapstructure:"MONGO_DB_NAME"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Session token settings. The secret must be overridden in production.
	JWTSecretKey       string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer          string `mapstructure:"JWT_ISSUER"`
	JWTAudience        string `mapstructure:"JWT_AUDIENCE"`
	AccessTokenTTLMin  int    `mapstructure:"ACCESS_TOKEN_TTL_MIN"`
	RefreshTokenTTLDay int    `mapstructure:"REFRESH_TOKEN_TTL_DAY"`

	// Social provider settings. A provider with an empty client ID still
	// validates tokens but skips audience checks where one would apply.
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	AppleClientID      string `mapstructure:"APPLE_CLIENT_ID"`
	EnableMockProvider bool   `mapstructure:"ENABLE_MOCK_PROVIDER"`
	ProviderTimeoutSec int    `mapstructure:"PROVIDER_TIMEOUT_SEC"`

	// Defaults assigned to accounts created through social login.
	DefaultNativeLanguage string `mapstructure:"DEFAULT_NATIVE_LANGUAGE"`
	DefaultStudyLanguage  string `mapstructure:"DEFAULT_STUDY_LANGUAGE"`
}

// AccessTokenTTL returns the access token lifetime as a duration.
func (c *ServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (c *ServerConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDay) * 24 * time.Hour
}

// ProviderTimeout returns the per-call timeout for provider HTTP requests.
func (c *ServerConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSec) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/wordnest/")
	v.AddConfigPath("$HOME/.wordnest")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/wordnest_dev")
	v.SetDefault("MONGO_DB_NAME", "wordnest_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "wordnest-api")
	v.SetDefault("JWT_SECRET_KEY", "a_very_secret_jwt_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("JWT_ISSUER", "wordnest-api")
	v.SetDefault("JWT_AUDIENCE", "wordnest-app")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
	v.SetDefault("REFRESH_TOKEN_TTL_DAY", 30)
	v.SetDefault("ENABLE_MOCK_PROVIDER", false)
	v.SetDefault("PROVIDER_TIMEOUT_SEC", 10)
	v.SetDefault("DEFAULT_NATIVE_LANGUAGE", "en")
	v.SetDefault("DEFAULT_STUDY_LANGUAGE", "es")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, we run on defaults and env vars.
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
