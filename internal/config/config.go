// Package config loads the service configuration from the environment
// and resolves per-business transmission credentials.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/logistia/einvoice/internal/mydata"
)

// Environment selects the deployment context. Shared default
// credentials are only ever valid outside production.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
)

// Config holds the service configuration, loaded from environment
// variables and an optional .env file.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	Environment   string `mapstructure:"ENVIRONMENT"`

	MyDataBaseURL         string        `mapstructure:"MYDATA_BASE_URL"`
	MyDataTimeout         time.Duration `mapstructure:"MYDATA_TIMEOUT"`
	MyDataUserID          string        `mapstructure:"MYDATA_USER_ID"`
	MyDataSubscriptionKey string        `mapstructure:"MYDATA_SUBSCRIPTION_KEY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the given path (for the optional .env
// file) and the process environment.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("ENVIRONMENT", string(EnvDevelopment))
	viper.SetDefault("MYDATA_BASE_URL", mydata.SandboxBaseURL)
	viper.SetDefault("MYDATA_TIMEOUT", 12*time.Second)
	viper.SetDefault("LOG_LEVEL", "info")

	for _, key := range []string{
		"SERVER_ADDRESS", "DATABASE_URL", "ENVIRONMENT",
		"MYDATA_BASE_URL", "MYDATA_TIMEOUT",
		"MYDATA_USER_ID", "MYDATA_SUBSCRIPTION_KEY", "LOG_LEVEL",
	} {
		_ = viper.BindEnv(key)
	}

	// the .env file is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Env returns the typed environment flag
func (c Config) Env() Environment {
	switch Environment(c.Environment) {
	case EnvProduction, EnvDevelopment, EnvTest:
		return Environment(c.Environment)
	default:
		return EnvDevelopment
	}
}

// SharedCredentials returns the configured shared credential pair
func (c Config) SharedCredentials() mydata.Credentials {
	return mydata.Credentials{
		UserID:          c.MyDataUserID,
		SubscriptionKey: c.MyDataSubscriptionKey,
	}
}

// ResolveCredentials picks the one credential pair to use for a
// business. The per-business override always wins when complete; the
// shared default is only acceptable outside production. When neither
// is present resolution fails loudly rather than sending
// unauthenticated requests.
func ResolveCredentials(env Environment, override, shared mydata.Credentials) (mydata.Credentials, error) {
	if override.Complete() {
		return override, nil
	}
	if override.UserID != "" || override.SubscriptionKey != "" {
		return mydata.Credentials{}, fmt.Errorf("per-business credentials are incomplete")
	}
	if env == EnvProduction {
		return mydata.Credentials{}, fmt.Errorf("production requires per-business credentials")
	}
	if !shared.Complete() {
		return mydata.Credentials{}, fmt.Errorf("no credentials configured for environment %s", env)
	}
	return shared, nil
}
