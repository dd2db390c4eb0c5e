package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Rates        RatesConfig        `mapstructure:"rates"`
	Installation InstallationConfig `mapstructure:"installation"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// JWTConfig defines session token configuration. Expiration is parsed by
// viper directly from a duration string ("1h", "60m", ...).
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type RatesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// InstallationConfig identifies this deployment. Every document lives in a
// database named after the sanitized installation id, so two deployments
// sharing a MongoDB cluster never see each other's trips.
type InstallationConfig struct {
	ID string `mapstructure:"id"`
}

// SanitizeInstallationID strips characters that would act as path
// separators in a document address. The result is what actually names the
// database; a mismatch between two clients here is the usual cause of
// "permission denied" on subscriptions.
func SanitizeInstallationID(id string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ".", "-", " ", "-")
	return replacer.Replace(strings.TrimSpace(id))
}

// DatabaseName returns the MongoDB database this installation uses.
func (c Config) DatabaseName() string {
	sanitized := SanitizeInstallationID(c.Installation.ID)
	if sanitized == "" {
		return c.Database.Name
	}
	return c.Database.Name + "_" + sanitized
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override file values, with nested keys mapped
	// e.g. server.address -> SERVER_ADDRESS, rates.base_url -> RATES_BASE_URL.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "travel_planner")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "travel")
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("rates.base_url", "https://open.er-api.com/v6/latest")
	viper.SetDefault("rates.timeout", "10s")
	viper.SetDefault("installation.id", "default")

	err = viper.ReadInConfig()
	// A missing config file is fine; defaults and env vars carry the load.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
