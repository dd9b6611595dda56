package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	Storage  string         `mapstructure:"storage"` // "postgres" | "memory"
	Postgres PostgresConfig `mapstructure:"postgres"`
	Auth     AuthConfig     `mapstructure:"auth"`
	ICE      ICEConfig      `mapstructure:"ice"`
	Provider ProviderConfig `mapstructure:"provider"`
}

type PostgresConfig struct {
	DSN         string        `mapstructure:"dsn"`
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

type ICEConfig struct {
	STUNURLs       []string `mapstructure:"stun_urls"`
	TURNURL        string   `mapstructure:"turn_url"`
	TURNUsername   string   `mapstructure:"turn_username"`
	TURNCredential string   `mapstructure:"turn_credential"`
}

type ProviderConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Domain    string        `mapstructure:"domain"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("storage", "memory")
	v.SetDefault("postgres.ping_timeout", "5s")
	v.SetDefault("provider.enabled", false)
	v.SetDefault("provider.token_ttl", "2h")
	v.SetDefault("provider.timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
