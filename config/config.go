// Package config holds all configuration for the juradoc server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Beck      BeckConfig      `mapstructure:"beck"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// BeckConfig configures the subscription portal source. Username and
// password are the two required secrets; without them the beck tool set
// is disabled while the rest of the server keeps running.
type BeckConfig struct {
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	Origin       string        `mapstructure:"origin"`
	CookieFile   string        `mapstructure:"cookie_file"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"`
	LoginTimeout time.Duration `mapstructure:"login_timeout"`
	Headless     bool          `mapstructure:"headless"`
}

// Enabled reports whether both required credentials are present.
func (b BeckConfig) Enabled() bool {
	return strings.TrimSpace(b.Username) != "" && strings.TrimSpace(b.Password) != ""
}

// ServerConfig contains HTTP transport settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StorageConfig selects the cookie-jar backend.
type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // "file" or "redis"
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "", "file":
		return nil
	case "redis":
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return fmt.Errorf("storage.redis.addr required when backend is redis")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads configuration from an optional file plus JURADOC_*
// environment variables. Unlike a full deployment config, a missing file
// is fine: credentials commonly arrive purely via the environment.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.default_timeout", 60*time.Second)
	// Empty defaults register the keys so env-only values survive Unmarshal.
	viper.SetDefault("beck.username", "")
	viper.SetDefault("beck.password", "")
	viper.SetDefault("beck.cookie_file", "")
	viper.SetDefault("beck.origin", "https://beck-online.beck.de")
	viper.SetDefault("beck.nav_timeout", 30*time.Second)
	viper.SetDefault("beck.login_timeout", 20*time.Second)
	viper.SetDefault("beck.headless", true)
	viper.SetDefault("server.address", ":10020")
	viper.SetDefault("server.jwt_secret", "")
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.redis.addr", "")
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("JURADOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
