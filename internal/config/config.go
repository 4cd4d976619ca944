package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Query           QueryConfig           `mapstructure:"query"`
	Scope           ScopeConfig           `mapstructure:"scope"`
	CORS            CORSConfig            `mapstructure:"cors"`
	Auth            AuthConfig            `mapstructure:"auth"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation"`
	Seed            SeedConfig            `mapstructure:"seed"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite or memory
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

type QueryConfig struct {
	DefaultSkip  int `mapstructure:"default_skip"`
	DefaultLimit int `mapstructure:"default_limit"`
}

type ScopeConfig struct {
	Header string `mapstructure:"header"`
}

type CORSConfig struct {
	AllowOrigins string `mapstructure:"allow_origins"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type InstrumentationConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	SamplingRate float64 `mapstructure:"sampling_rate"` // 0.0 to 1.0
}

type SeedConfig struct {
	Dir string `mapstructure:"dir"` // fixture files loaded into empty collections; empty disables
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsMemory returns true when no database backs the collections.
func (d DatabaseConfig) IsMemory() bool {
	return d.Driver == "memory"
}

// Load reads app.yaml from the given directories (or "." and "../.." when none
// are given), then applies MEALPLAN_* environment overrides. A missing config
// file is not an error; defaults apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "../.."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mealplan")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("query.default_skip", 0)
	v.SetDefault("query.default_limit", 100)
	v.SetDefault("scope.header", "X-Active-Household")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "changeme-secret")
	v.SetDefault("instrumentation.enabled", true)
	v.SetDefault("instrumentation.sampling_rate", 1.0)

	v.SetEnvPrefix("mealplan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
