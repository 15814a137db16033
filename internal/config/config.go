package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	State     StateConfig     `mapstructure:"state"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Session   SessionConfig   `mapstructure:"session"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Log       LogConfig       `mapstructure:"log"`
	Migration MigrationConfig `mapstructure:"migration"`
	Phone     PhoneConfig     `mapstructure:"phone"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port        string    `mapstructure:"port"`
	TLS         TLSConfig `mapstructure:"tls"`
	CORSOrigins []string  `mapstructure:"cors_origins"`
	// LoginRate is the number of login attempts allowed per IP per minute.
	LoginRate int `mapstructure:"login_rate"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// MongoConfig points at the platform's document database.
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StateConfig holds the local database used for sessions and authorization rules.
type StateConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite3" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds the collection metadata cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"file_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	Lifetime int `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration. SSO is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// MigrationConfig controls the backfill runner.
type MigrationConfig struct {
	StepInterval time.Duration `mapstructure:"step_interval"`
}

// PhoneConfig controls phone number normalization.
type PhoneConfig struct {
	DefaultRegion string `mapstructure:"default_region"`
}

// BootstrapConfig describes the admin account created on an empty database.
type BootstrapConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// LoadConfig reads configuration from a .env file, a config file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/ohshop-admin/")
	v.AddConfigPath("$HOME/.ohshop-admin")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix("OHSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.login_rate", 10)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "ohshop")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("state.driver", "sqlite3")
	v.SetDefault("state.dsn", "admin_state.db")
	v.SetDefault("cache.file_path", "admin_cache.db")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("session.lifetime", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("migration.step_interval", 500*time.Millisecond)
	v.SetDefault("phone.default_region", "PH")
	v.SetDefault("oidc.issuer_url", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
