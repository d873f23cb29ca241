// Package config loads application settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an explicit YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{"config.yaml", "config/config.yaml"}

type Config struct {
	Mode          string              `koanf:"mode"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	Observability ObservabilityConfig `koanf:"observability"`
	Listings      ListingsConfig      `koanf:"listings"`
}

type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	IdleTimeout        time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	RateLimitPerSecond int           `koanf:"rate_limit_per_second"`
	RateLimitBurst     int           `koanf:"rate_limit_burst"`
	AuthRequestsPerMin int           `koanf:"auth_requests_per_minute"`
	CORSOrigins        []string      `koanf:"cors_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode"`
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret          string        `koanf:"jwt_secret"`
	AccessTokenTTL     time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `koanf:"refresh_token_ttl"`
	GoogleClientID     string        `koanf:"google_client_id"`
	GoogleClientSecret string        `koanf:"google_client_secret"`
	GoogleCallbackURL  string        `koanf:"google_callback_url"`
	SessionSecret      string        `koanf:"session_secret"`
}

// GoogleEnabled reports whether Google sign-in credentials are configured.
func (a AuthConfig) GoogleEnabled() bool {
	return a.GoogleClientID != "" && a.GoogleClientSecret != ""
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	LogLevel       string `koanf:"log_level"`
	LogFormat      string `koanf:"log_format"`
}

type ListingsConfig struct {
	ViewDedupWindow time.Duration `koanf:"view_dedup_window"`
	PopularCacheTTL time.Duration `koanf:"popular_cache_ttl"`
	// OverviewCacheTTL bounds how stale the public platform overview may be.
	OverviewCacheTTL time.Duration `koanf:"overview_cache_ttl"`
}

func defaultConfig() *Config {
	return &Config{
		Mode: "development",
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        60 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerSecond: 100,
			RateLimitBurst:     200,
			AuthRequestsPerMin: 20,
			CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Name:            "campusnest",
			SSLMode:         "disable",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Auth: AuthConfig{
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   30 * 24 * time.Hour,
			GoogleCallbackURL: "http://localhost:8000/api/auth/google/callback",
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			LogLevel:       "info",
			LogFormat:      "text",
		},
		Listings: ListingsConfig{
			ViewDedupWindow:  time.Hour,
			PopularCacheTTL:  5 * time.Minute,
			OverviewCacheTTL: 5 * time.Minute,
		},
	}
}

// Load reads .env (if present) and builds the layered configuration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if origins, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(origins)); err != nil {
			return nil, fmt.Errorf("failed to parse CORS origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Database.URL == "" && c.Database.Name == "" {
		errs = append(errs, errors.New("database.name or DATABASE_URL is required"))
	}
	if c.Listings.ViewDedupWindow <= 0 {
		errs = append(errs, errors.New("listings.view_dedup_window must be positive"))
	}
	return errors.Join(errs...)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"mode":                     "mode",
	"server_host":              "server.host",
	"server_port":              "server.port",
	"port":                     "server.port",
	"rate_limit_per_second":    "server.rate_limit_per_second",
	"rate_limit_burst":         "server.rate_limit_burst",
	"auth_requests_per_minute": "server.auth_requests_per_minute",
	"cors_origins":             "server.cors_origins",
	"shutdown_timeout":         "server.shutdown_timeout",
	"database_url":             "database.url",
	"db_host":                  "database.host",
	"db_port":                  "database.port",
	"db_user":                  "database.user",
	"db_password":              "database.password",
	"db_name":                  "database.name",
	"db_sslmode":               "database.sslmode",
	"db_max_conns":             "database.max_conns",
	"db_min_conns":             "database.min_conns",
	"jwt_secret":               "auth.jwt_secret",
	"access_token_ttl":         "auth.access_token_ttl",
	"refresh_token_ttl":        "auth.refresh_token_ttl",
	"google_client_id":         "auth.google_client_id",
	"google_client_secret":     "auth.google_client_secret",
	"google_callback_url":      "auth.google_callback_url",
	"session_secret":           "auth.session_secret",
	"metrics_enabled":          "observability.metrics_enabled",
	"log_level":                "observability.log_level",
	"log_format":               "observability.log_format",
	"view_dedup_window":        "listings.view_dedup_window",
	"popular_cache_ttl":        "listings.popular_cache_ttl",
	"overview_cache_ttl":       "listings.overview_cache_ttl",
}

// envTransformFunc maps known environment variables onto koanf paths and drops the rest.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
