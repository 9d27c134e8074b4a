// Package config loads service configuration from an optional YAML file
// with environment variables layered on top. Secrets (signing key, DSN)
// are expected to arrive through the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration of the auth service.
type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	HTTP   HTTPConfig   `yaml:"http"`
	DB     DBConfig     `yaml:"db"`
	Auth   AuthConfig   `yaml:"auth"`
	Breach BreachConfig `yaml:"breach"`
}

// HTTPConfig holds listener and CORS settings.
type HTTPConfig struct {
	Host           string   `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port           string   `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

// Addr returns the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        `yaml:"dsn" env:"PG_DSN" env-required:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"PG_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
}

// AuthConfig holds token issuance parameters.
//
// AccessTTL is fixed at 15 minutes and SessionTTL at 7 days by default;
// the expiry of an access token is the only thing that bounds how long a
// deactivated identity can keep calling, so treat AccessTTL as a
// security parameter, not a convenience knob.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	Issuer     string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"sen-alerte"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"AUTH_ACCESS_TTL" env-default:"15m"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"168h"`
}

// BreachConfig holds the k-anonymity corpus endpoint settings.
type BreachConfig struct {
	Endpoint string        `yaml:"endpoint" env:"BREACH_ENDPOINT" env-default:"https://api.pwnedpasswords.com/range"`
	Timeout  time.Duration `yaml:"timeout" env:"BREACH_TIMEOUT" env-default:"5s"`
}

// MustLoad wraps Load and panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load resolves configuration in priority order:
// 1) explicit path; 2) CONFIG_PATH; 3) environment only.
// Environment variables always win over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("overlay env: %w", err)
		}
		return &cfg, nil
	}

	if path != "" {
		return tryRead(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: provide --config, CONFIG_PATH or env vars: %w", err)
	}
	return &cfg, nil
}
