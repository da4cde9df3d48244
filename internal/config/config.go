package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string         `env:"ENV" env-required:"true" yaml:"env" toml:"env"`
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0" yaml:"host" toml:"host"`
	Port            string        `env:"HTTP_PORT" env-default:"8080" yaml:"port" toml:"port"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	// AllowReset exposes the reset route. It is ignored in prod.
	AllowReset bool `env:"HTTP_ALLOW_RESET" env-default:"false" yaml:"allow_reset" toml:"allow_reset"`
}

type StorageConfig struct {
	Driver      string        `env:"STORAGE_DRIVER" env-default:"memory" yaml:"driver" toml:"driver"`
	DSN         string        `env:"STORAGE_DSN" yaml:"dsn" toml:"dsn"`
	PingTimeout time.Duration `env:"STORAGE_PING_TIMEOUT" env-default:"10s" yaml:"ping_timeout" toml:"ping_timeout"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" yaml:"host" toml:"host"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432" yaml:"port" toml:"port"`
	Username       string        `env:"POSTGRES_USERNAME" yaml:"username" toml:"username"`
	Password       string        `env:"POSTGRES_PASSWORD" yaml:"password" toml:"password"`
	Database       string        `env:"POSTGRES_DATABASE" yaml:"database" toml:"database"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable" yaml:"ssl_mode" toml:"ssl_mode"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s" yaml:"connect_timeout" toml:"connect_timeout"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s" yaml:"ping_timeout" toml:"ping_timeout"`
}

func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host,
		c.Port, c.Database, c.SSLMode)
}

// ResetAllowed reports whether the reset route may be registered.
func (c *Config) ResetAllowed() bool {
	return c.HTTP.AllowReset && c.Env != EnvProd
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %q", c.Env)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("STORAGE_DSN is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		var errs []error
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required"))
		}
		if c.Postgres.Username == "" {
			errs = append(errs, errors.New("POSTGRES_USERNAME is required"))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, errors.New("POSTGRES_DATABASE is required"))
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	return nil
}
