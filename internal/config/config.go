// Package config loads the odatasql command line configuration from a TOML
// file and ODATASQL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	odatasql "github.com/nlstn/go-odata-sql"
)

const (
	// DefaultConfigFile is read when no path is given and it exists.
	DefaultConfigFile = "odatasql.toml"

	EnvDriver   = "ODATASQL_DRIVER"
	EnvDSN      = "ODATASQL_DSN"
	EnvModel    = "ODATASQL_MODEL"
	EnvLogLevel = "ODATASQL_LOG_LEVEL"
)

// Supported database drivers for exec and serve.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration of the odatasql command.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Model    ModelConfig    `toml:"model"`
	Paging   PagingConfig   `toml:"paging"`
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
}

// DatabaseConfig selects the SQL flavor and, for exec and serve, the
// database to run statements against.
type DatabaseConfig struct {
	Product       string `toml:"product"`
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	CaseSensitive bool   `toml:"case_sensitive"`
	OpenSQL       bool   `toml:"open_sql"`
}

// ModelConfig locates the model document.
type ModelConfig struct {
	Path string `toml:"path"`
}

// PagingConfig holds the server-side page size.
type PagingConfig struct {
	Size int `toml:"size"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	ServerTiming bool   `toml:"server_timing"`
}

// Load reads path, or DefaultConfigFile when path is empty and the file
// exists, overlays the environment and validates the result. Without a file,
// defaults and environment variables provide all configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Parse decodes a TOML document without reading the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.loadDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	c.loadDefaults()
	return c.Validate()
}

func (c *Config) loadDefaults() {
	if c.Database.Product == "" {
		c.Database.Product = string(odatasql.PostgreSQL)
	}
	if c.Paging.Size == 0 {
		c.Paging.Size = odatasql.DefaultPagingSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(odatasql.EnvProduct); v != "" {
		c.Database.Product = v
	}
	if v := os.Getenv(odatasql.EnvCaseSensitive); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", odatasql.EnvCaseSensitive, err)
		}
		c.Database.CaseSensitive = on
	}
	if v := os.Getenv(odatasql.EnvPagingSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", odatasql.EnvPagingSize, err)
		}
		c.Paging.Size = size
	}
	if v := os.Getenv(EnvDriver); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports settings the command cannot work with.
func (c *Config) Validate() error {
	if _, err := odatasql.ParseProduct(c.Database.Product); err != nil {
		return fmt.Errorf("database.product: %w", err)
	}
	switch c.Database.Driver {
	case "", DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return errors.New("database.dsn is required when database.driver is set")
	}
	if c.Paging.Size < 0 {
		return fmt.Errorf("paging.size must not be negative, got %d", c.Paging.Size)
	}
	if _, err := c.level(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// TranslatorOptions returns the options for an odatasql.Translator.
func (c *Config) TranslatorOptions(logger *slog.Logger) []odatasql.Option {
	product, _ := odatasql.ParseProduct(c.Database.Product) //nolint:errcheck // validated
	return []odatasql.Option{
		odatasql.WithProduct(product),
		odatasql.WithCaseSensitive(c.Database.CaseSensitive),
		odatasql.WithOpenSQL(c.Database.OpenSQL),
		odatasql.WithPagingSize(c.Paging.Size),
		odatasql.WithLogger(logger),
	}
}

// Logger returns a logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := c.level() //nolint:errcheck // validated
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level)))
	return level, err
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
