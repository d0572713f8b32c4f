package odatasql

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nlstn/go-odata-sql/internal/dialect"
	"github.com/nlstn/go-odata-sql/internal/observability"
	"github.com/nlstn/go-odata-sql/internal/sqlquery"
)

// DefaultPagingSize is the maximum number of rows a collection read returns
// when the client sends no $top, or a larger one.
const DefaultPagingSize = 1000

// Environment variables read by ConfigFromEnv.
const (
	EnvProduct       = "ODATASQL_PRODUCT"
	EnvCaseSensitive = "ODATASQL_CASE_SENSITIVE"
	EnvPagingSize    = "ODATASQL_PAGING_SIZE"
)

// Config holds the settings of a Translator.
type Config struct {
	// Product selects the paging and parameterized view syntax.
	// Defaults to PostgreSQL.
	Product Product

	// CaseSensitive double quotes table, alias and column identifiers.
	CaseSensitive bool

	// OpenSQL addresses ORDER BY and GROUP BY columns by their select alias.
	OpenSQL bool

	// PagingSize is the server-side page size. Defaults to DefaultPagingSize.
	PagingSize int

	// Logger receives translation diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	observability *observability.Config
}

// ObservabilityConfig configures tracing, metrics and Server-Timing for a
// Translator.
type ObservabilityConfig struct {
	// TracerProvider is the OpenTelemetry tracer provider.
	// If nil, tracing is disabled.
	TracerProvider trace.TracerProvider

	// MeterProvider is the OpenTelemetry meter provider.
	// If nil, metrics collection is disabled.
	MeterProvider metric.MeterProvider

	// ServiceName identifies this service in traces and metrics.
	// Defaults to "odatasql".
	ServiceName string

	// ServiceVersion is the version of this service.
	ServiceVersion string

	// EnableDetailedDBTracing adds a span per executed statement.
	EnableDetailedDBTracing bool

	// EnableQueryOptionTracing records the raw query options on spans.
	EnableQueryOptionTracing bool

	// EnableServerTiming reports translate and database time in the
	// Server-Timing header of the explain endpoint.
	EnableServerTiming bool
}

// Option is a functional option for configuring a Translator.
type Option func(*Config)

// WithProduct sets the database product.
func WithProduct(product Product) Option {
	return func(c *Config) {
		c.Product = product
	}
}

// WithCaseSensitive enables quoted identifiers.
func WithCaseSensitive(on bool) Option {
	return func(c *Config) {
		c.CaseSensitive = on
	}
}

// WithOpenSQL addresses ORDER BY and GROUP BY columns by select alias.
func WithOpenSQL(on bool) Option {
	return func(c *Config) {
		c.OpenSQL = on
	}
}

// WithPagingSize sets the server-side page size.
func WithPagingSize(size int) Option {
	return func(c *Config) {
		c.PagingSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithObservability enables tracing and metrics.
func WithObservability(cfg ObservabilityConfig) Option {
	return func(c *Config) {
		c.observability = newObservabilityConfig(cfg)
	}
}

// NewConfig creates a configuration with defaults applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.applyDefaults()
	return cfg
}

// ConfigFromEnv creates a configuration from the ODATASQL_* environment
// variables. Options are applied after the environment and take precedence.
func ConfigFromEnv(opts ...Option) (*Config, error) {
	cfg := &Config{}
	if v := strings.TrimSpace(os.Getenv(EnvProduct)); v != "" {
		product, err := dialect.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvProduct, err)
		}
		cfg.Product = product
	}
	if v := strings.TrimSpace(os.Getenv(EnvCaseSensitive)); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvCaseSensitive, err)
		}
		cfg.CaseSensitive = on
	}
	if v := strings.TrimSpace(os.Getenv(EnvPagingSize)); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvPagingSize, err)
		}
		cfg.PagingSize = size
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Validate reports settings that cannot be rendered.
func (c *Config) Validate() error {
	if c.Product != "" {
		if _, err := dialect.Parse(string(c.Product)); err != nil {
			return err
		}
	}
	if c.PagingSize < 0 {
		return fmt.Errorf("paging size must not be negative, got %d", c.PagingSize)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Product == "" {
		c.Product = dialect.PostgreSQL
	}
	if c.PagingSize <= 0 {
		c.PagingSize = DefaultPagingSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func (c *Config) sqlContext() sqlquery.Context {
	return sqlquery.Context{
		Product:       c.Product,
		CaseSensitive: c.CaseSensitive,
		OpenSQL:       c.OpenSQL,
	}
}

func newObservabilityConfig(cfg ObservabilityConfig) *observability.Config {
	var opts []observability.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}
	if cfg.EnableDetailedDBTracing {
		opts = append(opts, observability.WithDetailedDBTracing())
	}
	if cfg.EnableQueryOptionTracing {
		opts = append(opts, observability.WithQueryOptionTracing())
	}
	if cfg.EnableServerTiming {
		opts = append(opts, observability.WithServerTiming())
	}
	obs := observability.NewConfig(opts...)
	_ = obs.Initialize() //nolint:errcheck
	return obs
}
