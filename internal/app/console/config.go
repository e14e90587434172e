// Package console boots the order console: the page controllers behind the HTTP surface,
// the gateway to the order service, the catalog sync transport, and the checkout pipeline.
package console

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	platformobservability "github.com/Apurer/go-order-console/internal/platform/observability"
	platformtemporal "github.com/Apurer/go-order-console/internal/platform/temporal"
)

// Config carries environment-driven settings for the console and worker processes.
type Config struct {
	Port                 string        `env:"PORT" envDefault:"8080"`
	ServiceName          string        `env:"SERVICE_NAME" envDefault:"order-console"`
	Environment          string        `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint         string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure         bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OrderServiceURL      string        `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8081"`
	OrderServiceTimeout  time.Duration `env:"ORDER_SERVICE_TIMEOUT" envDefault:"15s"`
	AllowedOrigins       []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	ProblemBaseURI       string        `env:"PROBLEM_BASE_URI"`
	PostgresDSN          string        `env:"POSTGRES_DSN"`
	SentinelPollInterval time.Duration `env:"CATALOG_SENTINEL_POLL_INTERVAL" envDefault:"2s"`
	// PageIdleTTL of zero keeps idle page instances until they are closed.
	PageIdleTTL       time.Duration `env:"PAGE_IDLE_TTL" envDefault:"30m"`
	PagePurgeInterval time.Duration `env:"PAGE_PURGE_INTERVAL" envDefault:"1m"`
	TemporalAddress   string        `env:"TEMPORAL_ADDRESS"`
	TemporalNamespace string        `env:"TEMPORAL_NAMESPACE"`
	TemporalDisabled  bool          `env:"TEMPORAL_DISABLED"`
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.normalize()
}

// LoadConfigFrom parses the given variables instead of the process environment.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.Port = strings.TrimSpace(c.Port)
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a number between 1 and 65535")
	}
	c.OrderServiceURL = strings.TrimRight(strings.TrimSpace(c.OrderServiceURL), "/")
	parsed, err := url.Parse(c.OrderServiceURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("ORDER_SERVICE_URL must be an absolute URL")
	}
	if c.OrderServiceTimeout <= 0 {
		return Config{}, fmt.Errorf("ORDER_SERVICE_TIMEOUT must be positive")
	}
	if c.SentinelPollInterval <= 0 {
		return Config{}, fmt.Errorf("CATALOG_SENTINEL_POLL_INTERVAL must be positive")
	}
	if c.PageIdleTTL < 0 {
		return Config{}, fmt.Errorf("PAGE_IDLE_TTL must not be negative")
	}
	if c.PagePurgeInterval <= 0 {
		return Config{}, fmt.Errorf("PAGE_PURGE_INTERVAL must be positive")
	}
	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.AllowedOrigins = origins
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	return c, nil
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// Observability converts the config to telemetry settings for serviceName.
func (c Config) Observability(serviceName string) platformobservability.Settings {
	return platformobservability.Settings{
		ServiceName:  serviceName,
		Environment:  c.Environment,
		LogLevel:     c.LogLevel,
		OTLPEndpoint: c.OTLPEndpoint,
		OTLPInsecure: c.OTLPInsecure,
	}
}

// Temporal converts the config to client settings.
func (c Config) Temporal() platformtemporal.Settings {
	return platformtemporal.Settings{
		Address:   c.TemporalAddress,
		Namespace: c.TemporalNamespace,
		Disabled:  c.TemporalDisabled,
	}
}
