// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/appstore-dev/appstore/internal/registry/logging"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "APPSTORE_"

// Probe modes.
const (
	ProbeModeDirect  = "direct"
	ProbeModeForward = "forward"
)

// Config holds the server configuration.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":12121"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// RegistryEndpoint is the Laconic registry GraphQL endpoint.
	RegistryEndpoint string        `env:"REGISTRY_GQL_ENDPOINT" envDefault:"https://laconicd.laconic.com/api"`
	RecordsFile      string        `env:"RECORDS_FILE"` // serve records from a local fixture instead
	QueryTimeout     time.Duration `env:"QUERY_TIMEOUT" envDefault:"15s"`

	Probe ProbeConfig `envPrefix:"PROBE_"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	EnableMCP          bool          `env:"ENABLE_MCP" envDefault:"true"`
	HealthJobTTL       time.Duration `env:"HEALTH_JOB_TTL" envDefault:"10m"`

	EventLogging logging.EventLoggingConfig
}

// ProbeConfig configures the deployment health probes.
type ProbeConfig struct {
	Mode            string        `env:"MODE" envDefault:"direct"`
	ForwardURL      string        `env:"FORWARD_URL" envDefault:"https://corsproxy.io/?"`
	Concurrency     int           `env:"CONCURRENCY" envDefault:"10"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"8s"`
	EndpointEnabled bool          `env:"ENDPOINT_ENABLED" envDefault:"false"`
	AllowPrivate    bool          `env:"ALLOW_PRIVATE" envDefault:"false"` // lets /v0/probe reach non-public hosts
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	return LoadFromEnvironment(nil)
}

// LoadFromEnvironment parses environ instead of the process environment when
// it is non-nil.
func LoadFromEnvironment(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfig is Load for callers that cannot continue without configuration.
func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads variables from path into the process environment without
// overriding existing ones. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
