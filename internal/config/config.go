// Package config loads runtime settings from the environment, a .env file and flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"collider-lab/internal/generator"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "COLLIDER_"

// Catalog sources. Any other value is read as a JSON or YAML file path.
const (
	CatalogEmbedded = "embedded"
	CatalogPostgres = "postgres"
	CatalogSQLite   = "sqlite"
)

// Event record backends used when UseMemory is false.
const (
	EventsPostgres   = "postgres"
	EventsClickhouse = "clickhouse"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds settings shared by every binary.
type Config struct {
	// Particle catalog
	Catalog    string `env:"CATALOG" envDefault:"embedded"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"collider.db"`

	// Storage
	UseMemory     bool   `env:"USE_MEMORY" envDefault:"true"`
	PostgresDSN      string `env:"POSTGRES_DSN"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"8"`
	ClickhouseDSN    string `env:"CLICKHOUSE_DSN"`
	EventStore       string `env:"EVENT_STORE" envDefault:"clickhouse"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Reports
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`

	// Generation
	HadronHadronAttempts int    `env:"HADRON_HADRON_ATTEMPTS" envDefault:"10000"`
	HadronLeptonAttempts int    `env:"HADRON_LEPTON_ATTEMPTS" envDefault:"5000"`
	LeptonLeptonAttempts int    `env:"LEPTON_LEPTON_ATTEMPTS" envDefault:"5000"`
	MaxAttempts          int    `env:"MAX_ATTEMPTS" envDefault:"100000"`
	Seed                 uint64 `env:"SEED"` // 0 draws a random seed per event
}

// ParseEnv loads configuration from environment variables.
// Variable names carry EnvPrefix.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the .env file at envFile (if present) and then the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		LoadEnvFile(envFile)
	}
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlags registers the shared flags on fs. Current values become the
// defaults, so flags parsed afterwards override the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Catalog, "catalog", c.Catalog, "Particle catalog: embedded, postgres, sqlite or a JSON/YAML file path")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite catalog file")
	fs.BoolVar(&c.UseMemory, "use-memory", c.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	fs.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL connection string")
	fs.Int32Var(&c.PostgresMaxConns, "postgres-max-conns", c.PostgresMaxConns, "PostgreSQL pool size")
	fs.StringVar(&c.ClickhouseDSN, "clickhouse-dsn", c.ClickhouseDSN, "ClickHouse connection string")
	fs.StringVar(&c.EventStore, "event-store", c.EventStore, "Event record backend: postgres or clickhouse")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (json, console)")
	fs.IntVar(&c.HadronHadronAttempts, "hh-attempts", c.HadronHadronAttempts, "Hadron-hadron attempt ceiling")
	fs.IntVar(&c.HadronLeptonAttempts, "hl-attempts", c.HadronLeptonAttempts, "Hadron-lepton attempt ceiling")
	fs.IntVar(&c.LeptonLeptonAttempts, "ll-attempts", c.LeptonLeptonAttempts, "Lepton-lepton attempt ceiling per branch")
	fs.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Cap applied to every attempt ceiling")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "RNG seed (0 = random)")
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	var problems []string

	if c.Catalog == "" {
		problems = append(problems, "catalog is empty")
	}
	if c.Catalog == CatalogPostgres && c.PostgresDSN == "" {
		problems = append(problems, "postgres catalog requires --postgres-dsn")
	}
	if c.Catalog == CatalogSQLite && c.SQLitePath == "" {
		problems = append(problems, "sqlite catalog requires --sqlite-path")
	}

	if !c.UseMemory {
		if c.ClickhouseDSN == "" {
			problems = append(problems, "--clickhouse-dsn is required (use --use-memory for in-memory storage)")
		}
		switch c.EventStore {
		case EventsClickhouse:
		case EventsPostgres:
			if c.PostgresDSN == "" {
				problems = append(problems, "postgres event store requires --postgres-dsn")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown event store %q", c.EventStore))
		}
	}

	if c.LogFormat != FormatJSON && c.LogFormat != FormatConsole {
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.LogFormat))
	}

	if c.HadronHadronAttempts < 0 || c.HadronLeptonAttempts < 0 || c.LeptonLeptonAttempts < 0 {
		problems = append(problems, "attempt ceilings must not be negative")
	}
	if c.MaxAttempts < 0 {
		problems = append(problems, "max attempts must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// GeneratorOptions returns the per-channel attempt ceilings.
func (c *Config) GeneratorOptions() generator.Options {
	return generator.Options{
		HadronHadronAttempts: c.HadronHadronAttempts,
		HadronLeptonAttempts: c.HadronLeptonAttempts,
		LeptonLeptonAttempts: c.LeptonLeptonAttempts,
	}
}
