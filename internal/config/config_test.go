package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}

	if cfg.Catalog != CatalogEmbedded {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, CatalogEmbedded)
	}
	if !cfg.UseMemory {
		t.Error("UseMemory should default to true")
	}
	if cfg.HadronHadronAttempts != 10000 || cfg.HadronLeptonAttempts != 5000 || cfg.LeptonLeptonAttempts != 5000 {
		t.Errorf("unexpected attempt defaults: %+v", cfg)
	}
	if cfg.MaxAttempts != 100000 {
		t.Errorf("MaxAttempts = %d, want 100000", cfg.MaxAttempts)
	}
	if cfg.PostgresMaxConns != 8 {
		t.Errorf("PostgresMaxConns = %d, want 8", cfg.PostgresMaxConns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseEnvPrefix(t *testing.T) {
	t.Setenv("COLLIDER_CATALOG", "sqlite")
	t.Setenv("COLLIDER_SEED", "42")
	t.Setenv("COLLIDER_HADRON_HADRON_ATTEMPTS", "250")

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Catalog != CatalogSQLite {
		t.Errorf("Catalog = %q, want sqlite", cfg.Catalog)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if got := cfg.GeneratorOptions().HadronHadronAttempts; got != 250 {
		t.Errorf("HadronHadronAttempts = %d, want 250", got)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("COLLIDER_MAX_ATTEMPTS", "not-an-int")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestBindFlagsOverrideEnv(t *testing.T) {
	t.Setenv("COLLIDER_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"--seed=7", "--catalog=particles.yaml", "--postgres-max-conns=2"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value warn", cfg.LogLevel)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	if cfg.Catalog != "particles.yaml" {
		t.Errorf("Catalog = %q, want particles.yaml", cfg.Catalog)
	}
	if cfg.PostgresMaxConns != 2 {
		t.Errorf("PostgresMaxConns = %d, want 2", cfg.PostgresMaxConns)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"postgres catalog without dsn", func(c *Config) { c.Catalog = CatalogPostgres }, "postgres catalog"},
		{"persistent storage without clickhouse", func(c *Config) { c.UseMemory = false }, "clickhouse-dsn"},
		{"unknown event store", func(c *Config) {
			c.UseMemory = false
			c.ClickhouseDSN = "clickhouse://localhost:9000"
			c.EventStore = "redis"
		}, "unknown event store"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"negative ceiling", func(c *Config) { c.LeptonLeptonAttempts = -1 }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			if err := ParseEnv(&cfg); err != nil {
				t.Fatalf("parse env: %v", err)
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# comment",
		"COLLIDER_TEST_A=from-file",
		`export COLLIDER_TEST_B="quoted"`,
		"COLLIDER_TEST_C=from-file",
		"malformed line",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("COLLIDER_TEST_C", "from-env")
	// t.Setenv restores these on cleanup.
	t.Setenv("COLLIDER_TEST_A", "")
	os.Unsetenv("COLLIDER_TEST_A")
	t.Setenv("COLLIDER_TEST_B", "")
	os.Unsetenv("COLLIDER_TEST_B")

	LoadEnvFile(path)

	if got := os.Getenv("COLLIDER_TEST_A"); got != "from-file" {
		t.Errorf("COLLIDER_TEST_A = %q, want from-file", got)
	}
	if got := os.Getenv("COLLIDER_TEST_B"); got != "quoted" {
		t.Errorf("COLLIDER_TEST_B = %q, want quoted", got)
	}
	if got := os.Getenv("COLLIDER_TEST_C"); got != "from-env" {
		t.Errorf("COLLIDER_TEST_C = %q, want from-env", got)
	}

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}
