// Package config provides configuration for the ledger CLI. Values come
// from three layers: built-in defaults, an optional YAML file, and
// environment variables (with .env support) overriding both.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file consulted when no explicit path is given.
const DefaultPath = "ledger.yaml"

// Config represents the application configuration.
type Config struct {
	// DBPath is the SQLite database location. Empty selects the in-memory
	// store.
	DBPath string `yaml:"db_path"`

	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// BaseCurrency is the ISO code reports are rendered in.
	BaseCurrency string `yaml:"base_currency"`

	// DefaultPayer is assumed for imports when no --payer flag is given.
	DefaultPayer string `yaml:"default_payer"`

	BigQuery BigQueryConfig `yaml:"bigquery"`
}

// BigQueryConfig configures the optional analytics export.
type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Table     string `yaml:"table"`
}

// Load builds the configuration. A .env file in the working directory is
// applied to the environment first (missing is fine); then the YAML file at
// path (or DefaultPath when path is empty, missing is fine unless the path
// was explicit); then environment variables override individual fields.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:       "ledger.db",
		LogLevel:     "info",
		BaseCurrency: "GBP",
		BigQuery: BigQueryConfig{
			Table: "transactions",
		},
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfPresent(&cfg.DBPath, "LEDGER_DB_PATH")
	setIfPresent(&cfg.LogLevel, "LEDGER_LOG_LEVEL")
	setIfPresent(&cfg.BaseCurrency, "LEDGER_BASE_CURRENCY")
	setIfPresent(&cfg.DefaultPayer, "LEDGER_DEFAULT_PAYER")
	setIfPresent(&cfg.BigQuery.ProjectID, "LEDGER_BQ_PROJECT")
	setIfPresent(&cfg.BigQuery.Dataset, "LEDGER_BQ_DATASET")
	setIfPresent(&cfg.BigQuery.Table, "LEDGER_BQ_TABLE")
}

func setIfPresent(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// ValidateExport checks the fields the BigQuery export requires.
func (c *Config) ValidateExport() error {
	var missing []string
	if c.BigQuery.ProjectID == "" {
		missing = append(missing, "bigquery.project_id")
	}
	if c.BigQuery.Dataset == "" {
		missing = append(missing, "bigquery.dataset")
	}
	if c.BigQuery.Table == "" {
		missing = append(missing, "bigquery.table")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required configuration: %v", missing)
	}
	return nil
}
