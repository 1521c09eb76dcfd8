// Package config defines the top-level configuration for the asset lineage
// pipeline and provides validation helpers.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by LINEAGE_* environment variables.
type Config struct {
	Scope    ScopeConfig    `toml:"scope"`
	Paths    PathsConfig    `toml:"paths"`
	Database DatabaseConfig `toml:"database"`
	Bronze   BronzeConfig   `toml:"bronze"`
	S3       S3Config       `toml:"s3"`
	Publish  PublishConfig  `toml:"publish"`
	LogLevel string         `toml:"log_level"`
}

// ScopeConfig bounds one reconstruction run: which franchise ledger to replay
// and the observed date window.
type ScopeConfig struct {
	TeamCode  string `toml:"team_code"`
	TeamName  string `toml:"team_name"`
	ScopeName string `toml:"scope_name"`
	StartDate string `toml:"start_date"`
	EndDate   string `toml:"end_date"` // empty means "today"
}

// PathsConfig holds the data directory root. All stage directories derive
// from it using the medallion layout.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
}

// ManualRawDir is where operators place hand-curated raw CSVs.
func (p PathsConfig) ManualRawDir() string { return filepath.Join(p.DataDir, "raw", "manual") }

// IngestedRawDir holds validated copies of the raw CSVs.
func (p PathsConfig) IngestedRawDir() string { return filepath.Join(p.DataDir, "raw", "ingested") }

// ProcessedDir holds the normalized intermediate tables.
func (p PathsConfig) ProcessedDir() string { return filepath.Join(p.DataDir, "processed") }

// ExportsDir holds the graph export artifacts.
func (p PathsConfig) ExportsDir() string { return filepath.Join(p.DataDir, "exports") }

// BronzeRawDir holds raw JSON/JSONL records awaiting bronze load.
func (p PathsConfig) BronzeRawDir() string { return filepath.Join(p.DataDir, "bronze", "raw") }

// BronzeCheckpointsDir holds bronze stage manifests.
func (p PathsConfig) BronzeCheckpointsDir() string {
	return filepath.Join(p.DataDir, "bronze", "checkpoints")
}

// DatabaseConfig holds PostgreSQL connection parameters for the bronze sink.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// BronzeConfig labels bronze load runs.
type BronzeConfig struct {
	SourceSystem string `toml:"source_system"`
	PipelineName string `toml:"pipeline_name"`
}

// S3Config holds S3-compatible object storage parameters for gold publishing.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// PublishConfig controls upload of export artifacts to object storage.
type PublishConfig struct {
	Enabled bool   `toml:"enabled"`
	Prefix  string `toml:"prefix"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Defaults returns the built-in configuration. File and environment values
// are layered on top.
func Defaults() Config {
	return Config{
		Scope: ScopeConfig{
			TeamCode:  "mem",
			TeamName:  "Memphis",
			ScopeName: "franchise_asset_lineage",
			StartDate: "1995-06-23",
			EndDate:   "",
		},
		Paths: PathsConfig{
			DataDir: "data",
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Bronze: BronzeConfig{
			SourceSystem: "manual",
			PipelineName: "bronze_ingest",
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Publish: PublishConfig{
			Prefix: "gold/exports",
		},
		LogLevel: "info",
	}
}

// ResolvedEndDate returns the configured end date, or today's date when the
// window is left open-ended.
func (c *Config) ResolvedEndDate() string {
	if c.Scope.EndDate != "" {
		return c.Scope.EndDate
	}
	return time.Now().UTC().Format("2006-01-02")
}

// Validate checks the configuration for problems and returns a single error
// describing all of them, or nil if the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.TrimSpace(c.Scope.TeamCode) == "" {
		errs = append(errs, "scope: team_code must not be empty")
	}
	if err := checkISODate(c.Scope.StartDate); err != nil {
		errs = append(errs, fmt.Sprintf("scope: start_date: %v", err))
	}
	if c.Scope.EndDate != "" {
		if err := checkISODate(c.Scope.EndDate); err != nil {
			errs = append(errs, fmt.Sprintf("scope: end_date: %v", err))
		} else if c.Scope.EndDate < c.Scope.StartDate {
			errs = append(errs, fmt.Sprintf("scope: end_date %s precedes start_date %s", c.Scope.EndDate, c.Scope.StartDate))
		}
	}

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		errs = append(errs, "paths: data_dir must not be empty")
	}

	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, fmt.Sprintf("database: pool_min_conns %d exceeds pool_max_conns %d", c.Database.PoolMinConns, c.Database.PoolMaxConns))
	}

	if c.Publish.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "publish: s3 bucket must be set when publish is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "publish: s3 region must be set when publish is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// checkISODate enforces zero-padded ISO-8601 dates. The pipeline compares
// dates lexicographically, which is only sound for this exact layout.
func checkISODate(value string) error {
	// time.Parse accepts unpadded months and days, so round-trip the value to
	// enforce the exact layout.
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil || parsed.Format("2006-01-02") != value {
		return fmt.Errorf("%q is not a zero-padded ISO date (YYYY-MM-DD)", value)
	}
	return nil
}
