package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LINEAGE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LINEAGE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject database and object-storage credentials at deploy
// time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Scope.TeamCode, "LINEAGE_TEAM_CODE")
	setStr(&cfg.Scope.TeamName, "LINEAGE_TEAM_NAME")
	setStr(&cfg.Scope.StartDate, "LINEAGE_START_DATE")
	setStr(&cfg.Scope.EndDate, "LINEAGE_END_DATE")

	setStr(&cfg.Paths.DataDir, "LINEAGE_DATA_DIR")

	setStr(&cfg.Database.DSN, "LINEAGE_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "LINEAGE_DATABASE_HOST")
	setInt(&cfg.Database.Port, "LINEAGE_DATABASE_PORT")
	setStr(&cfg.Database.Database, "LINEAGE_DATABASE_NAME")
	setStr(&cfg.Database.User, "LINEAGE_DATABASE_USER")
	setStr(&cfg.Database.Password, "LINEAGE_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "LINEAGE_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "LINEAGE_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "LINEAGE_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "LINEAGE_DATABASE_RUN_MIGRATIONS")

	setStr(&cfg.Bronze.SourceSystem, "LINEAGE_BRONZE_SOURCE_SYSTEM")
	setStr(&cfg.Bronze.PipelineName, "LINEAGE_BRONZE_PIPELINE_NAME")

	setStr(&cfg.S3.Endpoint, "LINEAGE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LINEAGE_S3_REGION")
	setStr(&cfg.S3.Bucket, "LINEAGE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LINEAGE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LINEAGE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LINEAGE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LINEAGE_S3_FORCE_PATH_STYLE")

	setBool(&cfg.Publish.Enabled, "LINEAGE_PUBLISH_ENABLED")
	setStr(&cfg.Publish.Prefix, "LINEAGE_PUBLISH_PREFIX")

	setStr(&cfg.LogLevel, "LINEAGE_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
