package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over the defaults, applies RTDB_*
// environment overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides applies RTDB_SECTION_FIELD variables. They always win over the file.
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}
	integer := func(name string, dst *int) {
		if val := os.Getenv(name); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if val := os.Getenv(name); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
			}
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val := os.Getenv(name); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}

	str("RTDB_DATABASE_ENGINE", &cfg.Database.Engine)
	str("RTDB_DATABASE_STORAGE_KEY", &cfg.Database.StorageKey)

	str("RTDB_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("RTDB_STORAGE_DIR", &cfg.Storage.Dir)
	integer("RTDB_STORAGE_MAX_BYTES", &cfg.Storage.MaxBytes)
	boolean("RTDB_STORAGE_WATCH", &cfg.Storage.Watch)

	str("RTDB_REDIS_ADDR", &cfg.Redis.Addr)
	str("RTDB_REDIS_PASSWORD", &cfg.Redis.Password)
	integer("RTDB_REDIS_DB", &cfg.Redis.DB)
	str("RTDB_REDIS_CHANNEL", &cfg.Redis.Channel)

	str("RTDB_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	duration("RTDB_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	duration("RTDB_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	boolean("RTDB_BACKUP_ENABLED", &cfg.Backup.Enabled)
	str("RTDB_BACKUP_SCHEDULE", &cfg.Backup.Schedule)
	str("RTDB_BACKUP_DIR", &cfg.Backup.Dir)
	integer("RTDB_BACKUP_RETAIN", &cfg.Backup.Retain)

	str("RTDB_LOGGING_LEVEL", &cfg.Logging.Level)
	str("RTDB_LOGGING_FORMAT", &cfg.Logging.Format)
}
