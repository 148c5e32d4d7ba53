package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path, e.g. "storage.backend".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

var (
	validEngines    = []string{"ncruces", "modernc"}
	validBackends   = []string{"fs", "mem", "redis"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "console"}
)

// Validate returns a ValidationError listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, msg string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(msg, args...)})
	}

	if !oneOf(cfg.Database.Engine, validEngines) {
		add("database.engine", "must be one of %v, got %q", validEngines, cfg.Database.Engine)
	}
	if cfg.Database.StorageKey == "" || strings.ContainsAny(cfg.Database.StorageKey, `/\`) {
		add("database.storage_key", "must be a non-empty name without path separators")
	}

	if !oneOf(cfg.Storage.Backend, validBackends) {
		add("storage.backend", "must be one of %v, got %q", validBackends, cfg.Storage.Backend)
	}
	if cfg.Storage.MaxBytes < 0 {
		add("storage.max_bytes", "must not be negative")
	}
	if cfg.Storage.Watch && cfg.Storage.Backend == "mem" {
		add("storage.watch", "has nothing to watch with the mem backend")
	}

	if cfg.Storage.Backend == "redis" && cfg.Redis.Addr == "" {
		add("redis.addr", "is required for the redis backend")
	}

	if cfg.Server.MaxImportBytes <= 0 {
		add("server.max_import_bytes", "must be positive")
	}

	if cfg.Backup.Enabled {
		if _, err := cron.ParseStandard(cfg.Backup.Schedule); err != nil {
			add("backup.schedule", "invalid cron expression: %v", err)
		}
		if cfg.Backup.Retain < 1 {
			add("backup.retain", "must be at least 1")
		}
	}

	if !oneOf(cfg.Logging.Level, validLogLevels) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	if !oneOf(cfg.Logging.Format, validLogFormats) {
		add("logging.format", "must be one of %v, got %q", validLogFormats, cfg.Logging.Format)
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
