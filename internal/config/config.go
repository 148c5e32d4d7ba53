// Package config loads rtdb settings from YAML with RTDB_* environment overrides.
package config

import "time"

// Config is the full rtdb configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Server   ServerConfig   `yaml:"server"`
	Backup   BackupConfig   `yaml:"backup"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig selects the embedded engine and the snapshot key.
type DatabaseConfig struct {
	// Engine is a registered engine name ("ncruces" or "modernc").
	Engine string `yaml:"engine"`

	// StorageKey is the slot key the encoded snapshot lives under.
	StorageKey string `yaml:"storage_key"`
}

// StorageConfig selects where the snapshot is persisted.
type StorageConfig struct {
	// Backend is one of "fs", "mem" or "redis".
	Backend string `yaml:"backend"`

	// Dir is the slot directory for the fs backend.
	Dir string `yaml:"dir"`

	// MaxBytes caps what a single origin may store. 0 disables the cap.
	MaxBytes int `yaml:"max_bytes"`

	// Watch reloads the store when another process rewrites the slot.
	Watch bool `yaml:"watch"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxImportBytes  int64         `yaml:"max_import_bytes"`
}

// BackupConfig configures scheduled snapshot exports.
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Retain   int    `yaml:"retain"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
