package config

import (
	"time"

	"github.com/kittclouds/rtdb/internal/kv"
)

// Default values for configuration fields.
const (
	DefaultEngine     = "ncruces"
	DefaultStorageKey = "rt_database"

	DefaultStorageBackend = "fs"
	DefaultStorageDir     = "data"
	DefaultStorageMax     = kv.DefaultQuota

	DefaultRedisAddr = "127.0.0.1:6379"

	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxImportBytes  = int64(64 << 20)

	DefaultBackupSchedule = "0 2 * * *"
	DefaultBackupDir      = "data/backups"
	DefaultBackupRetain   = 7

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Storage: StorageConfig{MaxBytes: DefaultStorageMax}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields. Storage.MaxBytes is left alone
// because 0 means unlimited; Default seeds it before any file is decoded.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.Engine == "" {
		cfg.Database.Engine = DefaultEngine
	}
	if cfg.Database.StorageKey == "" {
		cfg.Database.StorageKey = DefaultStorageKey
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = DefaultStorageDir
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = kv.DefaultChannel
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxImportBytes == 0 {
		cfg.Server.MaxImportBytes = DefaultMaxImportBytes
	}

	if cfg.Backup.Schedule == "" {
		cfg.Backup.Schedule = DefaultBackupSchedule
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = DefaultBackupDir
	}
	if cfg.Backup.Retain == 0 {
		cfg.Backup.Retain = DefaultBackupRetain
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}
