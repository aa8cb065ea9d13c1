// Package config centralizes the engine's tunables: the data directory,
// lock timeout, logging, and metrics listen address. Mirrors the
// Configuration struct cmd/reldb builds from flags, but is importable by
// anything that embeds the engine without a CLI.
package config

import (
	"time"

	"reldb/pkg/dblog"
	"reldb/pkg/txn"
)

// Config holds every tunable the engine reads at startup.
type Config struct {
	DataDir       string
	LockTimeout   time.Duration
	LogLevel      dblog.Level
	LogPath       string
	LogFormat     string
	MetricsAddr   string
}

// Default returns the engine's out-of-the-box settings.
func Default() Config {
	return Config{
		DataDir:     "./data",
		LockTimeout: 300 * time.Second,
		LogLevel:    dblog.LevelInfo,
		LogPath:     "",
		LogFormat:   "text",
		MetricsAddr: ":9090",
	}
}

// InitLogging wires cfg's logging fields into the shared dblog logger.
func (c Config) InitLogging() error {
	return dblog.Init(dblog.Config{
		Level:      c.LogLevel,
		OutputPath: c.LogPath,
		Format:     c.LogFormat,
	})
}

// Apply pushes cfg's non-logging tunables (currently just the lock
// timeout) into the packages that hold them as package-level state.
func (c Config) Apply() {
	if c.LockTimeout > 0 {
		txn.LockTimeout = c.LockTimeout
	}
}
