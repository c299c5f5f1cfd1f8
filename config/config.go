// Package config handles application configuration.
//
// Settings come from three layers, later layers winning:
//   - Built-in defaults
//   - The emberw.conf file in the data directory
//   - Command-line flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds runtime wallet configuration.
type Config struct {
	// Core
	DataDir string `conf:"datadir"`

	// RPC endpoint overrides keyed by network ID (rpc.<network-id>).
	// Networks without an override use the registry's built-in URL.
	RPCOverrides map[string]string

	// Per-request RPC timeout.
	RPCTimeout time.Duration `conf:"rpc.timeout"`

	// Price feed
	Price PriceConfig

	// Logging
	Log LogConfig
}

// PriceConfig holds fiat valuation settings.
type PriceConfig struct {
	Enabled bool   `conf:"price.enabled"`
	URL     string `conf:"price.url"` // Price API base URL (empty = default)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ember-wallet
//	macOS:   ~/Library/Application Support/EmberWallet
//	Windows: %APPDATA%\EmberWallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ember-wallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "EmberWallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "EmberWallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "EmberWallet")
	default:
		return filepath.Join(home, ".ember-wallet")
	}
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "emberw.conf")
}

// RPCURL returns the endpoint override for a network, or "" when the
// registry default should be used.
func (c *Config) RPCURL(networkID string) string {
	return c.RPCOverrides[networkID]
}
