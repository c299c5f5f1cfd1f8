package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	// Endpoint overrides: rpc.<network-id> = https://...
	// rpc.timeout is the one reserved key under the rpc prefix.
	if id, ok := strings.CutPrefix(key, "rpc."); ok && id != "timeout" {
		if cfg.RPCOverrides == nil {
			cfg.RPCOverrides = make(map[string]string)
		}
		cfg.RPCOverrides[id] = value
		return nil
	}

	switch key {
	// Core
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.timeout":
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPCTimeout = time.Duration(seconds) * time.Second

	// Price feed
	case "price.enabled", "price":
		cfg.Price.Enabled = parseBool(value)
	case "price.url":
		cfg.Price.URL = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Load reads the config file at path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Ember Wallet Configuration

# Data directory (default: ~/.ember-wallet)
# datadir = ~/.ember-wallet

# ============================================================================
# RPC Endpoints
# ============================================================================

# Per-request timeout in seconds
rpc.timeout = 10

# Endpoint overrides (default: built-in public endpoints)
# rpc.ethereum = https://eth.example.com
# rpc.bsc = https://bsc.example.com
# rpc.polygon = https://polygon.example.com

# ============================================================================
# Price Feed
# ============================================================================

# Fetch fiat valuations alongside balances
price.enabled = true

# Price API base URL (default: CoinGecko)
# price.url = https://api.coingecko.com/api/v3

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
