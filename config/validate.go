package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.RPCTimeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}

	for id, endpoint := range cfg.RPCOverrides {
		if err := validateEndpoint(endpoint); err != nil {
			return fmt.Errorf("rpc.%s: %w", id, err)
		}
	}
	if cfg.Price.URL != "" {
		if err := validateEndpoint(cfg.Price.URL); err != nil {
			return fmt.Errorf("price.url: %w", err)
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("URL scheme must be http(s) or ws(s)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
