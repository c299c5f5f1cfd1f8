package config

import "time"

// DefaultRPCTimeout bounds each RPC call when no override is configured.
const DefaultRPCTimeout = 10 * time.Second

// Default returns the built-in wallet configuration.
func Default() *Config {
	return &Config{
		DataDir:      DefaultDataDir(),
		RPCOverrides: make(map[string]string),
		RPCTimeout:   DefaultRPCTimeout,
		Price: PriceConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
