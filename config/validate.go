package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != NetworkMainnet && cfg.Network != NetworkTestnet {
		return fmt.Errorf("network must be %q or %q", NetworkMainnet, NetworkTestnet)
	}
	if cfg.P2P.Port < 0 || cfg.P2P.Port > 65535 {
		return fmt.Errorf("p2p.port must be in range [0, 65535]")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.Mining.Enabled && cfg.Mining.Threads < 1 {
		return fmt.Errorf("mining.threads must be >= 1 when mining is enabled")
	}
	return nil
}
