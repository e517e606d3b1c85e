package config

// DefaultMainnet returns the default node configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: NetworkMainnet,
		DataDir: DefaultDataDir(),
		P2P: P2PConfig{
			Enabled:    true,
			ListenAddr: "0.0.0.0",
			Port:       30303,
			MaxPeers:   50,
			Seeds:      []string{},
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8545,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Wallet: WalletConfig{Enabled: false},
		Mining: MiningConfig{Enabled: false, Threads: 1},
		Bridge: BridgeWatcherConfig{Enabled: false},
		Log:    LogConfig{Level: "info", JSON: false},
	}
}

// DefaultTestnet returns the default node configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = NetworkTestnet
	cfg.P2P.Port = 30403
	cfg.RPC.Port = 8645
	return cfg
}

// Default returns the default node configuration for the given network.
func Default(network NetworkType) *Config {
	if network == NetworkTestnet {
		return DefaultTestnet()
	}
	return DefaultMainnet()
}
