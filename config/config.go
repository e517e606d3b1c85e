package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config holds node-specific runtime configuration: settings that can
// vary between nodes without breaking consensus, unlike the protocol
// parameters and genesis allocations above.
type Config struct {
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	P2P    P2PConfig
	RPC    RPCConfig
	Wallet WalletConfig
	Mining MiningConfig
	Bridge BridgeWatcherConfig
	Log    LogConfig
}

// P2PConfig holds peer-to-peer network settings for the Bond and Aevum
// gossip networks (interface only; spec non-goals exclude a concrete
// wire protocol, see internal/ports/network.go).
type P2PConfig struct {
	Enabled    bool     `conf:"p2p.enabled"`
	ListenAddr string   `conf:"p2p.listen"`
	Port       int      `conf:"p2p.port"`
	Seeds      []string `conf:"p2p.seeds"`
	MaxPeers   int      `conf:"p2p.maxpeers"`
}

// RPCConfig holds the JSON-RPC server's settings.
type RPCConfig struct {
	Enabled    bool     `conf:"rpc.enabled"`
	Addr       string   `conf:"rpc.addr"`
	Port       int      `conf:"rpc.port"`
	AllowedIPs []string `conf:"rpc.allowed"`
}

// WalletConfig holds the node's built-in wallet settings.
type WalletConfig struct {
	Enabled  bool   `conf:"wallet.enabled"`
	FilePath string `conf:"wallet.file"`
}

// MiningConfig holds Bond block-production settings. Whether to mine is
// a node choice; how a mined block must look is protocol.
type MiningConfig struct {
	Enabled bool `conf:"mining.enabled"`
	// Coinbase is the 32-byte hex-encoded owner hash (the full
	// crypto.Hash(pubKey), not a truncated 20-byte address) that mined
	// block rewards lock to, matching the P2PKH predicate pkg/script
	// builds and the owner index internal/bond/utxo.Store queries by.
	Coinbase string `conf:"mining.coinbase"`
	Threads  int    `conf:"mining.threads"`
}

// BridgeWatcherConfig controls whether this node also runs the
// inter-ledger bridge's confirmation watcher (spec §4.10); a node can
// run Bond and/or Aevum without also relaying bridge transfers.
type BridgeWatcherConfig struct {
	Enabled bool `conf:"bridge.enabled"`
}

// LogConfig holds zerolog output settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bondaevum"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "BondAevum")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "BondAevum")
		}
		return filepath.Join(home, "AppData", "Roaming", "BondAevum")
	default:
		return filepath.Join(home, ".bondaevum")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// BondDir returns the Bond chain/UTXO storage directory.
func (c *Config) BondDir() string {
	return filepath.Join(c.ChainDataDir(), "bond")
}

// AevumDir returns the Aevum account/state storage directory.
func (c *Config) AevumDir() string {
	return filepath.Join(c.ChainDataDir(), "aevum")
}

// BridgeDir returns the bridge transfer-state storage directory.
func (c *Config) BridgeDir() string {
	return filepath.Join(c.ChainDataDir(), "bridge")
}

// WalletDir returns the wallet storage directory.
func (c *Config) WalletDir() string {
	return filepath.Join(c.ChainDataDir(), "wallet")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "bondaevum.conf")
}
