package config

import (
	"flag"
	"strings"
)

// Flags holds parsed command-line flags, grounded on the teacher's
// config.Flags (same flag-set-per-subsystem layout, trimmed to this
// repo's node settings — no sub-chain sync/mine flags, since the
// bridge replaces the teacher's generic sub-chain registry).
type Flags struct {
	Help    bool
	Version bool

	Network string
	DataDir string

	RPC        bool
	SetRPC     bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed string

	Wallet     bool
	SetWallet  bool
	WalletFile string

	Mine         bool
	SetMine      bool
	Coinbase     string
	ValidatorKey string

	Bridge    bool
	SetBridge bool

	LogLevel string
	LogFile  string
	LogJSON  bool
}

// ParseFlags parses os.Args[1:]-equivalent arguments into a Flags value.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("bondaevumd", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "show help message")
	fs.BoolVar(&f.Version, "version", false, "show version information")

	fs.StringVar(&f.Network, "network", "", "network type (mainnet or testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "data directory path")

	fs.BoolVar(&f.RPC, "rpc", true, "enable the JSON-RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "JSON-RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "JSON-RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "comma-separated list of allowed RPC client IPs/CIDRs")

	fs.BoolVar(&f.Wallet, "wallet", false, "enable the built-in wallet keystore")
	fs.StringVar(&f.WalletFile, "wallet-file", "", "wallet keystore directory")

	fs.BoolVar(&f.Mine, "mine", false, "mine Bond blocks")
	fs.StringVar(&f.Coinbase, "coinbase", "", "32-byte hex-encoded owner hash to receive Bond mining rewards")
	fs.StringVar(&f.ValidatorKey, "validator-key", "", "path to an Aevum validator ML-DSA key file")

	fs.BoolVar(&f.Bridge, "bridge", false, "run the inter-ledger bridge watcher")

	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "emit JSON-formatted logs")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "-rpc=") || a == "-rpc" || strings.HasPrefix(a, "--rpc="):
			f.SetRPC = true
		case strings.HasPrefix(a, "-wallet=") || a == "-wallet":
			f.SetWallet = true
		case strings.HasPrefix(a, "-mine=") || a == "-mine":
			f.SetMine = true
		case strings.HasPrefix(a, "-bridge=") || a == "-bridge":
			f.SetBridge = true
		}
	}

	return f, nil
}

// Load builds a Config by layering command-line flags over the network's
// defaults (spec has no config-file format, so unlike the teacher's
// three-stage default -> file -> flags merge, this is a two-stage
// default -> flags merge).
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}

	network := NetworkMainnet
	if flags.Network == string(NetworkTestnet) {
		network = NetworkTestnet
	}
	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if flags.SetRPC {
		cfg.RPC.Enabled = flags.RPC
	}
	if flags.RPCAddr != "" {
		cfg.RPC.Addr = flags.RPCAddr
	}
	if flags.RPCPort != 0 {
		cfg.RPC.Port = flags.RPCPort
	}
	if flags.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = strings.Split(flags.RPCAllowed, ",")
	}
	if flags.SetWallet {
		cfg.Wallet.Enabled = flags.Wallet
	}
	if flags.WalletFile != "" {
		cfg.Wallet.FilePath = flags.WalletFile
	}
	if flags.SetMine {
		cfg.Mining.Enabled = flags.Mine
	}
	if flags.Coinbase != "" {
		cfg.Mining.Coinbase = flags.Coinbase
	}
	if flags.SetBridge {
		cfg.Bridge.Enabled = flags.Bridge
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFile != "" {
		cfg.Log.File = flags.LogFile
	}
	if flags.LogJSON {
		cfg.Log.JSON = true
	}

	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}
