package config

import "testing"

func TestDefaultMainnet_IsValid(t *testing.T) {
	cfg := DefaultMainnet()
	if err := Validate(cfg); err != nil {
		t.Errorf("default mainnet config should validate: %v", err)
	}
}

func TestDefaultTestnet_IsValid(t *testing.T) {
	cfg := DefaultTestnet()
	if err := Validate(cfg); err != nil {
		t.Errorf("default testnet config should validate: %v", err)
	}
	if cfg.Network != NetworkTestnet {
		t.Error("expected testnet network")
	}
	if cfg.P2P.Port == DefaultMainnet().P2P.Port {
		t.Error("expected testnet to use a distinct p2p port from mainnet")
	}
}

func TestDefault_SelectsByNetwork(t *testing.T) {
	if Default(NetworkTestnet).Network != NetworkTestnet {
		t.Error("expected Default(NetworkTestnet) to return testnet config")
	}
	if Default(NetworkMainnet).Network != NetworkMainnet {
		t.Error("expected Default(NetworkMainnet) to return mainnet config")
	}
}

func TestValidate_RejectsNilConfig(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestValidate_RejectsUnknownNetwork(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Network = NetworkType("bogus")
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unknown network")
	}
}

func TestValidate_RejectsOutOfRangePorts(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.P2P.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Error("expected error for out-of-range p2p port")
	}

	cfg = DefaultMainnet()
	cfg.RPC.Port = -1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative rpc port")
	}
}

func TestValidate_RejectsMiningWithoutThreads(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.Mining.Enabled = true
	cfg.Mining.Threads = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error for mining enabled with zero threads")
	}
}

func TestConfig_DirectoryHelpers(t *testing.T) {
	cfg := DefaultTestnet()
	cfg.DataDir = "/tmp/bondaevum-test"

	if got := cfg.ChainDataDir(); got != "/tmp/bondaevum-test/testnet" {
		t.Errorf("unexpected chain data dir: %s", got)
	}
	if got := cfg.BondDir(); got != "/tmp/bondaevum-test/testnet/bond" {
		t.Errorf("unexpected bond dir: %s", got)
	}
	if got := cfg.AevumDir(); got != "/tmp/bondaevum-test/testnet/aevum" {
		t.Errorf("unexpected aevum dir: %s", got)
	}
	if got := cfg.BridgeDir(); got != "/tmp/bondaevum-test/testnet/bridge" {
		t.Errorf("unexpected bridge dir: %s", got)
	}
}
