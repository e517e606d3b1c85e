package config

import "testing"

func TestBondMainnetGenesis_HasProtocol(t *testing.T) {
	g := BondMainnetGenesis()
	if g.ChainID == "" {
		t.Error("expected a non-empty chain id")
	}
	if g.Protocol.TargetBlockTimeSeconds == 0 {
		t.Error("expected default protocol params to be populated")
	}
}

func TestBondTestnetGenesis_DiffersFromMainnet(t *testing.T) {
	main := BondMainnetGenesis()
	test := BondTestnetGenesis()
	if main.ChainID == test.ChainID {
		t.Error("testnet and mainnet chain ids must differ")
	}
	if main.Protocol != test.Protocol {
		t.Error("testnet should share mainnet's protocol parameters")
	}
}

func TestAevumMainnetGenesis_HasProtocol(t *testing.T) {
	g := AevumMainnetGenesis()
	if g.ChainID == "" {
		t.Error("expected a non-empty chain id")
	}
	if g.Protocol.BlockTimeSeconds == 0 {
		t.Error("expected default protocol params to be populated")
	}
}

func TestAevumTestnetGenesis_DiffersFromMainnet(t *testing.T) {
	main := AevumMainnetGenesis()
	test := AevumTestnetGenesis()
	if main.ChainID == test.ChainID {
		t.Error("testnet and mainnet chain ids must differ")
	}
}
