// Package config handles application configuration for both ledgers and
// the bridge between them.
//
// Configuration is split into two categories, matching how a real
// multi-chain node is run:
//   - Protocol rules: defined in genesis, immutable, must match across all
//     nodes of a given ledger or consensus breaks.
//   - Node settings: runtime configuration, can vary per node.
package config

import "math"

// Denomination constants. 1 coin = 10^12 base units on both ledgers.
const (
	Decimals  = 12
	Coin      = 1_000_000_000_000
	MilliCoin = 1_000_000_000
	MicroCoin = 1_000_000
)

// Bond (UTXO chain) consensus-critical structural limits.
const (
	BondMaxBlockSize      = 1_000_000 // spec §4.4 item 6
	BondMaxBlockTxs        = 20_000
	BondMaxTxInputs        = 2500
	BondMaxTxOutputs       = 2500
	BondMaxScriptData      = 65_536
	BondCoinbaseMaturity   uint64 = 100 // spec §4.4 item 4
)

// MaxTokenAmount bounds any single pUTXO value so that summing up to
// 1000 of them can never overflow a uint64.
const MaxTokenAmount = math.MaxUint64 / 1000

// BondPoWParams holds the Nakamoto PoW protocol parameters (spec §4.6).
type BondPoWParams struct {
	TargetBlockTimeSeconds  uint64
	RetargetIntervalBlocks  uint64 // 2016, spec §4.6
	RetargetClampFactor     int64  // 4, spec §4.6: new target in [old/4, old*4]
	InitialTarget           [32]byte
	MinAnnualInflationBps   int64 // 184 = 1.84%
	MaxAnnualInflationBps   int64 // 372 = 3.72%
}

// DefaultBondPoWParams mirrors Bitcoin's cadence: 10 minute blocks, 2016
// block retarget windows (~2 weeks), clamped to a 4x swing per window.
func DefaultBondPoWParams() BondPoWParams {
	p := BondPoWParams{
		TargetBlockTimeSeconds: 600,
		RetargetIntervalBlocks: 2016,
		RetargetClampFactor:    4,
		MinAnnualInflationBps:  184,
		MaxAnnualInflationBps:  372,
	}
	for i := range p.InitialTarget {
		p.InitialTarget[i] = 0xff
	}
	p.InitialTarget[0] = 0x00
	p.InitialTarget[1] = 0x00
	return p
}

// AevumPoDParams holds the Proof-of-Dedication protocol parameters
// (spec §4.8): weighting coefficients for the dedication score and the
// BFT finality threshold. K_t, K_u, K_g (spec §4.8's per-component
// scaling constants) fold directly into the corresponding Weight field
// below rather than existing as separate fields, since nothing else ever
// needs the unscaled component — see internal/aevum/consensus.
type AevumPoDParams struct {
	StakeWeight                  float64 // w_s
	TimeWeight                   float64 // w_t, applied to a log-scaled time commitment
	ReliabilityWeight            float64 // w_u
	EngagementWeight             float64 // w_g, applied linearly to engagement
	ReliabilityExponent          float64 // p, convex penalty exponent on uptime
	FinalityThresholdNumerator   int64   // 2
	FinalityThresholdDenominator int64   // 3, i.e. >2/3 voting power
	SlashingFractionBps          int64   // basis points of stake slashed on equivocation
	BlockTimeSeconds             uint64
}

// DefaultAevumPoDParams returns the baseline PoD weighting used at genesis.
func DefaultAevumPoDParams() AevumPoDParams {
	return AevumPoDParams{
		StakeWeight:                   0.45,
		TimeWeight:                    0.2,
		ReliabilityWeight:             0.25,
		EngagementWeight:              0.1,
		ReliabilityExponent:           2.0,
		FinalityThresholdNumerator:    2,
		FinalityThresholdDenominator:  3,
		SlashingFractionBps:           500, // 5%
		BlockTimeSeconds:              2,
	}
}

// BridgeParams holds the inter-ledger bridge's confirmation depths and
// timeout windows (spec §4.10).
type BridgeParams struct {
	BondConfirmations   uint64 // blocks before a Bond lock is SourceConfirmed
	AevumConfirmations  uint64 // blocks before an Aevum burn is SourceConfirmed
	PendingTimeoutBlocks uint64
}

// DefaultBridgeParams mirrors common exchange deposit-confirmation depths:
// deep enough on Bond (PoW, probabilistic finality) to make a reorg past
// the point of mint practically free of double-mint risk, shallow on
// Aevum (BFT finality) because finalized blocks cannot revert.
func DefaultBridgeParams() BridgeParams {
	return BridgeParams{
		BondConfirmations:    6, // spec §4.10: 6 Bond confirmations
		AevumConfirmations:   3, // spec §4.10: 3 Aevum confirmations
		PendingTimeoutBlocks: 1008, // ~1 week of Bond blocks
	}
}

// ProtocolParams bundles both ledgers' and the bridge's consensus-critical
// parameters. A node loads exactly one of these per network (mainnet,
// testnet) and every peer must agree on its values.
type ProtocolParams struct {
	Bond   BondPoWParams
	Aevum  AevumPoDParams
	Bridge BridgeParams
}

// DefaultProtocolParams returns the mainnet parameter set.
func DefaultProtocolParams() ProtocolParams {
	return ProtocolParams{
		Bond:   DefaultBondPoWParams(),
		Aevum:  DefaultAevumPoDParams(),
		Bridge: DefaultBridgeParams(),
	}
}
