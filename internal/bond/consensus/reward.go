package consensus

import (
	"math/big"

	"github.com/bond-aevum/core/pkg/types"
)

// EstimateHashrateRatio derives a deterministic hashrate estimate from the
// chain's own difficulty history, so every node computing a block's reward
// reaches the same answer without an oracle: current network work relative
// to the work required at genesis, clamped to [0,1]. A target at or
// harder than genesis's saturates at 1.0 (minimum inflation); an easier
// target gives the proportionally smaller work ratio, moving toward 0.0
// (maximum inflation).
func EstimateHashrateRatio(genesisTarget, currentTarget types.DifficultyTarget) float64 {
	genesisWork := new(big.Float).SetInt(genesisTarget.Work())
	currentWork := new(big.Float).SetInt(currentTarget.Work())
	if genesisWork.Sign() <= 0 {
		return 0
	}
	ratio, _ := new(big.Float).Quo(currentWork, genesisWork).Float64()
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// BlocksPerYear assumes the protocol's target block time holds on
// average; used only to spread annual inflation across per-block
// rewards, not as a consensus-enforced block count.
func BlocksPerYear(targetBlockTimeSeconds uint64) uint64 {
	const secondsPerYear = 365 * 24 * 60 * 60
	return secondsPerYear / targetBlockTimeSeconds
}

// inflationBpsForHashrate maps a hashrate reading onto the configured
// inflation band: lower hashrate (weaker security) pushes inflation
// toward the high end to subsidize mining; higher hashrate pushes it
// toward the low end. hashrateRatio is the current estimate divided by
// a reference hashrate the network considers "fully secured" (1.0 or
// higher clamps to the minimum inflation; 0 clamps to the maximum).
func inflationBpsForHashrate(minBps, maxBps int64, hashrateRatio float64) int64 {
	if hashrateRatio < 0 {
		hashrateRatio = 0
	}
	if hashrateRatio > 1 {
		hashrateRatio = 1
	}
	span := float64(maxBps - minBps)
	bps := float64(maxBps) - span*hashrateRatio
	return int64(bps)
}

// BlockReward computes the per-block coinbase issuance (spec §4.6):
//
//	annual_inflation = lerp(max_bps, min_bps, hashrate_ratio)
//	reward = floor(annual_inflation * total_supply / blocks_per_year)
//
// hashrateRatio is the node's current hashrate estimate relative to a
// reference "secure" hashrate; see inflationBpsForHashrate.
func BlockReward(minBps, maxBps int64, totalSupply uint64, targetBlockTimeSeconds uint64, hashrateRatio float64) uint64 {
	bps := inflationBpsForHashrate(minBps, maxBps, hashrateRatio)

	supply := new(big.Int).SetUint64(totalSupply)
	numerator := new(big.Int).Mul(supply, big.NewInt(bps))

	blocksPerYear := BlocksPerYear(targetBlockTimeSeconds)
	denominator := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(int64(blocksPerYear)))

	reward := new(big.Int).Div(numerator, denominator)
	if !reward.IsUint64() {
		return ^uint64(0)
	}
	return reward.Uint64()
}
