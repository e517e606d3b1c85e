// Package consensus implements Aevum's Proof-of-Dedication (spec §4.8):
// the dedication-score formula, VRF-weighted validator selection,
// BFT-style finality voting, and slashing.
package consensus

import (
	"math"

	"github.com/bond-aevum/core/config"
	"gonum.org/v1/gonum/stat"
)

// ValidatorInput holds the raw, unweighted measurements DedicationScore
// combines into a single total_score (spec §4.8).
type ValidatorInput struct {
	StakeAmount     uint64  // base units locked
	LockDays        uint64  // commitment length
	UptimeRatio     float64 // in [0, 1]
	VotesCast       uint64
	VotesAvailable  uint64 // 0 means no finality window has opened yet for this validator
}

// DedicationScore computes total_score per spec §4.8:
//
//	stake_weight    = stake_amount
//	time_commitment = log(1 + lock_days) * K_t
//	reliability     = uptime_ratio^p * K_u
//	engagement      = (votes_cast / votes_available) * K_g
//	total_score     = weighted_mean([stake_weight, time_commitment, reliability, engagement],
//	                                [w_s, w_t, w_u, w_g])
//
// K_t, K_u, K_g fold into the w_t/w_u/w_g weight fields themselves
// (config.AevumPoDParams has no separate K_* fields — see DESIGN.md), so
// the weighted mean both scales and combines the four components in one
// step.
func DedicationScore(p config.AevumPoDParams, in ValidatorInput) float64 {
	stakeWeight := float64(in.StakeAmount)
	timeCommitment := math.Log1p(float64(in.LockDays))
	reliability := math.Pow(clamp01(in.UptimeRatio), p.ReliabilityExponent)

	var engagement float64
	if in.VotesAvailable > 0 {
		engagement = float64(in.VotesCast) / float64(in.VotesAvailable)
	}
	// Zero engagement validators still score > 0 (non-exclusionary, spec
	// §8): engagement is additive alongside stake/time/reliability, never
	// a multiplicative gate.

	values := []float64{stakeWeight, timeCommitment, reliability, engagement}
	weights := []float64{p.StakeWeight, p.TimeWeight, p.ReliabilityWeight, p.EngagementWeight}
	return stat.Mean(values, weights)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
