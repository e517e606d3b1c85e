package consensus

import (
	"sort"

	"github.com/bond-aevum/core/pkg/types"
)

// DelegatorShare is one delegator's stake behind a given validator, used
// to split that validator's reward share among its delegators.
type DelegatorShare struct {
	Delegator types.Address
	Amount    uint64
}

// DistributeRewards splits totalMinted across active validators in
// proportion to their dedication score, then splits each validator's
// share among its delegators in proportion to delegation size (spec
// §4.8 "Reward distribution"). The validator processed last in
// canonical (address-sorted) order absorbs the validator-pass remainder,
// and each validator's own address absorbs the remainder of splitting
// its share among delegators, so total distributed never exceeds
// totalMinted and no unit is silently lost.
func DistributeRewards(totalMinted uint64, scores map[types.Address]float64, delegations map[types.Address][]DelegatorShare) map[types.Address]uint64 {
	out := make(map[types.Address]uint64)

	var totalScore float64
	addrs := make([]types.Address, 0, len(scores))
	for addr, s := range scores {
		if s <= 0 {
			continue
		}
		totalScore += s
		addrs = append(addrs, addr)
	}
	if totalScore <= 0 || totalMinted == 0 {
		return out
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })

	var distributed uint64
	for i, addr := range addrs {
		var share uint64
		if i == len(addrs)-1 {
			share = totalMinted - distributed // last validator absorbs the remainder
		} else {
			share = uint64(float64(totalMinted) * scores[addr] / totalScore)
		}
		distributed += share

		delegs := delegations[addr]
		if len(delegs) == 0 {
			out[addr] += share
			continue
		}
		splitAmongDelegators(out, addr, share, delegs)
	}
	return out
}

// splitAmongDelegators divides a validator's reward share among its
// delegators proportional to delegation size, crediting the validator's
// own address with any remainder.
func splitAmongDelegators(out map[types.Address]uint64, validator types.Address, share uint64, delegs []DelegatorShare) {
	var totalDelegated uint64
	for _, d := range delegs {
		totalDelegated += d.Amount
	}
	if totalDelegated == 0 {
		out[validator] += share
		return
	}

	sorted := append([]DelegatorShare(nil), delegs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Delegator.String() < sorted[j].Delegator.String() })

	var distributed uint64
	for _, d := range sorted {
		portion := uint64(float64(share) * float64(d.Amount) / float64(totalDelegated))
		out[d.Delegator] += portion
		distributed += portion
	}
	if remainder := share - distributed; remainder > 0 {
		out[validator] += remainder
	}
}

// ActivityMultiplier scales totalMinted per reward period by network
// activity: low activity raises the per-stake reward, bounded to
// [minMultiplier, maxMultiplier] (spec §4.8 "Network-activity
// multipliers ... within bounded ranges"). activityRatio is the
// period's observed transaction count divided by its expected baseline.
func ActivityMultiplier(activityRatio, minMultiplier, maxMultiplier float64) float64 {
	if activityRatio >= 1 {
		return minMultiplier
	}
	// Linear interpolation: activityRatio 0 -> maxMultiplier, 1 -> minMultiplier.
	m := maxMultiplier - activityRatio*(maxMultiplier-minMultiplier)
	if m < minMultiplier {
		return minMultiplier
	}
	if m > maxMultiplier {
		return maxMultiplier
	}
	return m
}
