package consensus

import (
	"fmt"
	"math/big"

	"github.com/bond-aevum/core/pkg/types"
)

// TimestampLookup retrieves a Bond block's timestamp by height, used to
// measure a retarget window's actual time span.
type TimestampLookup func(height uint64) (uint64, error)

// GenesisTarget decodes the protocol's configured initial target.
func (p *PoW) GenesisTarget() types.DifficultyTarget {
	return types.NewDifficultyTarget(new(big.Int).SetBytes(p.Params.InitialTarget[:]))
}

// ExpectedTarget computes the target a block at height must encode,
// given the previous block's target and a way to look up historical
// timestamps (spec §4.6). Outside a retarget boundary the target is
// unchanged from the previous block.
func (p *PoW) ExpectedTarget(height uint64, prevTarget types.DifficultyTarget, getTimestamp TimestampLookup) (types.DifficultyTarget, error) {
	if height == 0 {
		return p.GenesisTarget(), nil
	}
	if !p.ShouldRetarget(height) {
		return prevTarget, nil
	}

	interval := p.Params.RetargetIntervalBlocks
	startTS, err := getTimestamp(height - interval)
	if err != nil {
		return types.DifficultyTarget{}, fmt.Errorf("retarget window start timestamp: %w", err)
	}
	endTS, err := getTimestamp(height - 1)
	if err != nil {
		return types.DifficultyTarget{}, fmt.Errorf("retarget window end timestamp: %w", err)
	}

	actual := int64(endTS - startTS)
	expected := int64(interval * p.Params.TargetBlockTimeSeconds)
	return CalcNextTarget(prevTarget, actual, expected, p.Params.RetargetClampFactor), nil
}

// CalcNextTarget applies the retarget formula (spec §4.6):
//
//	new_target = old_target * (actual_time_span / expected_time_span)
//
// clamped to [old_target/clampFactor, old_target*clampFactor] and capped
// at the maximum representable target (minimum possible difficulty).
func CalcNextTarget(oldTarget types.DifficultyTarget, actualTimeSpan, expectedTimeSpan, clampFactor int64) types.DifficultyTarget {
	if actualTimeSpan <= 0 {
		actualTimeSpan = 1
	}
	if expectedTimeSpan <= 0 {
		expectedTimeSpan = 1
	}

	minSpan := expectedTimeSpan / clampFactor
	if minSpan == 0 {
		minSpan = 1
	}
	maxSpan := expectedTimeSpan * clampFactor
	if actualTimeSpan < minSpan {
		actualTimeSpan = minSpan
	}
	if actualTimeSpan > maxSpan {
		actualTimeSpan = maxSpan
	}

	next := oldTarget.Mul(actualTimeSpan, expectedTimeSpan)

	lo := oldTarget.Div(clampFactor)
	hi := oldTarget.Times(clampFactor)
	next = next.Clamp(lo, hi)

	max := types.MaxTarget()
	if next.Int.Cmp(&max.Int) > 0 {
		next = max
	}
	return next
}

// VerifyTarget checks that a block's encoded target matches the expected
// retarget result for its height.
func VerifyTarget(height uint64, expected, actual types.DifficultyTarget) error {
	if expected.Int.Cmp(&actual.Int) != 0 {
		return fmt.Errorf("%w: height %d", ErrBadDifficulty, height)
	}
	return nil
}
