package consensus

import (
	"errors"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/types"
)

var ErrUnknownOffender = errors.New("slashing evidence names an unregistered validator")

// EvidenceKind identifies the class of equivocation slashing punishes
// (spec §4.8).
type EvidenceKind uint8

const (
	EvidenceDoubleSign EvidenceKind = iota
	EvidenceLongRangeVote
	EvidenceEquivocation
)

func (k EvidenceKind) String() string {
	switch k {
	case EvidenceDoubleSign:
		return "double_sign"
	case EvidenceLongRangeVote:
		return "long_range_vote"
	case EvidenceEquivocation:
		return "equivocation"
	default:
		return "unknown"
	}
}

// Evidence names a validator and the conflicting signed artifacts proving
// misbehavior. The artifacts themselves (conflicting block hashes, vote
// signatures) are opaque to this package — verifying they genuinely
// conflict is the RPC/P2P boundary's job; Slash only applies the
// punishment once evidence is accepted.
type Evidence struct {
	Kind      EvidenceKind
	Offender  types.Address
	Height    uint64
}

// Delegation is one delegator's stake behind a validator, used to
// proportionally reduce every delegator's stake alongside the
// validator's own when a slash occurs (spec §4.8).
type Delegation struct {
	Delegator types.Address
	Amount    uint64
}

// SlashResult reports the stake confiscated from the offending validator
// and each of its delegators, for the caller to apply to account/state
// balances and to credit to the reward pool or burn per protocol policy.
type SlashResult struct {
	Evidence        Evidence
	ValidatorSlashed uint64
	DelegatorSlashed map[types.Address]uint64
}

// Slash computes the stake confiscated from a validator and its
// delegators per the protocol's SlashingFractionBps (spec §4.8): the
// offender's own stake is reduced by that fraction, and every
// delegator's stake behind that validator is reduced by the same
// fraction (proportional reduction, not a flat amount), so a delegator
// who backed a misbehaving validator shares the penalty in proportion to
// their delegation size.
func Slash(p config.AevumPoDParams, ev Evidence, validatorStake uint64, delegations []Delegation) SlashResult {
	fraction := float64(p.SlashingFractionBps) / 10_000

	result := SlashResult{
		Evidence:         ev,
		ValidatorSlashed: uint64(float64(validatorStake) * fraction),
		DelegatorSlashed: make(map[types.Address]uint64, len(delegations)),
	}
	for _, d := range delegations {
		result.DelegatorSlashed[d.Delegator] = uint64(float64(d.Amount) * fraction)
	}
	return result
}

// ApplyToValidatorSet removes the slashed amount from vs's record for the
// offender, deleting the validator entirely if its remaining stake is
// zero (it can no longer be selected — spec §4.8's "every validator with
// positive score" guarantee only covers validators that still have
// stake).
func (vs *ValidatorSet) ApplyToValidatorSet(ev Evidence, slashed uint64) error {
	r := vs.Get(ev.Offender)
	if r == nil {
		return ErrUnknownOffender
	}
	if slashed >= r.StakeAmount {
		vs.Remove(ev.Offender)
		return nil
	}
	r.StakeAmount -= slashed
	vs.Upsert(r)
	return nil
}
