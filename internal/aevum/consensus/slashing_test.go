package consensus

import (
	"testing"

	"github.com/bond-aevum/core/config"
)

func TestSlash_ProportionalReduction(t *testing.T) {
	p := config.DefaultAevumPoDParams() // 500 bps = 5%
	ev := Evidence{Kind: EvidenceDoubleSign, Offender: addrFromByte(1), Height: 1000}
	delegations := []Delegation{
		{Delegator: addrFromByte(2), Amount: 10_000},
		{Delegator: addrFromByte(3), Amount: 1_000},
	}

	result := Slash(p, ev, 100_000, delegations)
	if result.ValidatorSlashed != 5_000 {
		t.Errorf("validator slashed = %d, want 5000", result.ValidatorSlashed)
	}
	if result.DelegatorSlashed[addrFromByte(2)] != 500 {
		t.Errorf("delegator 2 slashed = %d, want 500", result.DelegatorSlashed[addrFromByte(2)])
	}
	if result.DelegatorSlashed[addrFromByte(3)] != 50 {
		t.Errorf("delegator 3 slashed = %d, want 50", result.DelegatorSlashed[addrFromByte(3)])
	}
}

func TestValidatorSet_ApplyToValidatorSet_PartialSlash(t *testing.T) {
	vs := NewValidatorSet(config.DefaultAevumPoDParams())
	addr := addrFromByte(5)
	vs.Upsert(&ValidatorRecord{Address: addr, ValidatorInput: ValidatorInput{StakeAmount: 100_000, UptimeRatio: 1}})

	ev := Evidence{Kind: EvidenceEquivocation, Offender: addr}
	if err := vs.ApplyToValidatorSet(ev, 5_000); err != nil {
		t.Fatalf("ApplyToValidatorSet: %v", err)
	}
	if got := vs.Get(addr); got == nil || got.StakeAmount != 95_000 {
		t.Errorf("expected remaining stake 95000, got %+v", got)
	}
}

func TestValidatorSet_ApplyToValidatorSet_FullSlashRemoves(t *testing.T) {
	vs := NewValidatorSet(config.DefaultAevumPoDParams())
	addr := addrFromByte(6)
	vs.Upsert(&ValidatorRecord{Address: addr, ValidatorInput: ValidatorInput{StakeAmount: 1_000, UptimeRatio: 1}})

	ev := Evidence{Kind: EvidenceDoubleSign, Offender: addr}
	if err := vs.ApplyToValidatorSet(ev, 1_000); err != nil {
		t.Fatalf("ApplyToValidatorSet: %v", err)
	}
	if vs.Get(addr) != nil {
		t.Error("fully slashed validator should be removed from the set")
	}
}

func TestValidatorSet_ApplyToValidatorSet_UnknownOffender(t *testing.T) {
	vs := NewValidatorSet(config.DefaultAevumPoDParams())
	ev := Evidence{Kind: EvidenceDoubleSign, Offender: addrFromByte(9)}
	if err := vs.ApplyToValidatorSet(ev, 100); err != ErrUnknownOffender {
		t.Errorf("got %v, want ErrUnknownOffender", err)
	}
}
