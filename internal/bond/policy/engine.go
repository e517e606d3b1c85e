package policy

import (
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

// Engine evaluates every pUTXO policy family against a spend attempt. It
// implements pkg/tx's PolicyChecker interface; internal/bond/chain wires
// it into block and mempool validation.
type Engine struct {
	Recovery RecoveryStore
	Verify   script.Verifier
}

// NewEngine returns an Engine backed by the given recovery store. A nil
// store is valid for pUTXO sets that never use guardian recovery.
func NewEngine(recovery RecoveryStore) *Engine {
	return &Engine{Recovery: recovery, Verify: script.DefaultVerifier}
}

// CheckPolicy satisfies tx.PolicyChecker, evaluating every configured
// policy family in turn: time locks, guardian recovery, MFA, then rate
// limit. msgHash is the spend's per-input sighash, needed to verify a
// hardware-key MFA factor.
func (e *Engine) CheckPolicy(
	outpoint types.Outpoint,
	policy *types.PUtxoPolicy,
	spendValue, height, unixTime uint64,
	policyWitness []byte,
	msgHash types.Hash,
) error {
	if policy.IsEmpty() {
		return nil
	}

	if len(policy.TimeLocks) > 0 {
		if err := CheckTimeLocks(policy.TimeLocks, height, unixTime); err != nil {
			return err
		}
	}

	if policy.Guardian != nil {
		if e.Recovery == nil {
			return ErrRecoveryNotInitiated
		}
		if err := CheckGuardianRecovery(e.Recovery, outpoint, policy.Guardian, height); err != nil {
			return err
		}
	}

	if policy.MFA != nil {
		verify := e.Verify
		if verify == nil {
			verify = script.DefaultVerifier
		}
		if err := CheckMFA(policy.MFA.Methods, policyWitness, msgHash, verify, unixTime); err != nil {
			return err
		}
	}

	if policy.RateLimit != nil {
		if err := CheckAndRollRateLimit(policy.RateLimit, spendValue, unixTime); err != nil {
			return err
		}
	}

	return nil
}

// RecordRecoveryInitiation marks a recovery as initiated at height, for
// policies whose Guardian recovery is being exercised. Called by
// internal/bond/mempool when it rejects a premature guardian spend
// attempt, treating that attempt as the initiation signal — a confirmed
// block can never contain a transaction that failed policy checks, so
// confirmation time is too late to detect one. Nothing calls
// MemRecoveryStore.Forget, so a recorded initiation stays recorded.
func (e *Engine) RecordRecoveryInitiation(outpoint types.Outpoint, height uint64) {
	if e.Recovery != nil {
		e.Recovery.RecordInitiation(outpoint, height)
	}
}
