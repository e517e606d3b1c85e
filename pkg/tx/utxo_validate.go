package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

// UTXO-aware validation errors (spec §7 "Ledger").
var (
	ErrUtxoNotFound      = errors.New("input pUTXO not found")
	ErrInputOverflow     = errors.New("input values overflow")
	ErrInsufficientValue = errors.New("inputs do not cover outputs")
	ErrCoinbaseImmature  = errors.New("coinbase output has not reached maturity")
)

// UTXOEntry is the UTXO-set's view of one unspent pUTXO: enough for a
// spend attempt to re-derive script and policy context without touching
// the transaction that created it.
type UTXOEntry struct {
	Value          uint64
	ScriptPubKey   types.Script
	Policy         *types.PUtxoPolicy
	IsCoinbase     bool
	CoinbaseHeight uint64
}

// UTXOProvider is the read-only view pkg/tx needs of the UTXO set to
// validate a spend. internal/bond/utxo implements this against the live
// set; internal/bond/mempool implements it against mempool-projected state.
type UTXOProvider interface {
	GetUTXO(outpoint types.Outpoint) (UTXOEntry, error)
	HasUTXO(outpoint types.Outpoint) bool
}

// PolicyChecker evaluates a pUTXO's non-script spend policies (spec §4.3):
// time locks, guardian recovery, MFA, and rate limits. It is orthogonal to
// script execution and kept as an interface so pkg/tx does not depend on
// internal/bond/policy's stateful engine. policyWitness is the spending
// input's PolicyWitness field, never consumed by the script VM; msgHash
// is the same per-input sighash the script's own CHECKSIG verified,
// needed to check a hardware-key MFA factor.
type PolicyChecker interface {
	CheckPolicy(outpoint types.Outpoint, policy *types.PUtxoPolicy, spendValue, height, unixTime uint64, policyWitness []byte, msgHash types.Hash) error
}

// ValidateWithUTXOs performs full validation of a transaction against the
// live UTXO set (spec §4.4 items 2,3,4,5): every referenced pUTXO exists
// and is unspent, coinbase maturity is respected, every input's combined
// script evaluates to true, every pUTXO policy is satisfied, and
// Σinput ≥ Σoutput. Returns the fee.
func (t *Transaction) ValidateWithUTXOs(
	provider UTXOProvider,
	policy PolicyChecker,
	height uint64,
	unixTime uint64,
) (uint64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	if t.IsCoinbase() {
		// Coinbase issuance is checked against block_reward + fees by the
		// block validator (pkg/block), which has visibility into every
		// transaction in the block; pkg/tx only confirms it is well-formed.
		if _, err := t.TotalOutputValue(); err != nil {
			return 0, err
		}
		return 0, nil
	}

	var totalInput uint64

	for i, in := range t.Inputs {
		if !provider.HasUTXO(in.PrevOut) {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, ErrUtxoNotFound)
		}
		entry, err := provider.GetUTXO(in.PrevOut)
		if err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}

		if entry.IsCoinbase && height < entry.CoinbaseHeight+config.BondCoinbaseMaturity {
			return 0, fmt.Errorf("input %d (%s): %w: matures at height %d, spend at %d",
				i, in.PrevOut, ErrCoinbaseImmature, entry.CoinbaseHeight+config.BondCoinbaseMaturity, height)
		}

		sighash := t.SighashForInput(i, entry.ScriptPubKey)

		combined := append(append([]byte{}, in.Witness...), entry.ScriptPubKey...)
		ctx := script.Context{
			MsgHash:  sighash,
			Height:   height,
			UnixTime: unixTime,
		}
		if err := script.Execute(combined, ctx); err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}

		if entry.Policy != nil && !entry.Policy.IsEmpty() {
			if policy == nil {
				return 0, fmt.Errorf("input %d: pUTXO carries a policy but no policy checker was supplied", i)
			}
			if err := policy.CheckPolicy(in.PrevOut, entry.Policy, entry.Value, height, unixTime, in.PolicyWitness, sighash); err != nil {
				return 0, fmt.Errorf("input %d: %w", i, err)
			}
		}

		if totalInput > math.MaxUint64-entry.Value {
			return 0, fmt.Errorf("input %d: %w", i, ErrInputOverflow)
		}
		totalInput += entry.Value
	}

	totalOutput, err := t.TotalOutputValue()
	if err != nil {
		return 0, err
	}
	if totalInput < totalOutput {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrInsufficientValue, totalInput, totalOutput)
	}

	return totalInput - totalOutput, nil
}
