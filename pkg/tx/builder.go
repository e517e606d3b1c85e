package tx

import (
	"fmt"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{tx: &Transaction{Version: 1}}
}

// AddInput adds an input referencing a previous output. Witness is filled
// in later via SignP2PKH/SetWitness once the full input set is known.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddOutput adds a plain (unpolicied) output.
func (b *Builder) AddOutput(value uint64, scriptPubKey types.Script) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Value: value, ScriptPubKey: scriptPubKey})
	return b
}

// AddPolicyOutput adds a pUTXO carrying the given orthogonal spend policy.
func (b *Builder) AddPolicyOutput(value uint64, scriptPubKey types.Script, policy *types.PUtxoPolicy) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Value: value, ScriptPubKey: scriptPubKey, Policy: policy})
	return b
}

// SetLockTime sets the transaction lock time.
func (b *Builder) SetLockTime(lockTime uint64) *Builder {
	b.tx.LockTime = lockTime
	return b
}

// SetWitness sets the raw script_sig for one input directly, for spend
// predicates the builder has no dedicated helper for (multisig, guardian
// recovery, MFA-gated spends).
func (b *Builder) SetWitness(inputIndex int, witness types.Script) *Builder {
	if inputIndex >= 0 && inputIndex < len(b.tx.Inputs) {
		b.tx.Inputs[inputIndex].Witness = witness
	}
	return b
}

// SetPolicyWitness attaches the extra proof material a pUTXO policy needs
// (guardian recovery signatures, MFA factors) to one input. It is never
// inspected by the script VM (spec §4.3).
func (b *Builder) SetPolicyWitness(inputIndex int, policyWitness types.Script) *Builder {
	if inputIndex >= 0 && inputIndex < len(b.tx.Inputs) {
		b.tx.Inputs[inputIndex].PolicyWitness = policyWitness
	}
	return b
}

// SignP2PKH signs a single-key P2PKH input, computing the classic sighash
// against the referenced output's script_pubkey and writing
// <sig><pubkey> as the witness.
func (b *Builder) SignP2PKH(inputIndex int, prevScriptPubKey types.Script, key *crypto.PrivateKey) error {
	if inputIndex < 0 || inputIndex >= len(b.tx.Inputs) {
		return fmt.Errorf("sign p2pkh: input index %d out of range", inputIndex)
	}
	hash := b.tx.SighashForInput(inputIndex, prevScriptPubKey)
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign p2pkh: %w", err)
	}
	b.tx.Inputs[inputIndex].Witness = script.P2PKHWitness(sig, key.PublicKey())
	return nil
}

// Build returns the constructed transaction. Does not validate — call
// tx.Validate() or tx.ValidateWithUTXOs() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
