package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/types"
)

// Structural validation errors (spec §7 "Structural").
var (
	ErrNoInputs         = errors.New("transaction has no inputs")
	ErrNoOutputs        = errors.New("transaction has no outputs")
	ErrDuplicateInput   = errors.New("duplicate input")
	ErrOutputOverflow   = errors.New("output values overflow")
	ErrZeroValueOutput  = errors.New("output value is zero")
	ErrTooManyInputs    = errors.New("too many inputs")
	ErrTooManyOutputs   = errors.New("too many outputs")
	ErrOversizedScript  = errors.New("output script exceeds maximum size")
	ErrMissingWitness   = errors.New("input missing witness")
	ErrMalformedTx      = errors.New("malformed transaction")
)

// Validate checks transaction structure per spec §4.4 item 1. It does not
// check UTXO existence, script execution, or policy satisfaction — those
// require the UTXO set (ValidateWithUTXOs).
func (t *Transaction) Validate() error {
	if len(t.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(t.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(t.Inputs) > config.BondMaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(t.Inputs), config.BondMaxTxInputs)
	}
	if len(t.Outputs) > config.BondMaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(t.Outputs), config.BondMaxTxOutputs)
	}

	seen := make(map[types.Outpoint]bool, len(t.Inputs))
	for i, in := range t.Inputs {
		if seen[in.PrevOut] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.PrevOut] = true
	}

	if !t.IsCoinbase() {
		for i, in := range t.Inputs {
			if len(in.Witness) == 0 {
				return fmt.Errorf("input %d: %w", i, ErrMissingWitness)
			}
		}
	}

	var totalOutput uint64
	for i, out := range t.Outputs {
		if out.Value == 0 {
			return fmt.Errorf("output %d: %w", i, ErrZeroValueOutput)
		}
		if len(out.ScriptPubKey) > config.BondMaxScriptData {
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrOversizedScript, len(out.ScriptPubKey), config.BondMaxScriptData)
		}
		if err := out.ScriptPubKey.Validate(); err != nil {
			return fmt.Errorf("output %d: %w: %v", i, ErrMalformedTx, err)
		}
		if totalOutput > math.MaxUint64-out.Value {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		totalOutput += out.Value
	}

	if len(t.SigningBytes()) > config.BondMaxBlockSize {
		return fmt.Errorf("%w: transaction exceeds block size cap", ErrMalformedTx)
	}

	return nil
}
