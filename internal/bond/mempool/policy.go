package mempool

import (
	"fmt"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/tx"
)

// DefaultMaxTxSize bounds an individual transaction's signing-byte size,
// well under config.BondMaxBlockSize so a single transaction can never
// by itself make a block unminable.
const DefaultMaxTxSize = 100_000

// Policy defines node-local transaction acceptance rules: stricter than
// consensus (spec §4.4's structural limits), since a node may choose to
// reject transactions a block could still legally contain.
type Policy struct {
	MaxTxSize int
}

// DefaultPolicy returns a policy with sensible defaults.
func DefaultPolicy() *Policy {
	return &Policy{MaxTxSize: DefaultMaxTxSize}
}

// Check validates a transaction against policy rules, re-asserting the
// consensus structural limits as defense-in-depth so a malformed
// transaction is rejected before the more expensive UTXO-aware pass.
func (p *Policy) Check(transaction *tx.Transaction) error {
	size := len(transaction.SigningBytes())
	if p.MaxTxSize > 0 && size > p.MaxTxSize {
		return fmt.Errorf("transaction too large: %d bytes, max %d", size, p.MaxTxSize)
	}
	if len(transaction.Inputs) > config.BondMaxTxInputs {
		return fmt.Errorf("too many inputs: %d, max %d", len(transaction.Inputs), config.BondMaxTxInputs)
	}
	if len(transaction.Outputs) > config.BondMaxTxOutputs {
		return fmt.Errorf("too many outputs: %d, max %d", len(transaction.Outputs), config.BondMaxTxOutputs)
	}
	for i, out := range transaction.Outputs {
		if len(out.ScriptPubKey) > config.BondMaxScriptData {
			return fmt.Errorf("output %d script too large: %d bytes, max %d", i, len(out.ScriptPubKey), config.BondMaxScriptData)
		}
	}
	return nil
}
