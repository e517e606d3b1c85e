// Package utxo manages the Bond pUTXO set: the authoritative record of
// which outputs are unspent, what predicate script and orthogonal policy
// (spec §4.3) each one carries, and secondary indexes for wallet and
// staking lookups.
package utxo

import (
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// Entry is the UTXO set's record of one unspent pUTXO: everything a spend
// needs to re-derive script and policy context, plus the bookkeeping
// (height, coinbase flag) needed for maturity checks and reorg rollback.
// It embeds tx.UTXOEntry so the set satisfies tx.UTXOProvider directly.
type Entry struct {
	Outpoint types.Outpoint `json:"outpoint"`
	tx.UTXOEntry
	Height uint64 `json:"height"`
}

// Set is the interface for UTXO storage that chain, mempool, and miner
// code program against; Store is the only production implementation.
type Set interface {
	Get(outpoint types.Outpoint) (*Entry, error)
	Put(e *Entry) error
	Delete(outpoint types.Outpoint) error
	Has(outpoint types.Outpoint) (bool, error)

	// GetUTXO/HasUTXO satisfy pkg/tx.UTXOProvider so a Set can be handed
	// straight to Transaction.ValidateWithUTXOs.
	GetUTXO(outpoint types.Outpoint) (tx.UTXOEntry, error)
	HasUTXO(outpoint types.Outpoint) bool
}
