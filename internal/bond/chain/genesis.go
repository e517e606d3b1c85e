package chain

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/internal/bond/consensus"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// CreateGenesisBlock builds Bond's height-0 block from its genesis
// configuration: a zero PrevHash, a single coinbase distributing the
// initial allocations, and a header sealed against the configured
// initial target so it is a self-consistent PoW block like any other
// (spec §4.5 item 4 makes no genesis exception).
func CreateGenesisBlock(gen *config.BondGenesis, pow *consensus.PoW) (*block.Block, error) {
	if gen == nil {
		return nil, fmt.Errorf("genesis config is nil")
	}

	coinbase, err := buildGenesisCoinbase(gen.Alloc)
	if err != nil {
		return nil, fmt.Errorf("build coinbase: %w", err)
	}

	txs := []*tx.Transaction{coinbase}
	merkle := block.ComputeMerkleRoot([]types.Hash{coinbase.Hash()})

	header := &block.Header{
		Version:        block.CurrentVersion,
		PrevHash:       types.Hash{},
		MerkleRoot:     merkle,
		Timestamp:      gen.Timestamp,
		DifficultyBits: pow.GenesisTarget().Compact(),
		Height:         0,
	}

	blk := block.NewBlock(header, txs)
	if err := pow.Seal(blk); err != nil {
		return nil, fmt.Errorf("seal genesis: %w", err)
	}
	return blk, nil
}

// buildGenesisCoinbase creates the zero-input coinbase transaction that
// distributes gen.Alloc: hex-encoded 32-byte owner hashes mapped to a
// genesis balance in base units, each becoming a P2PKH output (spec
// §4.4's coinbase shape — no inputs, value created from nothing).
func buildGenesisCoinbase(alloc map[string]uint64) (*tx.Transaction, error) {
	owners := make([]string, 0, len(alloc))
	for owner := range alloc {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	outputs := make([]tx.Output, 0, len(owners))
	for _, owner := range owners {
		ownerHash, err := hex.DecodeString(owner)
		if err != nil || len(ownerHash) != types.HashSize {
			return nil, fmt.Errorf("invalid alloc owner hash %q: expected %d hex-encoded bytes", owner, types.HashSize)
		}
		outputs = append(outputs, tx.Output{
			Value:        alloc[owner],
			ScriptPubKey: script.P2PKHScript(ownerHash),
		})
	}

	if len(outputs) == 0 {
		outputs = append(outputs, tx.Output{
			Value:        0,
			ScriptPubKey: script.P2PKHScript(make([]byte, types.HashSize)),
		})
	}

	return &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{}}},
		Outputs: outputs,
	}, nil
}
