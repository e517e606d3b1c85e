// Package chain assembles Bond's block validation, UTXO application, and
// reorg handling into a single state machine: the chain-context half of
// block validation that pkg/block and pkg/tx defer (spec §4.5 items
// 1,2,3,7), wired against internal/bond/consensus for PoW, internal/bond/utxo
// for the UTXO set, and internal/bond/policy for orthogonal pUTXO policies.
package chain

import (
	"fmt"
	"sync"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/internal/bond/consensus"
	"github.com/bond-aevum/core/internal/bond/policy"
	"github.com/bond-aevum/core/internal/bond/utxo"
	"github.com/bond-aevum/core/internal/ports"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// RevertedTxHandler is called after a reorg with every non-coinbase
// transaction from reverted blocks that is not also present on the new
// branch, so the mempool can re-admit them.
type RevertedTxHandler func(txs []*tx.Transaction)

// Chain is a single Bond ledger instance: its UTXO set, block store, and
// the PoW/policy engines that gate what may be appended to it.
type Chain struct {
	mu sync.Mutex // Guards every state mutation (ProcessBlock, Reorg).

	ChainID string
	state   *State
	blocks  *BlockStore
	utxos   utxo.Set
	pow     *consensus.PoW
	policy  *policy.Engine

	genesisHash types.Hash

	revertedTxHandler RevertedTxHandler
}

// New wires a chain from its storage, UTXO set, PoW engine, and policy
// engine, recovering tip state from the block store and, if the node
// crashed mid-reorg, rebuilding the UTXO set from scratch.
func New(chainID string, db ports.DB, utxoSet utxo.Set, pow *consensus.PoW, policyEngine *policy.Engine) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("storage db is nil")
	}
	if utxoSet == nil {
		return nil, fmt.Errorf("utxo set is nil")
	}
	if pow == nil {
		return nil, fmt.Errorf("pow engine is nil")
	}
	if policyEngine == nil {
		return nil, fmt.Errorf("policy engine is nil")
	}

	blocks := NewBlockStore(db)

	tipHash, height, supply, err := blocks.GetTip()
	if err != nil {
		return nil, fmt.Errorf("recover tip: %w", err)
	}

	c := &Chain{
		ChainID: chainID,
		state: &State{
			TipHash:        tipHash,
			Height:         height,
			Supply:         supply,
			CumulativeWork: blocks.GetCumulativeWork(),
		},
		blocks: blocks,
		utxos:  utxoSet,
		pow:    pow,
		policy: policyEngine,
	}

	if genBlk, err := blocks.GetBlockByHeight(0); err == nil {
		c.genesisHash = genBlk.Hash()
	}

	if _, found := blocks.GetReorgCheckpoint(); found {
		if err := c.RebuildUTXOs(); err != nil {
			return nil, fmt.Errorf("recover from interrupted reorg: %w", err)
		}
	}

	return c, nil
}

// InitFromGenesis seeds a fresh chain (one with no blocks yet) from its
// genesis configuration. Genesis bypasses ProcessBlock's consensus and
// chain-context checks entirely, exactly as the teacher pattern this is
// grounded on does: there is no parent to link against and no prior
// difficulty history to verify it against.
func (c *Chain) InitFromGenesis(gen *config.BondGenesis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsGenesis() {
		return fmt.Errorf("chain already initialized at height %d", c.state.Height)
	}

	blk, err := CreateGenesisBlock(gen, c.pow)
	if err != nil {
		return fmt.Errorf("create genesis block: %w", err)
	}

	if err := c.applyBlock(blk); err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}
	if err := c.blocks.PutBlock(blk); err != nil {
		return fmt.Errorf("store genesis: %w", err)
	}

	var supply uint64
	for _, v := range gen.Alloc {
		supply += v
	}

	hash := blk.Hash()
	c.state.TipHash = hash
	c.state.Height = 0
	c.state.Supply = supply
	c.genesisHash = hash

	return c.blocks.SetTip(hash, 0, supply)
}

// State returns a copy of the current chain tip state.
func (c *Chain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.state
}

// Height returns the current chain height.
func (c *Chain) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Height
}

// TipHash returns the hash of the current chain tip.
func (c *Chain) TipHash() types.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.TipHash
}

// GetBlock retrieves a block by hash.
func (c *Chain) GetBlock(hash types.Hash) (*block.Block, error) {
	return c.blocks.GetBlock(hash)
}

// GetBlockByHeight retrieves a block by height.
func (c *Chain) GetBlockByHeight(height uint64) (*block.Block, error) {
	return c.blocks.GetBlockByHeight(height)
}

// GetTransaction looks up a confirmed transaction by hash via the tx index.
func (c *Chain) GetTransaction(hash types.Hash) (*tx.Transaction, error) {
	_, blockHash, err := c.blocks.GetTxLocation(hash)
	if err != nil {
		return nil, err
	}
	blk, err := c.blocks.GetBlock(blockHash)
	if err != nil {
		return nil, fmt.Errorf("load block for tx: %w", err)
	}
	for _, t := range blk.Transactions {
		if t.Hash() == hash {
			return t, nil
		}
	}
	return nil, fmt.Errorf("tx %s not found in block %s (index corrupt)", hash, blockHash)
}

// SetRevertedTxHandler sets the callback fired with reverted-but-not-replayed
// transactions after a reorg, so the mempool can re-admit them.
func (c *Chain) SetRevertedTxHandler(fn RevertedTxHandler) {
	c.revertedTxHandler = fn
}

// getBlockTimestamp returns the timestamp of the block at height, used as
// the internal/bond/consensus.TimestampLookup for retarget verification.
func (c *Chain) getBlockTimestamp(height uint64) (uint64, error) {
	blk, err := c.blocks.GetBlockByHeight(height)
	if err != nil {
		return 0, err
	}
	return blk.Header.Timestamp, nil
}

// RebuildUTXOs clears the UTXO set and replays every block from genesis
// to the current tip. Used to recover from a crash during a reorg, where
// the UTXO set may be left in an inconsistent state.
func (c *Chain) RebuildUTXOs() error {
	store, ok := c.utxos.(*utxo.Store)
	if !ok {
		return fmt.Errorf("utxo set does not support ClearAll (not *utxo.Store)")
	}
	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("clear utxo set: %w", err)
	}

	var supply uint64
	work := c.state.work()
	for h := uint64(0); h <= c.state.Height; h++ {
		blk, err := c.blocks.GetBlockByHeight(h)
		if err != nil {
			return fmt.Errorf("load block at height %d: %w", h, err)
		}
		supply += c.computeBlockReward(blk)
		if err := c.applyBlock(blk); err != nil {
			return fmt.Errorf("replay block at height %d: %w", h, err)
		}
	}

	c.state.Supply = supply
	c.state.CumulativeWork = work
	if err := c.blocks.SetTip(c.state.TipHash, c.state.Height, supply); err != nil {
		return fmt.Errorf("set tip after rebuild: %w", err)
	}
	if err := c.blocks.SetCumulativeWork(work); err != nil {
		return fmt.Errorf("set cumulative work after rebuild: %w", err)
	}
	return c.blocks.DeleteReorgCheckpoint()
}
