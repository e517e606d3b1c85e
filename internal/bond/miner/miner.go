// Package miner produces new Bond blocks: selecting mempool transactions,
// computing the adaptive coinbase reward, and sealing the header against
// the current PoW target.
package miner

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/internal/bond/consensus"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// ChainState is the read-only view of the chain tip a miner needs to
// build on top of it.
type ChainState interface {
	Height() uint64
	TipHash() types.Hash
	GetBlockByHeight(height uint64) (*block.Block, error)
}

// MempoolSelector selects transactions for block inclusion.
type MempoolSelector interface {
	SelectForBlock(limit int) []*tx.Transaction
	GetFee(txHash types.Hash) uint64
}

// SupplyFunc returns the current total coin supply.
type SupplyFunc func() uint64

// Miner produces candidate Bond blocks on top of the current chain tip.
type Miner struct {
	chain          ChainState
	pow            *consensus.PoW
	pool           MempoolSelector
	coinbaseScript types.Script
	supplyFn       SupplyFunc
	maxBlockTxs    int
}

// New creates a block producer paying coinbase outputs to coinbaseScript
// (typically a P2PKH script built from the miner's own address).
func New(chain ChainState, pow *consensus.PoW, pool MempoolSelector, coinbaseScript types.Script, supplyFn SupplyFunc) *Miner {
	return &Miner{
		chain:          chain,
		pow:            pow,
		pool:           pool,
		coinbaseScript: coinbaseScript,
		supplyFn:       supplyFn,
		maxBlockTxs:    config.BondMaxBlockTxs,
	}
}

// ProduceBlock builds, seals, and returns a new block using the current
// wall-clock time. The block is not applied to the chain — the caller
// must hand it to Chain.ProcessBlock.
func (m *Miner) ProduceBlock() (*block.Block, error) {
	return m.produceBlock(context.Background(), uint64(time.Now().Unix()))
}

// ProduceBlockCtx builds and seals a block with cancellation support.
// When ctx is cancelled, PoW sealing stops and ctx.Err() is returned.
func (m *Miner) ProduceBlockCtx(ctx context.Context) (*block.Block, error) {
	return m.produceBlock(ctx, uint64(time.Now().Unix()))
}

func (m *Miner) produceBlock(ctx context.Context, timestamp uint64) (*block.Block, error) {
	tipHeight := m.chain.Height()
	newHeight := tipHeight + 1

	var prevTarget types.DifficultyTarget
	var parentTimestamp uint64
	if tip, err := m.chain.GetBlockByHeight(tipHeight); err == nil && tip != nil {
		prevTarget = tip.Header.Target()
		parentTimestamp = tip.Header.Timestamp
	} else {
		prevTarget = m.pow.GenesisTarget()
	}
	if timestamp <= parentTimestamp {
		timestamp = parentTimestamp + 1
	}

	target, err := m.pow.ExpectedTarget(newHeight, prevTarget, m.blockTimestamp)
	if err != nil {
		return nil, fmt.Errorf("expected target: %w", err)
	}

	var selected []*tx.Transaction
	var totalFees uint64
	if m.pool != nil {
		selected = m.pool.SelectForBlock(m.maxBlockTxs - 1) // Reserve a slot for the coinbase.
		for _, t := range selected {
			totalFees += m.pool.GetFee(t.Hash())
		}
	}

	var supply uint64
	if m.supplyFn != nil {
		supply = m.supplyFn()
	}
	reward := consensus.BlockReward(
		m.pow.Params.MinAnnualInflationBps,
		m.pow.Params.MaxAnnualInflationBps,
		supply,
		m.pow.Params.TargetBlockTimeSeconds,
		consensus.EstimateHashrateRatio(m.pow.GenesisTarget(), target),
	)

	sort.Slice(selected, func(i, j int) bool {
		hi, hj := selected[i].Hash(), selected[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	coinbase := BuildCoinbase(m.coinbaseScript, reward+totalFees, newHeight)
	txs := make([]*tx.Transaction, 0, 1+len(selected))
	txs = append(txs, coinbase)
	txs = append(txs, selected...)

	txHashes := make([]types.Hash, len(txs))
	for i, t := range txs {
		txHashes[i] = t.Hash()
	}
	merkle := block.ComputeMerkleRoot(txHashes)

	header := &block.Header{
		Version:        block.CurrentVersion,
		PrevHash:       m.chain.TipHash(),
		MerkleRoot:     merkle,
		Timestamp:      timestamp,
		DifficultyBits: target.Compact(),
		Height:         newHeight,
	}

	blk := block.NewBlock(header, txs)
	if err := m.pow.SealWithCancel(ctx, blk); err != nil {
		return nil, fmt.Errorf("seal block: %w", err)
	}

	return blk, nil
}

// blockTimestamp adapts ChainState.GetBlockByHeight to the
// consensus.TimestampLookup shape ExpectedTarget needs to measure a
// retarget window.
func (m *Miner) blockTimestamp(height uint64) (uint64, error) {
	blk, err := m.chain.GetBlockByHeight(height)
	if err != nil {
		return 0, err
	}
	if blk == nil || blk.Header == nil {
		return 0, fmt.Errorf("block at height %d has no header", height)
	}
	return blk.Header.Timestamp, nil
}

// BuildCoinbase creates a coinbase transaction paying reward to
// coinbaseScript. The block height is encoded in the coinbase input's
// witness field so that coinbase transactions at different heights never
// collide on hash, mirroring Bitcoin's BIP34.
func BuildCoinbase(coinbaseScript types.Script, reward, height uint64) *tx.Transaction {
	heightBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(heightBytes, height)

	return &tx.Transaction{
		Version: 1,
		Inputs: []tx.Input{{
			PrevOut: types.Outpoint{},
			Witness: heightBytes,
		}},
		Outputs: []tx.Output{{
			Value:        reward,
			ScriptPubKey: coinbaseScript,
		}},
	}
}
