package miner

import (
	"context"
	"errors"
	"testing"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/internal/bond/consensus"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

func easyPoW() *consensus.PoW {
	params := config.DefaultBondPoWParams()
	for i := range params.InitialTarget {
		params.InitialTarget[i] = 0xff
	}
	return consensus.NewPoW(params)
}

// --- BuildCoinbase ---

func TestBuildCoinbase(t *testing.T) {
	dest := types.Script(script.P2PKHScript(make([]byte, types.HashSize)))
	cb := BuildCoinbase(dest, 50000, 42)

	if cb.Version != 1 {
		t.Errorf("version: got %d, want 1", cb.Version)
	}
	if len(cb.Inputs) != 1 {
		t.Fatalf("inputs: got %d, want 1", len(cb.Inputs))
	}
	if !cb.Inputs[0].PrevOut.IsZero() {
		t.Error("coinbase input should be zero outpoint")
	}
	if len(cb.Inputs[0].Witness) != 8 {
		t.Errorf("coinbase witness should be 8-byte height, got %d", len(cb.Inputs[0].Witness))
	}
	if len(cb.Outputs) != 1 {
		t.Fatalf("outputs: got %d, want 1", len(cb.Outputs))
	}
	if cb.Outputs[0].Value != 50000 {
		t.Errorf("output value: got %d, want 50000", cb.Outputs[0].Value)
	}
	if !cb.IsCoinbase() {
		t.Error("BuildCoinbase output should report IsCoinbase")
	}

	cb2 := BuildCoinbase(dest, 50000, 43)
	if cb.Hash() == cb2.Hash() {
		t.Error("coinbase txs at different heights must have different hashes")
	}
}

func TestBuildCoinbase_Validate(t *testing.T) {
	dest := types.Script(script.P2PKHScript(make([]byte, types.HashSize)))
	cb := BuildCoinbase(dest, 1000, 1)
	if err := cb.Validate(); err != nil {
		t.Errorf("coinbase should pass Validate: %v", err)
	}
}

// --- mockChain ---

type mockChain struct {
	height uint64
	blocks map[uint64]*block.Block
}

func newMockChain() *mockChain {
	return &mockChain{blocks: make(map[uint64]*block.Block)}
}

func (m *mockChain) Height() uint64 { return m.height }

func (m *mockChain) TipHash() types.Hash {
	if b, ok := m.blocks[m.height]; ok {
		return b.Hash()
	}
	return types.Hash{}
}

var errBlockNotFound = errors.New("mock chain: block not found")

func (m *mockChain) GetBlockByHeight(height uint64) (*block.Block, error) {
	b, ok := m.blocks[height]
	if !ok {
		return nil, errBlockNotFound
	}
	return b, nil
}

// --- mockMempool ---

type mockMempool struct {
	txs  []*tx.Transaction
	fees map[types.Hash]uint64
}

func newMockMempool(txs []*tx.Transaction, fees map[types.Hash]uint64) *mockMempool {
	return &mockMempool{txs: txs, fees: fees}
}

func (m *mockMempool) SelectForBlock(limit int) []*tx.Transaction {
	if limit <= 0 || limit >= len(m.txs) {
		return m.txs
	}
	return m.txs[:limit]
}

func (m *mockMempool) GetFee(txHash types.Hash) uint64 {
	return m.fees[txHash]
}

func genesisFixture(pow *consensus.PoW) *block.Block {
	coinbase := BuildCoinbase(types.Script(script.P2PKHScript(make([]byte, types.HashSize))), 0, 0)
	header := &block.Header{
		Version:        block.CurrentVersion,
		MerkleRoot:     block.ComputeMerkleRoot([]types.Hash{coinbase.Hash()}),
		Timestamp:      1_700_000_000,
		DifficultyBits: pow.GenesisTarget().Compact(),
		Height:         0,
	}
	blk := block.NewBlock(header, []*tx.Transaction{coinbase})
	if err := pow.Seal(blk); err != nil {
		panic(err)
	}
	return blk
}

func TestMiner_ProduceBlock_Empty(t *testing.T) {
	pow := easyPoW()
	chain := newMockChain()
	genesis := genesisFixture(pow)
	chain.blocks[0] = genesis

	dest := types.Script(script.P2PKHScript(make([]byte, types.HashSize)))
	m := New(chain, pow, nil, dest, func() uint64 { return 0 })

	blk, err := m.ProduceBlock()
	if err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}
	if blk.Header.Height != 1 {
		t.Errorf("height = %d, want 1", blk.Header.Height)
	}
	if blk.Header.PrevHash != genesis.Hash() {
		t.Error("PrevHash should reference the genesis block")
	}
	if len(blk.Transactions) != 1 {
		t.Fatalf("expected coinbase-only block, got %d txs", len(blk.Transactions))
	}
	if !blk.Header.MeetsTarget() {
		t.Error("produced block should satisfy its own difficulty target")
	}
	if err := blk.Validate(); err != nil {
		t.Errorf("produced block should pass structural validation: %v", err)
	}
}

func TestMiner_ProduceBlock_IncludesMempoolTxs(t *testing.T) {
	pow := easyPoW()
	chain := newMockChain()
	genesis := genesisFixture(pow)
	chain.blocks[0] = genesis

	txA := &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}}, Witness: []byte("w")}},
		Outputs: []tx.Output{{Value: 100, ScriptPubKey: script.P2PKHScript(make([]byte, types.HashSize))}},
	}
	fees := map[types.Hash]uint64{txA.Hash(): 250}
	pool := newMockMempool([]*tx.Transaction{txA}, fees)

	dest := types.Script(script.P2PKHScript(make([]byte, types.HashSize)))
	m := New(chain, pow, pool, dest, func() uint64 { return 1_000_000 })

	blk, err := m.ProduceBlock()
	if err != nil {
		t.Fatalf("ProduceBlock: %v", err)
	}
	if len(blk.Transactions) != 2 {
		t.Fatalf("expected coinbase + 1 mempool tx, got %d", len(blk.Transactions))
	}
	if blk.Transactions[1].Hash() != txA.Hash() {
		t.Error("mempool transaction should be included after the coinbase")
	}

	coinbaseValue, err := blk.Transactions[0].TotalOutputValue()
	if err != nil {
		t.Fatalf("coinbase TotalOutputValue: %v", err)
	}
	if coinbaseValue < 250 {
		t.Errorf("coinbase value %d should at least recycle the 250 fee", coinbaseValue)
	}
}

func TestMiner_ProduceBlock_TimestampMonotonic(t *testing.T) {
	pow := easyPoW()
	chain := newMockChain()
	genesis := genesisFixture(pow)
	chain.blocks[0] = genesis

	dest := types.Script(script.P2PKHScript(make([]byte, types.HashSize)))
	m := New(chain, pow, nil, dest, nil)

	// Force a timestamp behind the genesis block's own timestamp.
	blk, err := m.produceBlock(context.Background(), genesis.Header.Timestamp-100)
	if err != nil {
		t.Fatalf("produceBlock: %v", err)
	}
	if blk.Header.Timestamp <= genesis.Header.Timestamp {
		t.Errorf("timestamp %d should be strictly after parent %d", blk.Header.Timestamp, genesis.Header.Timestamp)
	}
}
