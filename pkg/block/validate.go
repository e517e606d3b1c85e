package block

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/tx"
	"github.com/bond-aevum/core/pkg/types"
)

// Validation errors for the self-contained half of block validation
// (spec §4.5 items 4,5,6 — items 1,2,3,7 require chain context and are
// checked by internal/bond/chain and internal/bond/consensus).
var (
	ErrNilHeader           = errors.New("block has nil header")
	ErrNoTransactions      = errors.New("block has no transactions")
	ErrBadMerkleRoot       = errors.New("merkle root mismatch")
	ErrBadVersion          = errors.New("unsupported block version")
	ErrZeroTimestamp       = errors.New("block timestamp is zero")
	ErrBadTxOrder          = errors.New("transactions not in canonical order")
	ErrNoCoinbase          = errors.New("first transaction must be coinbase")
	ErrTooManyTxs          = errors.New("too many transactions in block")
	ErrBlockTooLarge       = errors.New("block too large")
	ErrDuplicateBlockInput = errors.New("duplicate input across transactions in block")
	ErrMultipleCoinbase    = errors.New("multiple coinbase transactions in block")
	ErrBadPoW              = errors.New("header hash does not meet its difficulty target")
)

// Block version constants.
const (
	CurrentVersion = 1
	MaxVersion     = 1
)

// Validate checks block structure and internal consistency: spec §4.5
// items 4 (PoW self-check), 5 (merkle root), and 6 (coinbase shape,
// per-transaction structural validity, intra-block double-spend check).
// It does not check chain linkage, timestamp median, or retarget — those
// require the chain history (internal/bond/chain).
func (b *Block) Validate() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.Version < 1 || b.Header.Version > MaxVersion {
		return fmt.Errorf("%w: got %d, want 1..%d", ErrBadVersion, b.Header.Version, MaxVersion)
	}
	if b.Header.Timestamp == 0 {
		return ErrZeroTimestamp
	}
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if len(b.Transactions) > config.BondMaxBlockTxs {
		return fmt.Errorf("%w: %d txs, max %d", ErrTooManyTxs, len(b.Transactions), config.BondMaxBlockTxs)
	}

	blockSize := len(b.Header.SigningBytes())
	for _, t := range b.Transactions {
		blockSize += len(t.SigningBytes())
	}
	if blockSize > config.BondMaxBlockSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrBlockTooLarge, blockSize, config.BondMaxBlockSize)
	}

	if !b.Transactions[0].IsCoinbase() {
		return ErrNoCoinbase
	}
	for i, t := range b.Transactions[1:] {
		if t.IsCoinbase() {
			return fmt.Errorf("tx %d: %w", i+1, ErrMultipleCoinbase)
		}
	}

	txHashes := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		txHashes[i] = t.Hash()
	}
	expectedRoot := ComputeMerkleRoot(txHashes)
	if b.Header.MerkleRoot != expectedRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, expectedRoot)
	}

	// Canonical ordering: coinbase first, remaining sorted by hash ascending.
	for i := 2; i < len(txHashes); i++ {
		if bytes.Compare(txHashes[i-1][:], txHashes[i][:]) >= 0 {
			return fmt.Errorf("%w: tx %d hash >= tx %d hash", ErrBadTxOrder, i-1, i)
		}
	}

	for i, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	allInputs := make(map[types.Outpoint]int, len(b.Transactions))
	for i, t := range b.Transactions {
		for _, in := range t.Inputs {
			if in.PrevOut.IsZero() {
				continue
			}
			if prevTx, exists := allInputs[in.PrevOut]; exists {
				return fmt.Errorf("tx %d: %w: outpoint %s also spent in tx %d",
					i, ErrDuplicateBlockInput, in.PrevOut, prevTx)
			}
			allInputs[in.PrevOut] = i
		}
	}

	if !b.Header.MeetsTarget() {
		return ErrBadPoW
	}

	return nil
}

// CoinbaseReward returns the coinbase transaction's total output value,
// used by the caller to check it against block_reward + fees.
func (b *Block) CoinbaseReward() (uint64, error) {
	if len(b.Transactions) == 0 {
		return 0, ErrNoTransactions
	}
	var t *tx.Transaction = b.Transactions[0]
	return t.TotalOutputValue()
}
