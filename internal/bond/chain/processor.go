package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/bond-aevum/core/internal/bond/consensus"
	"github.com/bond-aevum/core/internal/bond/utxo"
	"github.com/bond-aevum/core/pkg/block"
	"github.com/bond-aevum/core/pkg/types"
)

// Block processing errors.
var (
	ErrBlockKnown            = errors.New("block already known")
	ErrPrevNotFound          = errors.New("previous block not found")
	ErrBadHeight             = errors.New("block height does not follow parent")
	ErrBadPrevHash           = errors.New("prev_hash does not match current tip")
	ErrApplyUTXO             = errors.New("failed to apply UTXO changes")
	ErrTimestampTooFuture    = errors.New("block timestamp too far in the future")
	ErrTimestampBeforeParent = errors.New("block timestamp before parent")
	ErrBadCoinbaseTx         = errors.New("invalid coinbase transaction")
	ErrCoinbaseRewardTooHigh = errors.New("coinbase reward exceeds consensus limit")
)

// maxFutureDrift bounds how far ahead of wall-clock time a block's
// timestamp may sit before it is rejected outright.
const maxFutureDrift = 2 * time.Minute

// ProcessBlock validates a block against chain state and, on success,
// either extends the tip directly or stores it as a fork candidate and
// lets Reorg decide whether it outweighs the current chain (spec §4.6).
func (c *Chain) ProcessBlock(blk *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if blk == nil || blk.Header == nil {
		return fmt.Errorf("nil block or header")
	}
	if err := blk.Validate(); err != nil {
		return fmt.Errorf("self-contained validation: %w", err)
	}

	hash := blk.Hash()

	known, err := c.blocks.HasBlock(hash)
	if err != nil {
		return fmt.Errorf("check block: %w", err)
	}
	if known {
		return ErrBlockKnown
	}

	parentErr := c.checkParentLink(blk)
	if parentErr != nil && !errors.Is(parentErr, ErrForkDetected) {
		return parentErr
	}

	if !errors.Is(parentErr, ErrForkDetected) {
		if err := c.verifyDifficulty(blk); err != nil {
			return err
		}
	}

	maxTime := uint64(time.Now().Add(maxFutureDrift).Unix())
	if blk.Header.Timestamp > maxTime {
		return fmt.Errorf("%w: block timestamp %d exceeds max %d", ErrTimestampTooFuture, blk.Header.Timestamp, maxTime)
	}
	if blk.Header.Height > 0 {
		if parentBlk, err := c.blocks.GetBlock(blk.Header.PrevHash); err == nil && blk.Header.Timestamp < parentBlk.Header.Timestamp {
			return fmt.Errorf("%w: block timestamp %d < parent timestamp %d",
				ErrTimestampBeforeParent, blk.Header.Timestamp, parentBlk.Header.Timestamp)
		}
	}

	if errors.Is(parentErr, ErrForkDetected) {
		if err := c.blocks.StoreBlock(blk); err != nil {
			return fmt.Errorf("store fork block: %w", err)
		}
		// PoW fork choice is always attempted: a shorter-but-heavier branch
		// can outweigh a longer one once difficulty varies across forks.
		if err := c.Reorg(hash); err != nil {
			return fmt.Errorf("reorg: %w", err)
		}
		return nil
	}

	if err := c.validateBlockState(blk); err != nil {
		return err
	}

	blockReward := c.computeBlockReward(blk)

	undo, err := c.applyBlockWithUndo(blk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApplyUTXO, err)
	}
	undo.BlockReward = blockReward

	if err := c.blocks.PutBlock(blk); err != nil {
		return fmt.Errorf("store block: %w", err)
	}

	undoBytes, err := json.Marshal(undo)
	if err != nil {
		return fmt.Errorf("marshal undo: %w", err)
	}
	if err := c.blocks.PutUndo(hash, undoBytes); err != nil {
		return fmt.Errorf("store undo: %w", err)
	}

	c.state.Supply += blockReward
	c.state.CumulativeWork = new(big.Int).Add(c.state.work(), blk.Header.Target().Work())
	c.state.TipHash = hash
	c.state.Height = blk.Header.Height
	c.state.TipTimestamp = blk.Header.Timestamp

	if err := c.blocks.SetTip(hash, blk.Header.Height, c.state.Supply); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}
	if err := c.blocks.SetCumulativeWork(c.state.CumulativeWork); err != nil {
		return fmt.Errorf("set cumulative work: %w", err)
	}

	return nil
}

// validateBlockState checks UTXO-dependent rules that block.Validate()
// cannot: per-input script/policy satisfaction, coinbase maturity (both
// enforced inside Transaction.ValidateWithUTXOs), and that the coinbase
// issuance does not exceed block_reward + collected fees.
func (c *Chain) validateBlockState(blk *block.Block) error {
	coinbaseTx := blk.Transactions[0]
	if len(coinbaseTx.Inputs) != 1 || !coinbaseTx.Inputs[0].PrevOut.IsZero() {
		return ErrBadCoinbaseTx
	}

	var totalFees uint64
	for i, transaction := range blk.Transactions {
		if i == 0 {
			continue
		}
		fee, err := transaction.ValidateWithUTXOs(c.utxos, c.policy, blk.Header.Height, blk.Header.Timestamp)
		if err != nil {
			return fmt.Errorf("tx %d validation: %w", i, err)
		}
		if totalFees > math.MaxUint64-fee {
			return fmt.Errorf("tx %d: fee overflow", i)
		}
		totalFees += fee
	}

	coinbaseTotal, err := coinbaseTx.TotalOutputValue()
	if err != nil {
		return fmt.Errorf("coinbase output overflow: %w", err)
	}
	var minted uint64
	if coinbaseTotal > totalFees {
		minted = coinbaseTotal - totalFees
	}

	allowedMint := consensus.BlockReward(
		c.pow.Params.MinAnnualInflationBps,
		c.pow.Params.MaxAnnualInflationBps,
		c.state.Supply,
		c.pow.Params.TargetBlockTimeSeconds,
		consensus.EstimateHashrateRatio(c.pow.GenesisTarget(), blk.Header.Target()),
	)
	if minted > allowedMint {
		return fmt.Errorf("%w: minted=%d allowed=%d", ErrCoinbaseRewardTooHigh, minted, allowedMint)
	}

	for i, transaction := range blk.Transactions[1:] {
		for _, in := range transaction.Inputs {
			if in.PrevOut.IsZero() {
				return fmt.Errorf("%w: tx %d contains a coinbase-shaped input", ErrBadCoinbaseTx, i+1)
			}
		}
	}

	return nil
}

// checkParentLink verifies the block's PrevHash/Height are consistent
// with the tip, or identifies it as a fork off a known ancestor.
func (c *Chain) checkParentLink(blk *block.Block) error {
	if c.state.IsGenesis() {
		if blk.Header.Height != 0 {
			return fmt.Errorf("%w: genesis must be height 0, got %d", ErrBadHeight, blk.Header.Height)
		}
		if !blk.Header.PrevHash.IsZero() {
			return fmt.Errorf("%w: genesis must have zero prev_hash", ErrBadPrevHash)
		}
		return nil
	}

	if blk.Header.PrevHash == c.state.TipHash {
		expectedHeight := c.state.Height + 1
		if blk.Header.Height != expectedHeight {
			return fmt.Errorf("%w: want %d, got %d", ErrBadHeight, expectedHeight, blk.Header.Height)
		}
		return nil
	}

	parentKnown, err := c.blocks.HasBlock(blk.Header.PrevHash)
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	if parentKnown {
		parentBlk, err := c.blocks.GetBlock(blk.Header.PrevHash)
		if err != nil {
			return fmt.Errorf("load parent block: %w", err)
		}
		expectedHeight := parentBlk.Header.Height + 1
		if blk.Header.Height != expectedHeight {
			return fmt.Errorf("%w: parent height %d implies %d, got %d",
				ErrBadHeight, parentBlk.Header.Height, expectedHeight, blk.Header.Height)
		}
		return fmt.Errorf("%w: block %d forks from %s", ErrForkDetected, blk.Header.Height, blk.Header.PrevHash)
	}
	return ErrPrevNotFound
}

// verifyDifficulty checks that a fast-path block's encoded target matches
// the protocol's retarget rule given chain history (spec §4.6); fork
// candidates are checked instead during replay inside Reorg.
func (c *Chain) verifyDifficulty(blk *block.Block) error {
	if blk.Header.Height == 0 {
		expected := c.pow.GenesisTarget()
		return consensus.VerifyTarget(0, expected, blk.Header.Target())
	}

	parentBlk, err := c.blocks.GetBlockByHeight(blk.Header.Height - 1)
	if err != nil {
		return fmt.Errorf("load parent for difficulty check: %w", err)
	}
	expected, err := c.pow.ExpectedTarget(blk.Header.Height, parentBlk.Header.Target(), c.getBlockTimestamp)
	if err != nil {
		return fmt.Errorf("compute expected target: %w", err)
	}
	return consensus.VerifyTarget(blk.Header.Height, expected, blk.Header.Target())
}

// computeBlockReward returns the new coins minted by a block: its
// coinbase value minus fees recycled from its own non-coinbase
// transactions. Must be called before applyBlock consumes the spent
// inputs it reads from the still-live UTXO set.
func (c *Chain) computeBlockReward(blk *block.Block) uint64 {
	if len(blk.Transactions) == 0 {
		return 0
	}
	coinbaseValue, err := blk.Transactions[0].TotalOutputValue()
	if err != nil {
		return 0
	}

	var totalFees uint64
	for _, transaction := range blk.Transactions[1:] {
		var inputSum, outputSum uint64
		for _, in := range transaction.Inputs {
			if in.PrevOut.IsZero() {
				continue
			}
			e, err := c.utxos.Get(in.PrevOut)
			if err != nil {
				continue
			}
			if inputSum > math.MaxUint64-e.Value {
				continue
			}
			inputSum += e.Value
		}
		for _, out := range transaction.Outputs {
			if outputSum > math.MaxUint64-out.Value {
				continue
			}
			outputSum += out.Value
		}
		if inputSum > outputSum {
			fee := inputSum - outputSum
			if totalFees > math.MaxUint64-fee {
				continue
			}
			totalFees += fee
		}
	}

	if coinbaseValue > totalFees {
		return coinbaseValue - totalFees
	}
	return 0
}

// applyBlock updates the UTXO set: spends every non-coinbase input and
// creates every output. Used for genesis application, where there is no
// undo data to collect.
func (c *Chain) applyBlock(blk *block.Block) error {
	for txIdx, transaction := range blk.Transactions {
		txHash := transaction.Hash()
		isCoinbase := txIdx == 0

		for _, in := range transaction.Inputs {
			if in.PrevOut.IsZero() {
				continue
			}
			if err := c.utxos.Delete(in.PrevOut); err != nil {
				return fmt.Errorf("spend %s: %w", in.PrevOut, err)
			}
		}

		for i, out := range transaction.Outputs {
			e := &utxo.Entry{
				Outpoint: types.Outpoint{TxID: txHash, Index: uint32(i)},
				Height:   blk.Header.Height,
			}
			e.Value = out.Value
			e.ScriptPubKey = out.ScriptPubKey
			e.Policy = out.Policy
			e.IsCoinbase = isCoinbase
			e.CoinbaseHeight = blk.Header.Height
			if err := c.utxos.Put(e); err != nil {
				return fmt.Errorf("create output %s:%d: %w", txHash, i, err)
			}
		}
	}
	return nil
}

