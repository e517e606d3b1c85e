package consensus

import (
	"errors"
	"sync"
	"time"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/types"
)

var (
	ErrAlreadyFinalized = errors.New("block is already finalized")
	ErrVoteWindowClosed = errors.New("finality vote window for this block has closed")
	ErrDuplicateVote    = errors.New("validator already voted for this block")
)

// finalityRound tracks signatures collected for one candidate block
// within its bounded voting window (spec §4.8 "Finality").
type finalityRound struct {
	opened    time.Time
	voted     map[types.Address]bool
	power     float64 // sum of voting weight (stake) collected so far
	finalized bool
}

// FinalityTracker collects validator signatures per candidate block and
// reports finalization once voting power crosses the BFT threshold
// (> 2/3 by default) within the configured window. A round that never
// crosses the threshold in time is abandoned (spec §4.8) — the caller is
// expected to re-propose the slot; the tracker itself just stops
// accepting votes for that hash.
type FinalityTracker struct {
	mu     sync.Mutex
	params config.AevumPoDParams
	window time.Duration
	rounds map[types.Hash]*finalityRound
}

// NewFinalityTracker creates a tracker with the given BFT parameters and
// the bounded window each candidate block has to collect signatures.
func NewFinalityTracker(params config.AevumPoDParams, window time.Duration) *FinalityTracker {
	return &FinalityTracker{
		params: params,
		window: window,
		rounds: make(map[types.Hash]*finalityRound),
	}
}

// RecordVote registers validator's signature (already verified by the
// caller — the tracker is pure bookkeeping over voting power, not a
// signature-verification boundary) for blockHash, weighted by
// votingPower (the validator's stake). Returns whether the block is now
// finalized as a result of this vote.
func (ft *FinalityTracker) RecordVote(blockHash types.Hash, validator types.Address, votingPower, totalPower float64, now time.Time) (bool, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	r, ok := ft.rounds[blockHash]
	if !ok {
		r = &finalityRound{opened: now, voted: make(map[types.Address]bool)}
		ft.rounds[blockHash] = r
	}
	if r.finalized {
		return true, ErrAlreadyFinalized
	}
	if now.Sub(r.opened) > ft.window {
		return false, ErrVoteWindowClosed
	}
	if r.voted[validator] {
		return false, ErrDuplicateVote
	}

	r.voted[validator] = true
	r.power += votingPower

	if meetsThreshold(r.power, totalPower, ft.params) {
		r.finalized = true
		return true, nil
	}
	return false, nil
}

// IsFinalized reports whether blockHash has crossed the BFT threshold.
func (ft *FinalityTracker) IsFinalized(blockHash types.Hash) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	r, ok := ft.rounds[blockHash]
	return ok && r.finalized
}

// Abandon discards a round whose window has closed without finalizing,
// freeing the slot for re-proposal (spec §4.8).
func (ft *FinalityTracker) Abandon(blockHash types.Hash) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if r, ok := ft.rounds[blockHash]; ok && !r.finalized {
		delete(ft.rounds, blockHash)
	}
}

// meetsThreshold reports whether collected crosses the
// numerator/denominator supermajority fraction of total (spec §4.8:
// "validators controlling > 2/3 of total voting power").
func meetsThreshold(collected, total float64, p config.AevumPoDParams) bool {
	if total <= 0 {
		return false
	}
	num := float64(p.FinalityThresholdNumerator)
	den := float64(p.FinalityThresholdDenominator)
	return collected*den > num*total
}
