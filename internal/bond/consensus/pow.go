// Package consensus implements Bond's Nakamoto proof-of-work consensus
// rule set: difficulty retargeting (spec §4.6) and the adaptive block
// reward curve that depends on it.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bond-aevum/core/config"
	"github.com/bond-aevum/core/pkg/block"
)

var (
	ErrInsufficientWork = errors.New("hash does not meet difficulty target")
	ErrBadDifficulty    = errors.New("block difficulty does not match expected retarget")
)

// PoW evaluates and mines Bond block headers against config.BondPoWParams.
// The engine itself holds no mutable state: every target is derived from
// the chain and encoded in the header being checked.
type PoW struct {
	Params config.BondPoWParams

	// Threads controls the number of parallel mining goroutines Seal uses.
	// 0 or 1 means single-threaded.
	Threads int
}

// NewPoW creates a PoW engine for the given protocol parameters.
func NewPoW(params config.BondPoWParams) *PoW {
	return &PoW{Params: params}
}

// VerifyHeader checks that the header's hash meets its own encoded target.
// It does not check that the target itself was the correct retarget
// result for the header's height — that is VerifyTarget's job, since
// it requires chain history this function is not given.
func (p *PoW) VerifyHeader(h *block.Header) error {
	if !h.MeetsTarget() {
		return fmt.Errorf("%w: height %d", ErrInsufficientWork, h.Height)
	}
	return nil
}

// ShouldRetarget reports whether height sits on a retarget boundary.
func (p *PoW) ShouldRetarget(height uint64) bool {
	return height > 0 && height%p.Params.RetargetIntervalBlocks == 0
}

// Seal mines blk by iterating its header's nonce until the hash meets the
// target already encoded in DifficultyBits. Mirrors the embarrassingly
// parallel strided-nonce mining loop spec §4.6 describes.
func (p *PoW) Seal(blk *block.Block) error {
	return p.SealWithCancel(context.Background(), blk)
}

// SealWithCancel mines with cancellation support; when ctx is cancelled,
// mining stops and ctx.Err() is returned.
func (p *PoW) SealWithCancel(ctx context.Context, blk *block.Block) error {
	if blk == nil || blk.Header == nil {
		return fmt.Errorf("nil block or header")
	}
	threads := p.Threads
	if threads <= 1 {
		return p.sealSingle(ctx, blk)
	}
	return p.sealParallel(ctx, blk, threads)
}

func (p *PoW) sealSingle(ctx context.Context, blk *block.Block) error {
	target := blk.Header.Target()

	for nonce := uint64(0); ; nonce++ {
		if nonce&0xFFFF == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		blk.Header.Nonce = nonce
		if target.MeetsTarget(blk.Header.Hash()) {
			return nil
		}
		if nonce == ^uint64(0) {
			return fmt.Errorf("nonce space exhausted; bump the coinbase extra-nonce and retry")
		}
	}
}

func (p *PoW) sealParallel(ctx context.Context, blk *block.Block, threads int) error {
	target := blk.Header.Target()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		nonce uint64
		err   error
	}
	found := make(chan result, 1)

	var wg sync.WaitGroup
	baseHeader := *blk.Header
	for i := 0; i < threads; i++ {
		wg.Add(1)
		start := uint64(i)
		stride := uint64(threads)
		go func() {
			defer wg.Done()
			h := baseHeader
			for nonce := start; ; nonce += stride {
				if (nonce/stride)&0xFFFF == 0 && nonce > 0 {
					select {
					case <-ctx.Done():
						return
					default:
					}
				}
				h.Nonce = nonce
				if target.MeetsTarget(h.Hash()) {
					select {
					case found <- result{nonce: nonce}:
					default:
					}
					cancel()
					return
				}
				if nonce > ^uint64(0)-stride {
					select {
					case found <- result{err: fmt.Errorf("nonce space exhausted")}:
					default:
					}
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(found)
	}()

	select {
	case r, ok := <-found:
		if !ok {
			return fmt.Errorf("nonce space exhausted")
		}
		if r.err != nil {
			return r.err
		}
		blk.Header.Nonce = r.nonce
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
