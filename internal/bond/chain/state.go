package chain

import (
	"math/big"

	"github.com/bond-aevum/core/pkg/types"
)

// State holds the current Bond chain tip.
type State struct {
	Height       uint64
	TipHash      types.Hash
	TipTimestamp uint64
	Supply       uint64 // Base units minted so far (genesis alloc + cumulative rewards).

	// CumulativeWork is the sum of every accepted header's estimated work
	// (types.DifficultyTarget.Work), the quantity fork choice compares
	// (spec §4.6): more accumulated work wins, not merely a longer chain.
	CumulativeWork *big.Int
}

// IsGenesis reports whether no blocks have been processed yet.
func (s *State) IsGenesis() bool {
	return s.Height == 0 && s.TipHash.IsZero()
}

// work returns CumulativeWork, treating a nil value as zero.
func (s *State) work() *big.Int {
	if s.CumulativeWork == nil {
		return big.NewInt(0)
	}
	return s.CumulativeWork
}
