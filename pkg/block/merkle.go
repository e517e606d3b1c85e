package block

import (
	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// ComputeMerkleRoot calculates the merkle root of a transaction hash list
// (spec §6): hash pairs are concatenated then hashed; an odd trailing
// node is duplicated before pairing.
func ComputeMerkleRoot(txHashes []types.Hash) types.Hash {
	if len(txHashes) == 0 {
		return types.Hash{}
	}
	if len(txHashes) == 1 {
		return txHashes[0]
	}

	level := make([]types.Hash, len(txHashes))
	copy(level, txHashes)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
	}

	return level[0]
}
