// Package block defines the Bond block format, merkle tree, and the
// self-contained half of block validation (the rest — retarget and
// chain-tip context — lives in internal/bond/chain and
// internal/bond/consensus, which have access to the chain history this
// package does not).
package block

import (
	"encoding/binary"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// Header is the canonical Bond block header (spec §6): 96 bytes in this
// exact little-endian order:
//
//	version(4) | prev_hash(32) | merkle_root(32) | timestamp(8) |
//	target_compact(4) | nonce(8) | height(8)
type Header struct {
	Version        uint32     `json:"version"`
	PrevHash       types.Hash `json:"prev_hash"`
	MerkleRoot     types.Hash `json:"merkle_root"`
	Timestamp      uint64     `json:"timestamp"`
	DifficultyBits uint32     `json:"difficulty_bits"`
	Nonce          uint64     `json:"nonce"`
	Height         uint64     `json:"height"`
}

// Target decodes DifficultyBits into a full 256-bit target.
func (h *Header) Target() types.DifficultyTarget {
	return types.DifficultyTargetFromCompact(h.DifficultyBits)
}

// Hash computes the block header hash (spec §8: hash(header) <= target).
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical 96-byte encoding used for both the
// block hash and the PoW nonce search.
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 96)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.PrevHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint32(buf, h.DifficultyBits)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	return buf
}

// MeetsTarget reports whether this header's hash satisfies its own
// encoded difficulty target (spec §4.5 item 4).
func (h *Header) MeetsTarget() bool {
	return h.Target().MeetsTarget(h.Hash())
}
