// Package crypto provides the cryptographic primitives shared by Bond and
// Aevum: hashing, post-quantum signatures, and the classical co-signer
// scheme used by guardian/hardware-key witnesses.
package crypto

import (
	"github.com/bond-aevum/core/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// DoubleHash computes Hash(Hash(data)).
func DoubleHash(data []byte) types.Hash {
	first := Hash(data)
	return Hash(first[:])
}

// AddressFromPubKey derives an address from a public key: the first
// AddressSize bytes of its hash, matching spec §4.1's address scheme.
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// HashConcat hashes the concatenation of two hashes. Used to build the
// binary merkle tree over transaction hashes (spec §3, §6).
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}
