package wallet

import (
	"fmt"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// BIP-44 derivation path constants for the guardian co-signer key.
// Full path: m/44'/CoinType'/account'/change/index
const (
	// PurposeBIP44 is the BIP-44 purpose field (hardened).
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeBondAevum is this network's registered coin type (hardened).
	CoinTypeBondAevum = bip32.FirstHardenedChild + 9999

	// ChangeExternal indexes the externally-facing guardian key chain.
	ChangeExternal = 0
	// ChangeInternal indexes the internal (change) guardian key chain.
	ChangeInternal = 1
)

// HDKey is a hierarchical deterministic key (BIP-32) over the guardian
// co-signer's secp256k1 curve. It never carries an address's primary
// ML-DSA signing key — see keystore.go for that half of an account.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives a child key at the given index. For hardened
// derivation, add bip32.FirstHardenedChild to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveGuardianKey derives the guardian co-signer key at
// m/44'/9999'/account'/change/index, the key a pUTXO GuardianPolicy or
// MFA hardware-key witness (spec §4.3) signs over.
func (k *HDKey) DeriveGuardianKey(account, change, index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeBondAevum,
		bip32.FirstHardenedChild+account,
		change,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil if this is
// a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte secp256k1 public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns a pkg/crypto.Signer (Schnorr/secp256k1) from this HD
// key's private key, for producing a guardian/MFA witness signature.
// Errors if this is a public-only key.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from a public-only key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// IsPrivate reports whether this key carries a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Neuter returns a public-key-only copy, for a watch-only guardian.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
