// Package wallet implements the Bond wallet's key material (spec §3
// "Wallet key material", SPEC_FULL.md §3): BIP-39/BIP-32 HD derivation
// for the classical secp256k1 co-signer key used in guardian-recovery
// and MFA hardware-key witnesses (pkg/crypto.Signer), plus independently
// generated per-address ML-DSA keypairs, all persisted behind an
// encrypted keystore. CLI/GUI wallet UX stays out of scope (spec §1
// Non-goals); this package is the external port those surfaces sit on.
package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
const MnemonicEntropyBits = 256

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic covering the
// guardian co-signer seed.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39 (correct
// word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}
