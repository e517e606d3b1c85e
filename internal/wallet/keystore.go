package wallet

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bond-aevum/core/pkg/crypto"
)

// keystoreFile is the on-disk JSON format for an encrypted wallet: one
// HD seed (guardian co-signer material) plus every address's ML-DSA
// keypair, each individually encrypted under the same password.
type keystoreFile struct {
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	EncryptedSeed     []byte           `json:"encrypted_seed"`
	Addresses         []AddressEntry   `json:"addresses"`
	NextChangeIndex   uint32           `json:"next_change_index"`
	NextExternalIndex uint32           `json:"next_external_index"`
}

// AddressEntry stores one Bond address's metadata: its ML-DSA keypair
// (the consensus signing key, generated independently per spec §4.1 —
// never HD-derived) and the BIP-44 path of the guardian co-signer key
// bound to it, if any.
type AddressEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"` // hex-encoded types.Address (20 bytes)
	// OwnerHash is the full 32-byte crypto.DoubleHash(pubKey) that Bond's
	// P2PKH locking script embeds — Address truncates this and cannot
	// be used to reconstruct it, so Bond callers (bond_getBalance,
	// --coinbase, transaction outputs) need this field instead.
	OwnerHash string       `json:"owner_hash"`
	Level     crypto.Level `json:"level"`
	PubKey    string `json:"pub_key"`      // hex-encoded ML-DSA public key
	Encrypted []byte `json:"encrypted_sk"` // Encrypt()-wrapped ML-DSA secret key

	GuardianChange uint32 `json:"guardian_change"`
	GuardianIndex  uint32 `json:"guardian_index"`
	HasGuardian    bool   `json:"has_guardian"`
}

// Keystore manages encrypted key storage on disk, one file per wallet.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore reading/writing the given directory,
// creating it if absent.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+".wallet")
}

// Create creates a new encrypted wallet file from a guardian-key HD seed.
func (ks *Keystore) Create(name string, seed, password []byte, params EncryptionParams) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("wallet %q already exists", name)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}

	kf := keystoreFile{
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: encrypted,
		Addresses:     []AddressEntry{},
	}
	return ks.writeFile(path, &kf)
}

// LoadSeed decrypts a wallet's guardian-key HD seed.
func (ks *Keystore) LoadSeed(name string, password []byte) ([]byte, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet seed: %w", err)
	}
	return seed, nil
}

// NewAddress generates a fresh ML-DSA keypair at the given level,
// encrypts its secret key under password, and records it in the
// wallet under name. Returns the new address entry.
func (ks *Keystore) NewAddress(walletName, addressName string, level crypto.Level, password []byte, params EncryptionParams) (*AddressEntry, error) {
	pub, sk, err := crypto.Generate(level)
	if err != nil {
		return nil, fmt.Errorf("generate ML-DSA keypair: %w", err)
	}
	addr := crypto.AddressFromPubKey(pub.Bytes)
	ownerHash := crypto.DoubleHash(pub.Bytes)

	encrypted, err := Encrypt(sk.Bytes, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret key: %w", err)
	}

	entry := AddressEntry{
		Name:      addressName,
		Address:   hex.EncodeToString(addr[:]),
		OwnerHash: hex.EncodeToString(ownerHash[:]),
		Level:     level,
		PubKey:    hex.EncodeToString(pub.Bytes),
		Encrypted: encrypted,
	}
	if err := ks.addAddress(walletName, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LoadAddressSecret decrypts the ML-DSA secret key for a stored address.
func (ks *Keystore) LoadAddressSecret(walletName, address string, password []byte) (*crypto.MLDSASecretKey, error) {
	kf, err := ks.readFile(ks.walletPath(walletName))
	if err != nil {
		return nil, err
	}
	for _, a := range kf.Addresses {
		if a.Address != address {
			continue
		}
		raw, err := Decrypt(a.Encrypted, password)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret key: %w", err)
		}
		return &crypto.MLDSASecretKey{Level: a.Level, Bytes: raw}, nil
	}
	return nil, fmt.Errorf("address %q not found in wallet %q", address, walletName)
}

// BindGuardian records the BIP-44 (change, index) guardian co-signer key
// derivation path bound to an existing address.
func (ks *Keystore) BindGuardian(walletName, address string, change, index uint32) error {
	path := ks.walletPath(walletName)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	for i := range kf.Addresses {
		if kf.Addresses[i].Address != address {
			continue
		}
		kf.Addresses[i].GuardianChange = change
		kf.Addresses[i].GuardianIndex = index
		kf.Addresses[i].HasGuardian = true
		return ks.writeFile(path, kf)
	}
	return fmt.Errorf("address %q not found in wallet %q", address, walletName)
}

func (ks *Keystore) addAddress(walletName string, entry AddressEntry) error {
	path := ks.walletPath(walletName)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	for _, existing := range kf.Addresses {
		if existing.Address == entry.Address {
			return fmt.Errorf("address %q already exists in wallet %q", entry.Address, walletName)
		}
	}
	kf.Addresses = append(kf.Addresses, entry)
	return ks.writeFile(path, kf)
}

// ListAddresses returns the address entries for a wallet.
func (ks *Keystore) ListAddresses(walletName string) ([]AddressEntry, error) {
	kf, err := ks.readFile(ks.walletPath(walletName))
	if err != nil {
		return nil, err
	}
	return kf.Addresses, nil
}

// List returns the names of all wallet files in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".wallet" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}

// GetExternalIndex returns the next external guardian-key index for a wallet.
func (ks *Keystore) GetExternalIndex(name string) (uint32, error) {
	kf, err := ks.readFile(ks.walletPath(name))
	if err != nil {
		return 0, err
	}
	return kf.NextExternalIndex, nil
}

// IncrementExternalIndex advances the external guardian-key index by 1.
func (ks *Keystore) IncrementExternalIndex(name string) error {
	path := ks.walletPath(name)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	kf.NextExternalIndex++
	return ks.writeFile(path, kf)
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("wallet %q not found", name)
	}
	return os.Remove(path)
}

func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
