package account

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// Structural validation errors (spec §7 "Structural"), mirroring the
// sentinel-error convention pkg/tx uses for Bond.
var (
	ErrZeroValue        = errors.New("transaction value and fee are both zero")
	ErrSameAccount      = errors.New("from and to must differ")
	ErrMissingSender    = errors.New("missing sender public key")
	ErrMissingSignature = errors.New("missing signature")
	ErrBadPubKeySize    = errors.New("sender public key has wrong size for ML-DSA level 2")
	ErrBadSignatureSize = errors.New("signature has wrong size for ML-DSA level 2")
)

// Transaction moves value from one Aevum account to another (spec §4.7).
// SmartAccountWitness carries whatever extra proof material the sender's
// Policy requires (guardian signatures, MFA factors, TOTP codes) — it is
// excluded from the signing hash exactly as pkg/tx excludes witnesses,
// so providing it never creates a circular dependency on its own output.
type Transaction struct {
	From                types.Address `json:"from"`
	To                  types.Address `json:"to"`
	Value               uint64        `json:"value"`
	Nonce               uint64        `json:"nonce"`
	Fee                 uint64        `json:"fee"`
	SenderPubKey        []byte        `json:"sender_pub_key"`
	Signature           []byte        `json:"signature"`
	SmartAccountWitness []byte        `json:"smart_account_witness,omitempty"`
}

type txJSON struct {
	From                types.Address `json:"from"`
	To                  types.Address `json:"to"`
	Value               uint64        `json:"value"`
	Nonce               uint64        `json:"nonce"`
	Fee                 uint64        `json:"fee"`
	SenderPubKey        string        `json:"sender_pub_key"`
	Signature           string        `json:"signature"`
	SmartAccountWitness string        `json:"smart_account_witness,omitempty"`
}

// MarshalJSON hex-encodes the binary fields.
func (t Transaction) MarshalJSON() ([]byte, error) {
	j := txJSON{
		From: t.From, To: t.To, Value: t.Value, Nonce: t.Nonce, Fee: t.Fee,
		SenderPubKey: hex.EncodeToString(t.SenderPubKey),
		Signature:    hex.EncodeToString(t.Signature),
	}
	if t.SmartAccountWitness != nil {
		j.SmartAccountWitness = hex.EncodeToString(t.SmartAccountWitness)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes hex-encoded binary fields.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.SenderPubKey)
	if err != nil {
		return fmt.Errorf("sender_pub_key: %w", err)
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	t.From, t.To, t.Value, t.Nonce, t.Fee = j.From, j.To, j.Value, j.Nonce, j.Fee
	t.SenderPubKey, t.Signature = pub, sig
	if j.SmartAccountWitness != "" {
		w, err := hex.DecodeString(j.SmartAccountWitness)
		if err != nil {
			return fmt.Errorf("smart_account_witness: %w", err)
		}
		t.SmartAccountWitness = w
	}
	return nil
}

// Hash computes the transaction ID: blake3(SigningBytes()). Signature and
// witness data are excluded, matching pkg/tx.Transaction.Hash.
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.SigningBytes())
}

// SigningBytes is the canonical encoding signed by SenderPubKey and used
// as the transaction ID preimage. Layout: from(20) | to(20) | value(8) |
// nonce(8) | fee(8) | pubkey_len(4) + pubkey.
func (t *Transaction) SigningBytes() []byte {
	var buf []byte
	buf = append(buf, t.From[:]...)
	buf = append(buf, t.To[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, t.Value)
	buf = binary.LittleEndian.AppendUint64(buf, t.Nonce)
	buf = binary.LittleEndian.AppendUint64(buf, t.Fee)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.SenderPubKey)))
	buf = append(buf, t.SenderPubKey...)
	return buf
}

// Validate checks structural validity (spec §4.7 item 1) without
// reference to chain state — no balance, nonce, or signature-correctness
// check, since those require the sender's on-chain Account (state.Apply).
func (t *Transaction) Validate() error {
	if t.Value == 0 && t.Fee == 0 {
		return ErrZeroValue
	}
	if t.From == t.To {
		return ErrSameAccount
	}
	if len(t.SenderPubKey) == 0 {
		return ErrMissingSender
	}
	if len(t.SenderPubKey) != crypto.Level2PublicKeySize {
		return fmt.Errorf("%w: got %d, want %d", ErrBadPubKeySize, len(t.SenderPubKey), crypto.Level2PublicKeySize)
	}
	if len(t.Signature) == 0 {
		return ErrMissingSignature
	}
	if len(t.Signature) != crypto.Level2SignatureSize {
		return fmt.Errorf("%w: got %d, want %d", ErrBadSignatureSize, len(t.Signature), crypto.Level2SignatureSize)
	}
	if crypto.AddressFromPubKey(t.SenderPubKey) != t.From {
		return fmt.Errorf("from address does not match sender public key")
	}
	return nil
}

// VerifySignature checks the ML-DSA signature over SigningBytes under
// SenderPubKey. Callers should run Validate first so size invariants
// already hold.
func (t *Transaction) VerifySignature() bool {
	pk := &crypto.MLDSAPublicKey{Level: crypto.Level2, Bytes: t.SenderPubKey}
	return crypto.VerifyMLDSA(pk, t.SigningBytes(), t.Signature)
}

// FeeRate returns fee per byte of the signing encoding, used for mempool
// prioritization exactly as Bond's mempool ranks by fee-rate (spec §4.9).
func (t *Transaction) FeeRate() float64 {
	size := len(t.SigningBytes())
	if size == 0 {
		return 0
	}
	return float64(t.Fee) / float64(size)
}
