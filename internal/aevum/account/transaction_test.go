package account

import (
	"testing"

	"github.com/bond-aevum/core/pkg/crypto"
)

func signedTx(t *testing.T, value, nonce, fee uint64) (*Transaction, *crypto.MLDSASecretKey) {
	t.Helper()
	pub, sk, err := crypto.Generate(crypto.Level2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	from := crypto.AddressFromPubKey(pub.Bytes)
	to := from
	to[0] ^= 0xFF // ensure distinct address

	tx := &Transaction{
		From:         from,
		To:           to,
		Value:        value,
		Nonce:        nonce,
		Fee:          fee,
		SenderPubKey: pub.Bytes,
	}
	sig, err := crypto.Sign(sk, tx.SigningBytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tx.Signature = sig
	return tx, sk
}

func TestTransaction_Validate_OK(t *testing.T) {
	tx, _ := signedTx(t, 100, 0, 1)
	if err := tx.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !tx.VerifySignature() {
		t.Error("VerifySignature should succeed for a correctly signed tx")
	}
}

func TestTransaction_Validate_ZeroValueAndFee(t *testing.T) {
	tx, _ := signedTx(t, 0, 0, 0)
	if err := tx.Validate(); err != ErrZeroValue {
		t.Errorf("got %v, want ErrZeroValue", err)
	}
}

func TestTransaction_Validate_SameAccount(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 1)
	tx.To = tx.From
	if err := tx.Validate(); err != ErrSameAccount {
		t.Errorf("got %v, want ErrSameAccount", err)
	}
}

func TestTransaction_Validate_BadPubKeySize(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 1)
	tx.SenderPubKey = tx.SenderPubKey[:10]
	if err := tx.Validate(); err == nil {
		t.Error("expected error for truncated sender public key")
	}
}

func TestTransaction_Validate_FromMismatch(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 1)
	tx.From[0] ^= 0x01
	if err := tx.Validate(); err == nil {
		t.Error("expected error when From does not derive from SenderPubKey")
	}
}

func TestTransaction_VerifySignature_TamperedValue(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 1)
	tx.Value = 999
	if tx.VerifySignature() {
		t.Error("signature should not verify after tampering with value")
	}
}

func TestTransaction_Hash_ExcludesSignature(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 1)
	h1 := tx.Hash()
	tx.Signature = append([]byte(nil), tx.Signature...)
	tx.Signature[0] ^= 0xFF
	if tx.Hash() != h1 {
		t.Error("Hash should be independent of Signature bytes")
	}
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	tx, _ := signedTx(t, 42, 7, 3)
	tx.SmartAccountWitness = []byte{0x01, 0x02}

	data, err := tx.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Transaction
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Hash() != tx.Hash() {
		t.Error("round-tripped transaction should hash identically")
	}
}

func TestTransaction_FeeRate(t *testing.T) {
	tx, _ := signedTx(t, 10, 0, 100)
	if tx.FeeRate() <= 0 {
		t.Error("FeeRate should be positive for a non-zero fee")
	}
}
