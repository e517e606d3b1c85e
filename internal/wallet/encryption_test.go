package wallet

import (
	"bytes"
	"testing"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	data := []byte("a sensitive ML-DSA secret key")
	password := []byte("hunter2")
	params := DefaultParams()

	enc, err := Encrypt(data, password, params)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	dec, err := Decrypt(enc, password)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(dec, data) {
		t.Error("round-tripped data should match the original")
	}
}

func TestDecrypt_WrongPasswordFails(t *testing.T) {
	enc, _ := Encrypt([]byte("secret"), []byte("correct"), DefaultParams())
	if _, err := Decrypt(enc, []byte("wrong")); err == nil {
		t.Error("decrypting with the wrong password should fail")
	}
}

func TestDecrypt_TruncatedInputFails(t *testing.T) {
	if _, err := Decrypt([]byte{0x01, 0x02}, []byte("pw")); err == nil {
		t.Error("decrypting truncated input should fail")
	}
}

func TestEncrypt_NondeterministicSaltAndNonce(t *testing.T) {
	data := []byte("same plaintext")
	password := []byte("pw")
	e1, _ := Encrypt(data, password, DefaultParams())
	e2, _ := Encrypt(data, password, DefaultParams())
	if bytes.Equal(e1, e2) {
		t.Error("two encryptions of the same data should differ (random salt/nonce)")
	}
}
