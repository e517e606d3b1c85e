package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/bond-aevum/core/pkg/types"
)

func hexToHash(t *testing.T, s string) types.Hash {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	var h types.Hash
	copy(h[:], b)
	return h
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("bond-aevum"))
	b := Hash([]byte("bond-aevum"))
	if a != b {
		t.Error("Hash should be deterministic for identical input")
	}
	c := Hash([]byte("bond-aevum!"))
	if a == c {
		t.Error("Hash should differ for different input")
	}
}

func TestDoubleHash(t *testing.T) {
	data := []byte("sighash preimage")
	want := Hash(Hash(data).Bytes())
	got := DoubleHash(data)
	if got != want {
		t.Errorf("DoubleHash mismatch: got %s want %s", got, want)
	}
}

func TestHashConcat_OrderSensitive(t *testing.T) {
	a := Hash([]byte("left"))
	b := Hash([]byte("right"))
	ab := HashConcat(a, b)
	ba := HashConcat(b, a)
	if ab == ba {
		t.Error("HashConcat should be order-sensitive")
	}
}

func TestAddressFromPubKey_Length(t *testing.T) {
	addr := AddressFromPubKey([]byte("a fake compressed pubkey"))
	if len(addr) != types.AddressSize {
		t.Errorf("address length = %d, want %d", len(addr), types.AddressSize)
	}
}
