package types

import (
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero-value Hash should be zero")
	}

	nonZero := Hash{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Hash should not be zero")
	}
}

func TestHash_String(t *testing.T) {
	var h Hash
	s := h.String()
	if len(s) != 64 {
		t.Errorf("String() length = %d, want 64", len(s))
	}
	if strings.Trim(s, "0") != "" {
		t.Errorf("zero hash should hex-encode to all zeros, got %s", s)
	}
}

func TestHash_Compare(t *testing.T) {
	a := Hash{0x01}
	b := Hash{0x02}
	if a.Compare(b) >= 0 {
		t.Error("a should sort before b")
	}
	if b.Compare(a) <= 0 {
		t.Error("b should sort after a")
	}
	if a.Compare(a) != 0 {
		t.Error("a should equal itself")
	}
}

func TestHashFromHex_Roundtrip(t *testing.T) {
	h := Hash{0xde, 0xad, 0xbe, 0xef}
	parsed, err := HashFromHex(h.String())
	if err != nil {
		t.Fatalf("HashFromHex: %v", err)
	}
	if parsed != h {
		t.Errorf("roundtrip mismatch: got %s want %s", parsed, h)
	}
}

func TestHashFromHex_BadLength(t *testing.T) {
	if _, err := HashFromHex("abcd"); err == nil {
		t.Error("expected error for short hex string")
	}
}
