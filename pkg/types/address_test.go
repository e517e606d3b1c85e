package types

import (
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}
	nonZero := Address{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String_BondHRP(t *testing.T) {
	old := activeHRP
	defer func() { activeHRP = old }()
	SetAddressHRP(BondMainnetHRP)

	var a Address
	a[0] = 0xab
	a[19] = 0xcd
	s := a.String()
	if !strings.HasPrefix(s, "bnd1") {
		t.Errorf("String() = %s, want bnd1 prefix", s)
	}
}

func TestParseAddress_RoundtripPerChain(t *testing.T) {
	old := activeHRP
	defer func() { activeHRP = old }()

	cases := []struct {
		hrp   string
		chain Chain
	}{
		{BondMainnetHRP, ChainBond},
		{AevumMainnetHRP, ChainAevum},
	}
	for _, c := range cases {
		SetAddressHRP(c.hrp)
		var a Address
		a[3] = 0x42
		parsed, chain, err := ParseAddress(a.String())
		if err != nil {
			t.Fatalf("ParseAddress: %v", err)
		}
		if parsed != a {
			t.Errorf("address mismatch: got %x want %x", parsed, a)
		}
		if chain != c.chain {
			t.Errorf("chain mismatch: got %s want %s", chain, c.chain)
		}
	}
}

func TestParseAddress_UnknownHRP(t *testing.T) {
	encoded, err := Bech32Encode("xyz", make([]byte, AddressSize))
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	if _, _, err := ParseAddress(encoded); err == nil {
		t.Error("expected error for unknown HRP")
	}
}
