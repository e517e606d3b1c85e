package crypto

import "testing"

func TestMLDSA_SignVerify(t *testing.T) {
	for _, level := range []Level{Level2, Level3} {
		pk, sk, err := Generate(level)
		if err != nil {
			t.Fatalf("Generate(%s): %v", level, err)
		}
		if len(pk.Bytes) != level.PublicKeySize() {
			t.Errorf("%s: public key size = %d, want %d", level, len(pk.Bytes), level.PublicKeySize())
		}
		if len(sk.Bytes) != level.SecretKeySize() {
			t.Errorf("%s: secret key size = %d, want %d", level, len(sk.Bytes), level.SecretKeySize())
		}

		msg := []byte("bond-aevum signing-hash fixture")
		sig, err := Sign(sk, msg)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		if len(sig) != level.SignatureSize() {
			t.Errorf("%s: signature size = %d, want %d", level, len(sig), level.SignatureSize())
		}
		if !VerifyMLDSA(pk, msg, sig) {
			t.Errorf("%s: valid signature failed to verify", level)
		}
		if VerifyMLDSA(pk, []byte("tampered"), sig) {
			t.Errorf("%s: signature verified against wrong message", level)
		}
	}
}

func TestMLDSA_StrictLevelSeparation(t *testing.T) {
	pk2, sk2, err := Generate(Level2)
	if err != nil {
		t.Fatalf("Generate(Level2): %v", err)
	}
	_, sk3, err := Generate(Level3)
	if err != nil {
		t.Fatalf("Generate(Level3): %v", err)
	}

	msg := []byte("cross-level replay attempt")
	sigUnderLevel3, err := Sign(sk3, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// A Level3 signature must never verify under a Level2 key, even
	// ignoring the size mismatch (spec §8: "Level2 signatures under a
	// Level3 key must return false").
	if VerifyMLDSA(pk2, msg, sigUnderLevel3) {
		t.Error("Level3 signature verified under a Level2 public key")
	}

	sigUnderLevel2, err := Sign(sk2, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sigUnderLevel2) == len(sigUnderLevel3) {
		t.Fatalf("Level2/Level3 signature sizes unexpectedly equal")
	}
}

func TestMLDSA_VerifyFailsFastOnSizeMismatch(t *testing.T) {
	pk, sk, err := Generate(Level3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sig, err := Sign(sk, []byte("msg"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	truncated := sig[:len(sig)-1]
	if VerifyMLDSA(pk, []byte("msg"), truncated) {
		t.Error("truncated signature should not verify")
	}

	badPK := &MLDSAPublicKey{Level: Level3, Bytes: pk.Bytes[:len(pk.Bytes)-1]}
	if VerifyMLDSA(badPK, []byte("msg"), sig) {
		t.Error("undersized public key should not verify")
	}
}
