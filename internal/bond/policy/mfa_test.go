package policy

import (
	"errors"
	"testing"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

func TestCheckMFA_HardwareKeySuccess(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	msgHash := crypto.Hash([]byte("spend this output"))
	sig, err := key.Sign(msgHash[:])
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	methods := []types.MFAMethod{{Kind: types.MFAHardwareKey, PubKey: key.PublicKey()}}
	witness := script.BuildPushItems([][]byte{sig})

	if err := CheckMFA(methods, witness, msgHash, script.DefaultVerifier, 0); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCheckMFA_HardwareKeyWrongSignature(t *testing.T) {
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()
	msgHash := crypto.Hash([]byte("spend this output"))
	wrongSig, _ := other.Sign(msgHash[:])

	methods := []types.MFAMethod{{Kind: types.MFAHardwareKey, PubKey: key.PublicKey()}}
	witness := script.BuildPushItems([][]byte{wrongSig})

	if err := CheckMFA(methods, witness, msgHash, script.DefaultVerifier, 0); !errors.Is(err, ErrMfaFactorInvalid) {
		t.Fatalf("expected ErrMfaFactorInvalid, got %v", err)
	}
}

func TestCheckMFA_TOTPSuccess(t *testing.T) {
	secret := []byte("a shared totp secret")
	secretHash := crypto.Hash(secret)
	unixTime := uint64(1700000000)
	code := hotp(secret, unixTime/totpStepSeconds)

	methods := []types.MFAMethod{{Kind: types.MFATOTP, SharedSecretHash: secretHash}}
	witness := script.BuildPushItems([][]byte{secret, code})

	if err := CheckMFA(methods, witness, types.Hash{}, script.DefaultVerifier, unixTime); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCheckMFA_TOTPWrongCode(t *testing.T) {
	secret := []byte("a shared totp secret")
	secretHash := crypto.Hash(secret)
	unixTime := uint64(1700000000)

	methods := []types.MFAMethod{{Kind: types.MFATOTP, SharedSecretHash: secretHash}}
	witness := script.BuildPushItems([][]byte{secret, []byte("not-a-valid-code")})

	if err := CheckMFA(methods, witness, types.Hash{}, script.DefaultVerifier, unixTime); !errors.Is(err, ErrMfaFactorInvalid) {
		t.Fatalf("expected ErrMfaFactorInvalid, got %v", err)
	}
}

func TestCheckMFA_TOTPSecretDoesNotMatchCommitment(t *testing.T) {
	secretHash := crypto.Hash([]byte("the real secret"))
	unixTime := uint64(1700000000)
	wrongSecret := []byte("an impostor secret")
	code := hotp(wrongSecret, unixTime/totpStepSeconds)

	methods := []types.MFAMethod{{Kind: types.MFATOTP, SharedSecretHash: secretHash}}
	witness := script.BuildPushItems([][]byte{wrongSecret, code})

	if err := CheckMFA(methods, witness, types.Hash{}, script.DefaultVerifier, unixTime); !errors.Is(err, ErrMfaFactorInvalid) {
		t.Fatalf("expected ErrMfaFactorInvalid, got %v", err)
	}
}

func TestCheckMFA_TOTPAdjacentWindowTolerated(t *testing.T) {
	secret := []byte("drifted clock secret")
	secretHash := crypto.Hash(secret)
	unixTime := uint64(1700000000)
	// Code generated one step earlier must still verify (clock drift).
	code := hotp(secret, unixTime/totpStepSeconds-1)

	methods := []types.MFAMethod{{Kind: types.MFATOTP, SharedSecretHash: secretHash}}
	witness := script.BuildPushItems([][]byte{secret, code})

	if err := CheckMFA(methods, witness, types.Hash{}, script.DefaultVerifier, unixTime); err != nil {
		t.Fatalf("expected adjacent-window code to verify, got %v", err)
	}
}

func TestCheckMFA_MultipleFactorsAllRequired(t *testing.T) {
	key, _ := crypto.GenerateKey()
	msgHash := crypto.Hash([]byte("spend"))
	sig, _ := key.Sign(msgHash[:])

	secret := []byte("second factor secret")
	secretHash := crypto.Hash(secret)
	unixTime := uint64(1700000000)
	code := hotp(secret, unixTime/totpStepSeconds)

	methods := []types.MFAMethod{
		{Kind: types.MFAHardwareKey, PubKey: key.PublicKey()},
		{Kind: types.MFATOTP, SharedSecretHash: secretHash},
	}

	fullWitness := script.BuildPushItems([][]byte{sig, secret, code})
	if err := CheckMFA(methods, fullWitness, msgHash, script.DefaultVerifier, unixTime); err != nil {
		t.Fatalf("expected success with both factors, got %v", err)
	}

	hardwareOnly := script.BuildPushItems([][]byte{sig})
	if err := CheckMFA(methods, hardwareOnly, msgHash, script.DefaultVerifier, unixTime); !errors.Is(err, ErrMfaFactorMissing) {
		t.Fatalf("expected ErrMfaFactorMissing with the TOTP factor absent, got %v", err)
	}
}
