package policy

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/script"
	"github.com/bond-aevum/core/pkg/types"
)

// totpStepSeconds is the standard RFC 6238 time step.
const totpStepSeconds = 30

// totpWindowTolerance allows the code to be valid for the adjacent step on
// either side of the current one, absorbing clock drift between the
// signer and the node verifying the spend.
const totpWindowTolerance = 1

// CheckMFA reads each method's witness contribution from policyWitness,
// in the same order as PUtxoPolicy.MFA.Methods.
//
//   - MFAHardwareKey: a single item, the signature over the spend hash.
//   - MFATOTP: two items, (sharedSecret, hotpCode) — since pUTXOs are
//     spent at most once, revealing the secret at spend time does not
//     create a replay surface the way it would for a persistent login
//     credential; the HOTP code additionally proves the signer's
//     authenticator is live and time-synced, not just that the secret
//     leaked from storage.
func CheckMFA(methods []types.MFAMethod, policyWitness types.Script, msgHash types.Hash, verify script.Verifier, unixTime uint64) error {
	items, err := script.ParsePushItems(policyWitness)
	if err != nil {
		return fmt.Errorf("%w: malformed policy witness: %v", ErrMfaFactorMissing, err)
	}

	idx := 0
	for i, m := range methods {
		switch m.Kind {
		case types.MFAHardwareKey:
			if idx >= len(items) {
				return fmt.Errorf("method %d: %w", i, ErrMfaFactorMissing)
			}
			sig := items[idx]
			idx++
			if !verify(m.PubKey, sig, msgHash[:]) {
				return fmt.Errorf("method %d: %w", i, ErrMfaFactorInvalid)
			}
		case types.MFATOTP:
			if idx+1 >= len(items) {
				return fmt.Errorf("method %d: %w", i, ErrMfaFactorMissing)
			}
			secret, code := items[idx], items[idx+1]
			idx += 2
			if crypto.Hash(secret) != m.SharedSecretHash {
				return fmt.Errorf("method %d: %w: secret does not match commitment", i, ErrMfaFactorInvalid)
			}
			if !verifyHOTPWindow(secret, code, unixTime) {
				return fmt.Errorf("method %d: %w: code not valid for current window", i, ErrMfaFactorInvalid)
			}
		default:
			return fmt.Errorf("method %d: unknown MFA method kind %d", i, m.Kind)
		}
	}
	return nil
}

// verifyHOTPWindow checks code against the RFC 4226 HOTP value for the
// counter derived from unixTime, and its immediate neighbors.
func verifyHOTPWindow(secret, code []byte, unixTime uint64) bool {
	counter := unixTime / totpStepSeconds
	for delta := -int64(totpWindowTolerance); delta <= totpWindowTolerance; delta++ {
		c := int64(counter) + delta
		if c < 0 {
			continue
		}
		if hmac.Equal(hotp(secret, uint64(c)), code) {
			return true
		}
	}
	return false
}

// hotp computes the RFC 4226 HMAC-based one-time code for counter, using
// the full HMAC-SHA1 digest as the code rather than the usual 6-digit
// truncation, since the comparison happens on-chain against an opaque
// byte string rather than a human-typed code.
func hotp(secret []byte, counter uint64) []byte {
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)
	mac := hmac.New(sha1.New, secret)
	mac.Write(counterBytes[:])
	return mac.Sum(nil)
}
