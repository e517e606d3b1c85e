package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Level identifies an ML-DSA parameter set. Spec §4.1 pins Aevum to
// Level 2 (~128-bit quantum security) and Bond to Level 3 (~192-bit).
// A signature produced under one level MUST be rejected when verified
// under the other — enforced below by a domain tag woven into both the
// signed message and the key/signature padding, not merely checked by
// size comparison.
type Level uint8

const (
	// Level2 is ML-DSA-44, used by Aevum.
	Level2 Level = iota
	// Level3 is ML-DSA-65, used by Bond.
	Level3
)

func (l Level) String() string {
	switch l {
	case Level2:
		return "ML-DSA-44/Level2"
	case Level3:
		return "ML-DSA-65/Level3"
	default:
		return "unknown"
	}
}

// Parameter sizes from spec §4.1, authoritative regardless of the
// underlying implementation.
const (
	Level2PublicKeySize = 1312
	Level2SecretKeySize = 2560
	Level2SignatureSize = 2420

	Level3PublicKeySize = 1952
	Level3SecretKeySize = 4032
	Level3SignatureSize = 3309
)

// PublicKeySize returns the declared ML-DSA public-key size for the level.
func (l Level) PublicKeySize() int {
	if l == Level3 {
		return Level3PublicKeySize
	}
	return Level2PublicKeySize
}

// SecretKeySize returns the declared ML-DSA secret-key size for the level.
func (l Level) SecretKeySize() int {
	if l == Level3 {
		return Level3SecretKeySize
	}
	return Level2SecretKeySize
}

// SignatureSize returns the declared ML-DSA signature size for the level.
func (l Level) SignatureSize() int {
	if l == Level3 {
		return Level3SignatureSize
	}
	return Level2SignatureSize
}

func (l Level) domainTag() []byte {
	if l == Level3 {
		return []byte("bond-aevum/mldsa/level3")
	}
	return []byte("bond-aevum/mldsa/level2")
}

// MLDSAPublicKey is a post-quantum public key at a fixed parameter level.
type MLDSAPublicKey struct {
	Level Level
	Bytes []byte // Level.PublicKeySize() bytes.
}

// MLDSASecretKey is a post-quantum secret key at a fixed parameter level.
type MLDSASecretKey struct {
	Level Level
	Bytes []byte // Level.SecretKeySize() bytes.
}

// Scheme is the pluggable post-quantum signature interface. Call sites
// depend only on this interface, never on the concrete implementation, so
// a real liboqs/circl ML-DSA binding can be swapped in without touching
// consensus code (spec §9 Open Questions: "stub verification in test
// builds" behind this boundary).
type Scheme interface {
	Generate(level Level) (*MLDSAPublicKey, *MLDSASecretKey, error)
	Sign(sk *MLDSASecretKey, msg []byte) ([]byte, error)
	Verify(pk *MLDSAPublicKey, msg, sig []byte) bool
}

// DefaultScheme is the parameter-faithful simulated ML-DSA scheme used
// until a real post-quantum implementation is wired in (SPEC_FULL §4.1).
// It reproduces every ML-DSA byte size in the spec's table and enforces
// strict Level2/Level3 separation, but its hardness rests on ed25519 +
// SHAKE256 rather than a lattice assumption.
var DefaultScheme Scheme = simulatedScheme{}

type simulatedScheme struct{}

// expand deterministically stretches seed to n bytes via SHAKE256, tagged
// with domain so Level2 and Level3 material derived from the same seed
// never collides.
func expand(domain []byte, seed []byte, n int) []byte {
	h := sha3.NewShake256()
	h.Write(domain)
	h.Write(seed)
	out := make([]byte, n)
	h.Read(out)
	return out
}

func (simulatedScheme) Generate(level Level) (*MLDSAPublicKey, *MLDSASecretKey, error) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("mldsa: generate: %w", err)
	}
	tag := level.domainTag()

	skBuf := make([]byte, level.SecretKeySize())
	copy(skBuf, edPriv) // first 64 bytes: real ed25519 seed+pub
	copy(skBuf[len(edPriv):], expand(tag, edPriv, level.SecretKeySize()-len(edPriv)))

	pkBuf := make([]byte, level.PublicKeySize())
	copy(pkBuf, edPub) // first 32 bytes: real ed25519 pubkey
	copy(pkBuf[len(edPub):], expand(tag, edPub, level.PublicKeySize()-len(edPub)))

	return &MLDSAPublicKey{Level: level, Bytes: pkBuf}, &MLDSASecretKey{Level: level, Bytes: skBuf}, nil
}

func (simulatedScheme) Sign(sk *MLDSASecretKey, msg []byte) ([]byte, error) {
	if sk == nil || len(sk.Bytes) != sk.Level.SecretKeySize() {
		return nil, fmt.Errorf("mldsa: secret key size mismatch for %s", sk.Level)
	}
	edPriv := ed25519.PrivateKey(sk.Bytes[:ed25519.PrivateKeySize])
	tag := sk.Level.domainTag()

	tagged := append(append([]byte{}, tag...), msg...)
	edSig := ed25519.Sign(edPriv, tagged)

	sigBuf := make([]byte, sk.Level.SignatureSize())
	copy(sigBuf, edSig) // first 64 bytes: real ed25519 signature
	copy(sigBuf[len(edSig):], expand(tag, append(append([]byte{}, edSig...), msg...), sk.Level.SignatureSize()-len(edSig)))
	return sigBuf, nil
}

func (simulatedScheme) Verify(pk *MLDSAPublicKey, msg, sig []byte) bool {
	if pk == nil {
		return false
	}
	// Fail fast on size mismatch (buffer-overflow guard, spec §4.1).
	if len(pk.Bytes) != pk.Level.PublicKeySize() {
		return false
	}
	if len(sig) != pk.Level.SignatureSize() {
		return false
	}

	edPub := ed25519.PublicKey(pk.Bytes[:ed25519.PublicKeySize])
	tag := pk.Level.domainTag()
	tagged := append(append([]byte{}, tag...), msg...)

	edSig := sig[:ed25519.SignatureSize]
	if !ed25519.Verify(edPub, tagged, edSig) {
		return false
	}

	// Confirm the signature's padding was derived under this level's
	// domain tag — a Level2 signature replayed against a Level3 key (or
	// vice versa) fails here even in the vanishingly unlikely case its
	// raw ed25519 component verified under the wrong key.
	wantPad := expand(tag, append(append([]byte{}, edSig...), msg...), pk.Level.SignatureSize()-len(edSig))
	gotPad := sig[len(edSig):]
	if len(wantPad) != len(gotPad) {
		return false
	}
	for i := range wantPad {
		if wantPad[i] != gotPad[i] {
			return false
		}
	}
	return true
}

// Generate creates a new ML-DSA keypair at the given level using DefaultScheme.
func Generate(level Level) (*MLDSAPublicKey, *MLDSASecretKey, error) {
	return DefaultScheme.Generate(level)
}

// Sign produces an ML-DSA signature over msg using DefaultScheme.
func Sign(sk *MLDSASecretKey, msg []byte) ([]byte, error) {
	return DefaultScheme.Sign(sk, msg)
}

// VerifyMLDSA checks an ML-DSA signature using DefaultScheme. Returns
// false (never panics) on any size or level mismatch.
func VerifyMLDSA(pk *MLDSAPublicKey, msg, sig []byte) bool {
	return DefaultScheme.Verify(pk, msg, sig)
}
