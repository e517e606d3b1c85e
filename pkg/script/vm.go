package script

import (
	"bytes"

	"github.com/bond-aevum/core/pkg/crypto"
	"github.com/bond-aevum/core/pkg/types"
)

// MaxOpCount is the consensus-enforced maximum number of non-push
// opcodes a script may execute (spec §4.2).
const MaxOpCount = 201

// Verifier checks a signature over a message hash. Supplied by the
// caller so the VM stays independent of which signature scheme (ML-DSA
// Level2/Level3, or the classical co-signer) is in play for a given spend.
type Verifier func(pubKey, sig, msgHash []byte) bool

// Context carries the spend-time facts a script may be contextually
// sensitive to: the signature hash it is authorizing, and the chain
// height/time for CHECKBLOCKHEIGHT/CHECKLOCKTIME.
type Context struct {
	MsgHash     types.Hash
	Height      uint64
	UnixTime    uint64
	Verify      Verifier
}

// DefaultVerifier verifies against the classical co-signer (secp256k1
// Schnorr) scheme used by guardian/MFA witnesses.
func DefaultVerifier(pubKey, sig, msgHash []byte) bool {
	return crypto.VerifySignature(msgHash, sig, pubKey)
}

// Execute runs script (script_sig || script_pubkey, already concatenated
// by the caller per spec §4.2's spend-validation contract) and reports
// whether it terminates successfully: the byte stream is exhausted and
// the top stack item is truthy.
func Execute(script []byte, ctx Context) error {
	if len(script) > types.MaxScriptSize {
		return ErrOversizedScript
	}
	if ctx.Verify == nil {
		ctx.Verify = DefaultVerifier
	}

	s := &stack{}
	opCount := 0
	pc := 0

	for pc < len(script) {
		op := Opcode(script[pc])
		pc++

		switch {
		case op == OP_FALSE:
			if err := s.push(nil); err != nil {
				return fail(err)
			}
			continue
		case op >= 0x01 && op <= 0x4B:
			n := int(op)
			if pc+n > len(script) {
				return fail(ErrUnknownOpcode)
			}
			if err := s.push(script[pc : pc+n]); err != nil {
				return fail(err)
			}
			pc += n
			continue
		case op == OP_PUSHDATA1:
			if pc >= len(script) {
				return fail(ErrUnknownOpcode)
			}
			n := int(script[pc])
			pc++
			if pc+n > len(script) {
				return fail(ErrUnknownOpcode)
			}
			if err := s.push(script[pc : pc+n]); err != nil {
				return fail(err)
			}
			pc += n
			continue
		case op >= OP_1 && op <= OP_16:
			v := int(op-OP_1) + 1
			if err := s.push(int64Bytes(int64(v))); err != nil {
				return fail(err)
			}
			continue
		}

		// Every remaining opcode is a non-push operation and counts
		// against the operation limit.
		opCount++
		if opCount > MaxOpCount {
			return fail(ErrOperationLimitExceeded)
		}

		if err := execOp(op, s, ctx); err != nil {
			return err
		}
	}

	top, err := s.peek()
	if err != nil {
		return fail(ErrStackUnderflow)
	}
	if !isTruthy(top) {
		return fail(ErrScriptExecutionFailed)
	}
	return nil
}

func execOp(op Opcode, s *stack, ctx Context) error {
	switch op {
	case OP_DUP:
		top, err := s.peek()
		if err != nil {
			return fail(err)
		}
		cp := append([]byte{}, top...)
		if err := s.push(cp); err != nil {
			return fail(err)
		}

	case OP_DROP:
		if _, err := s.pop(); err != nil {
			return fail(err)
		}

	case OP_SWAP:
		a, err := s.pop()
		if err != nil {
			return fail(err)
		}
		b, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(a); err != nil {
			return fail(err)
		}
		if err := s.push(b); err != nil {
			return fail(err)
		}

	case OP_PICK:
		nBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		n, err := asInt64(nBytes)
		if err != nil {
			return fail(err)
		}
		item, err := s.peekN(int(n))
		if err != nil {
			return fail(err)
		}
		if err := s.push(append([]byte{}, item...)); err != nil {
			return fail(err)
		}

	case OP_ROLL:
		nBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		n, err := asInt64(nBytes)
		if err != nil {
			return fail(err)
		}
		idx := len(s.items) - 1 - int(n)
		if n < 0 || idx < 0 {
			return fail(ErrStackUnderflow)
		}
		item := s.items[idx]
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		if err := s.push(item); err != nil {
			return fail(err)
		}

	case OP_EQUAL:
		a, err := s.pop()
		if err != nil {
			return fail(err)
		}
		b, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(boolBytes(bytes.Equal(a, b))); err != nil {
			return fail(err)
		}

	case OP_EQUALVERIFY:
		a, err := s.pop()
		if err != nil {
			return fail(err)
		}
		b, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if !bytes.Equal(a, b) {
			return fail(ErrEqualVerifyFailed)
		}

	case OP_VERIFY:
		top, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if !isTruthy(top) {
			return fail(ErrVerifyFailed)
		}

	case OP_BOOLAND:
		a, err := s.pop()
		if err != nil {
			return fail(err)
		}
		b, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(boolBytes(isTruthy(a) && isTruthy(b))); err != nil {
			return fail(err)
		}

	case OP_BOOLOR:
		a, err := s.pop()
		if err != nil {
			return fail(err)
		}
		b, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(boolBytes(isTruthy(a) || isTruthy(b))); err != nil {
			return fail(err)
		}

	case OP_NOT:
		top, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(boolBytes(!isTruthy(top))); err != nil {
			return fail(err)
		}

	case OP_ADD, OP_SUB:
		bBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		aBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		a, err := asInt64(aBytes)
		if err != nil {
			return fail(err)
		}
		b, err := asInt64(bBytes)
		if err != nil {
			return fail(err)
		}
		var r int64
		if op == OP_ADD {
			r = a + b
			if (b > 0 && r < a) || (b < 0 && r > a) {
				return fail(ErrArithmeticOverflow)
			}
		} else {
			r = a - b
			if (b < 0 && r < a) || (b > 0 && r > a) {
				return fail(ErrArithmeticOverflow)
			}
		}
		if err := s.push(int64Bytes(r)); err != nil {
			return fail(err)
		}

	case OP_1ADD, OP_1SUB:
		aBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		a, err := asInt64(aBytes)
		if err != nil {
			return fail(err)
		}
		var r int64
		if op == OP_1ADD {
			r = a + 1
			if r < a {
				return fail(ErrArithmeticOverflow)
			}
		} else {
			r = a - 1
			if r > a {
				return fail(ErrArithmeticOverflow)
			}
		}
		if err := s.push(int64Bytes(r)); err != nil {
			return fail(err)
		}

	case OP_HASH256:
		top, err := s.pop()
		if err != nil {
			return fail(err)
		}
		h := crypto.DoubleHash(top)
		if err := s.push(h[:]); err != nil {
			return fail(err)
		}

	case OP_CHECKSIG:
		pubKey, err := s.pop()
		if err != nil {
			return fail(err)
		}
		sig, err := s.pop()
		if err != nil {
			return fail(err)
		}
		if err := s.push(boolBytes(ctx.Verify(pubKey, sig, ctx.MsgHash[:]))); err != nil {
			return fail(err)
		}

	case OP_CHECKMULTISIG:
		// Stack layout (bottom to top), matching MultisigWitness +
		// MultisigScript: sig1..sigM, M, k, pk1..pkN, N.
		pubKeyCountBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		numKeys, err := asInt64(pubKeyCountBytes)
		if err != nil {
			return fail(err)
		}
		if numKeys < 0 || numKeys > int64(s.len()) {
			return fail(ErrBadMultisigParams)
		}
		pubKeys := make([][]byte, numKeys)
		for i := int64(0); i < numKeys; i++ {
			pk, err := s.pop()
			if err != nil {
				return fail(err)
			}
			// Popped in reverse (pkN first); place at the end so
			// pubKeys ends up in natural script-writing order.
			pubKeys[numKeys-1-i] = pk
		}

		kBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		k, err := asInt64(kBytes)
		if err != nil {
			return fail(err)
		}

		sigCountBytes, err := s.pop()
		if err != nil {
			return fail(err)
		}
		numSigs, err := asInt64(sigCountBytes)
		if err != nil {
			return fail(err)
		}
		if numSigs < 0 || numSigs > int64(s.len()) {
			return fail(ErrBadMultisigParams)
		}
		sigs := make([][]byte, numSigs)
		for i := int64(0); i < numSigs; i++ {
			sig, err := s.pop()
			if err != nil {
				return fail(err)
			}
			sigs[numSigs-1-i] = sig
		}

		if k < 0 || k > numKeys || k > numSigs {
			return fail(ErrBadMultisigParams)
		}
		matched := checkMultisig(pubKeys, sigs, ctx)
		if err := s.push(boolBytes(int64(matched) >= k)); err != nil {
			return fail(err)
		}

	case OP_CHECKBLOCKHEIGHT:
		top, err := s.pop()
		if err != nil {
			return fail(err)
		}
		h, err := asInt64(top)
		if err != nil {
			return fail(err)
		}
		if ctx.Height < uint64(h) {
			return fail(ErrVerifyFailed)
		}

	case OP_CHECKLOCKTIME:
		top, err := s.pop()
		if err != nil {
			return fail(err)
		}
		tLock, err := asInt64(top)
		if err != nil {
			return fail(err)
		}
		if ctx.UnixTime < uint64(tLock) {
			return fail(ErrVerifyFailed)
		}

	default:
		return fail(ErrUnknownOpcode)
	}
	return nil
}

// checkMultisig counts how many of sigs verify against some distinct
// pubKeys entry, preserving relative order (each sig must match a
// pubkey after the previous match's position — standard
// m-of-n multisig matching).
func checkMultisig(pubKeys, sigs [][]byte, ctx Context) int {
	matched := 0
	keyIdx := 0
	for _, sig := range sigs {
		for keyIdx < len(pubKeys) {
			pk := pubKeys[keyIdx]
			keyIdx++
			if ctx.Verify(pk, sig, ctx.MsgHash[:]) {
				matched++
				break
			}
		}
	}
	return matched
}
