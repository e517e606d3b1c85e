package types

import (
	"math/big"
)

// DifficultyTarget is a 256-bit unsigned PoW threshold. A header is valid
// iff hash(header) <= target (spec §3).
type DifficultyTarget struct {
	big.Int
}

// NewDifficultyTarget wraps a big.Int as a DifficultyTarget, clamping
// negative values to zero. A nil v yields the zero target.
func NewDifficultyTarget(v *big.Int) DifficultyTarget {
	var d DifficultyTarget
	switch {
	case v == nil:
		d.Int = *big.NewInt(0)
	case v.Sign() < 0:
		d.Int = *big.NewInt(0)
	default:
		d.Int = *new(big.Int).Set(v)
	}
	return d
}

// MaxTarget is the easiest possible target: 2^256 - 1.
func MaxTarget() DifficultyTarget {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	return NewDifficultyTarget(max)
}

// Work estimates the expected number of hashes needed to find a header
// meeting this target: roughly 2^256 / (target+1). Used for cumulative
// chain work comparisons during fork choice (spec §4.6), where a lower
// target (harder difficulty) must count for more than a higher one.
func (d DifficultyTarget) Work() *big.Int {
	if d.Int.Sign() <= 0 {
		return big.NewInt(1)
	}
	space := new(big.Int).Lsh(big.NewInt(1), 256)
	denom := new(big.Int).Add(&d.Int, big.NewInt(1))
	return new(big.Int).Div(space, denom)
}

// MeetsTarget reports whether hash (interpreted as a big-endian unsigned
// integer) is <= the target.
func (d DifficultyTarget) MeetsTarget(hash Hash) bool {
	hashInt := new(big.Int).SetBytes(hash[:])
	return hashInt.Cmp(&d.Int) <= 0
}

// Mul multiplies the target by a rational numerator/denominator, used by
// the retarget rule (spec §4.6): new_target = old_target * (actual/expected).
func (d DifficultyTarget) Mul(numerator, denominator int64) DifficultyTarget {
	n := new(big.Int).Mul(&d.Int, big.NewInt(numerator))
	n.Div(n, big.NewInt(denominator))
	return NewDifficultyTarget(n)
}

// Clamp bounds the target to [lo, hi].
func (d DifficultyTarget) Clamp(lo, hi DifficultyTarget) DifficultyTarget {
	if d.Int.Cmp(&lo.Int) < 0 {
		return lo
	}
	if d.Int.Cmp(&hi.Int) > 0 {
		return hi
	}
	return d
}

// Div divides the target by an integer divisor (used for the retarget clamp
// bounds old/4 and old*4).
func (d DifficultyTarget) Div(divisor int64) DifficultyTarget {
	return NewDifficultyTarget(new(big.Int).Div(&d.Int, big.NewInt(divisor)))
}

// Times multiplies the target by an integer factor.
func (d DifficultyTarget) Times(factor int64) DifficultyTarget {
	return NewDifficultyTarget(new(big.Int).Mul(&d.Int, big.NewInt(factor)))
}

// Compact encodes the target into Bitcoin-style 4-byte compact form:
// a 1-byte exponent plus 3-byte mantissa, for storage in block headers.
func (d DifficultyTarget) Compact() uint32 {
	bytesRepr := d.Int.Bytes()
	size := uint32(len(bytesRepr))
	var mantissa uint32
	switch {
	case size <= 3:
		for _, b := range bytesRepr {
			mantissa = mantissa<<8 | uint32(b)
		}
		mantissa <<= uint((3 - size) * 8)
	default:
		mantissa = uint32(bytesRepr[0])<<16 | uint32(bytesRepr[1])<<8 | uint32(bytesRepr[2])
	}
	// If the high bit of the mantissa's top byte would be set, the value
	// would be interpreted as negative; shift right one byte and bump size.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}
	return size<<24 | mantissa
}

// DifficultyTargetFromCompact decodes the compact 4-byte form back into a
// full 256-bit target.
func DifficultyTargetFromCompact(compact uint32) DifficultyTarget {
	size := compact >> 24
	mantissa := compact & 0x00ffffff
	var v *big.Int
	if size <= 3 {
		mantissa >>= uint((3 - size) * 8)
		v = big.NewInt(int64(mantissa))
	} else {
		v = big.NewInt(int64(mantissa))
		v.Lsh(v, uint(8*(size-3)))
	}
	return NewDifficultyTarget(v)
}
