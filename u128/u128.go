package u128

import (
	"errors"
	"math/big"
	"math/bits"

	binary "github.com/gagliardetto/binary"
)

var (
	ErrNegative   = errors.New("value cannot be negative")
	ErrOverflow   = errors.New("value overflows Uint128")
	ErrNarrowing  = errors.New("value overflows uint64")
	ErrDivideZero = errors.New("division by zero")
)

var mask64 = new(big.Int).SetUint64(^uint64(0))

// FromBig converts v into a little endian Uint128, failing instead of truncating.
func FromBig(v *big.Int) (binary.Uint128, error) {
	if v.Sign() < 0 {
		return binary.Uint128{}, ErrNegative
	}
	if v.BitLen() > 128 {
		return binary.Uint128{}, ErrOverflow
	}
	out := binary.NewUint128LittleEndian()
	out.Lo = new(big.Int).And(v, mask64).Uint64()
	out.Hi = new(big.Int).Rsh(v, 64).Uint64()
	return *out, nil
}

// ToBig widens u for arbitrary precision arithmetic.
func ToBig(u binary.Uint128) *big.Int {
	hi := new(big.Int).Lsh(new(big.Int).SetUint64(u.Hi), 64)
	return hi.Or(hi, new(big.Int).SetUint64(u.Lo))
}

// Mul64 returns the full 128-bit product of a and b.
func Mul64(a, b uint64) binary.Uint128 {
	hi, lo := bits.Mul64(a, b)
	out := binary.NewUint128LittleEndian()
	out.Hi, out.Lo = hi, lo
	return *out
}

// Div64 divides a 128-bit value by d. The quotient must fit in 64 bits.
func Div64(u binary.Uint128, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivideZero
	}
	if u.Hi >= d {
		return 0, ErrNarrowing
	}
	q, _ := bits.Div64(u.Hi, u.Lo, d)
	return q, nil
}

// Narrow returns u as uint64 when the high word is empty.
func Narrow(u binary.Uint128) (uint64, error) {
	if u.Hi != 0 {
		return 0, ErrNarrowing
	}
	return u.Lo, nil
}
