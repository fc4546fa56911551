package math

import (
	"math/big"
	"math/bits"

	"github.com/krazyTry/redao-go/bonding/shared"
	"github.com/krazyTry/redao-go/u128"
)

func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, shared.ErrArithmetic
	}
	return sum, nil
}

func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, shared.ErrArithmetic
	}
	return diff, nil
}

func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, shared.ErrArithmetic
	}
	return lo, nil
}

func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, shared.ErrArithmetic
	}
	return a / b, nil
}

// Pow computes base^exp, failing as soon as an intermediate overflows.
func Pow(base uint64, exp uint32) (uint64, error) {
	result := uint64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, err := Mul(result, base)
			if err != nil {
				return 0, err
			}
			result = r
		}
		exp >>= 1
		if exp == 0 {
			break
		}
		b, err := Mul(base, base)
		if err != nil {
			return 0, err
		}
		base = b
	}
	return result, nil
}

// MulDiv computes x*y/denominator with a 128-bit intermediate.
func MulDiv(x, y, denominator uint64) (uint64, error) {
	q, err := u128.Div64(u128.Mul64(x, y), denominator)
	if err != nil {
		return 0, shared.ErrArithmetic
	}
	return q, nil
}

// narrow moves a widened result back to uint64. The value must fit in 128
// bits on the way, mirroring a checked u128 pipeline.
func narrow(v *big.Int) (uint64, error) {
	w, err := u128.FromBig(v)
	if err != nil {
		return 0, shared.ErrArithmetic
	}
	n, err := u128.Narrow(w)
	if err != nil {
		return 0, shared.ErrArithmetic
	}
	return n, nil
}

func checked128(v *big.Int) error {
	if _, err := u128.FromBig(v); err != nil {
		return shared.ErrArithmetic
	}
	return nil
}
