package decimal_math

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrAmountOverflow = errors.New("amount overflows uint64")

	maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)
)

// Pow10 returns 10^n exactly.
func Pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}

// HalfPow returns 1/2^n exactly, written as 5^n * 10^-n.
func HalfPow(n uint32) decimal.Decimal {
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(n)), nil)
	return decimal.NewFromBigInt(five, -int32(n))
}

// HalvingSeries returns 1 + 1/2 + ... + 1/2^(terms-1) without rounding.
func HalvingSeries(terms uint32) decimal.Decimal {
	sum := decimal.Zero
	for n := uint32(0); n < terms; n++ {
		sum = sum.Add(HalfPow(n))
	}
	return sum
}

// FloorUint64 truncates d toward zero and checks that it fits in uint64.
func FloorUint64(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	f := d.Floor()
	if f.GreaterThan(maxUint64) {
		return 0, ErrAmountOverflow
	}
	return f.BigInt().Uint64(), nil
}

// ToUIAmount converts raw token units to a human readable amount.
func ToUIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// FromUIAmount converts a human readable amount into raw token units,
// truncating digits beyond the token precision.
func FromUIAmount(amount decimal.Decimal, decimals uint8) (uint64, error) {
	return FloorUint64(amount.Mul(Pow10(int32(decimals))))
}
