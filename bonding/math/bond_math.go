package math

import (
	"math/big"

	"github.com/krazyTry/redao-go/bonding/shared"
)

// Surplus returns quoteBonded - reserve.
func Surplus(quoteBonded, reserve uint64) (uint64, error) {
	return Sub(quoteBonded, reserve)
}

// Reserve returns floorPrice * totalEmissions / 10^quoteDecimals.
func Reserve(floorPrice, totalEmissions uint64, quoteDecimals uint8) (uint64, error) {
	basePow, err := Pow(10, uint32(quoteDecimals))
	if err != nil {
		return 0, err
	}
	return MulDiv(floorPrice, totalEmissions, basePow)
}

// FloorPrice returns quoteBonded * 10^quoteDecimals / mps, the price per
// whole base token in quote base units.
func FloorPrice(quoteBonded, mps uint64, quoteDecimals uint8) (uint64, error) {
	if mps == 0 {
		return 0, shared.ErrArithmetic
	}
	basePow, err := Pow(10, uint32(quoteDecimals))
	if err != nil {
		return 0, err
	}
	return MulDiv(quoteBonded, basePow, mps)
}

// BondReward computes (((amount * emissionRate) / cost) * multiplier) / bps.
//
// Each intermediate must fit in 128 bits and the result must fit in 64.
func BondReward(amount, cost, emissionRate, multiplier uint64, bps uint32) (uint64, error) {
	if cost == 0 || bps == 0 {
		return 0, shared.ErrArithmetic
	}
	v := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(emissionRate))
	if err := checked128(v); err != nil {
		return 0, err
	}
	v.Quo(v, new(big.Int).SetUint64(cost))
	v.Mul(v, new(big.Int).SetUint64(multiplier))
	if err := checked128(v); err != nil {
		return 0, err
	}
	v.Quo(v, new(big.Int).SetUint64(uint64(bps)))
	return narrow(v)
}

// BondAmount is the inverse of BondReward:
// (bps * reward * cost) / (multiplier * emissionRate).
func BondAmount(reward, cost, emissionRate, multiplier uint64, bps uint32) (uint64, error) {
	num := new(big.Int).Mul(new(big.Int).SetUint64(uint64(bps)), new(big.Int).SetUint64(reward))
	num.Mul(num, new(big.Int).SetUint64(cost))
	if err := checked128(num); err != nil {
		return 0, err
	}
	den := new(big.Int).Mul(new(big.Int).SetUint64(multiplier), new(big.Int).SetUint64(emissionRate))
	if den.Sign() == 0 {
		return 0, shared.ErrArithmetic
	}
	if err := checked128(den); err != nil {
		return 0, err
	}
	return narrow(num.Quo(num, den))
}

// Fee returns amount * feeRate / maxBps.
func Fee(amount, feeRate, maxBps uint64) (uint64, error) {
	return MulDiv(amount, feeRate, maxBps)
}
