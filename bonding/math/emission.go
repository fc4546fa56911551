package math

import (
	dmath "github.com/krazyTry/redao-go/decimal_math"

	"github.com/krazyTry/redao-go/bonding/shared"
	"github.com/shopspring/decimal"
)

// TotalEmissionsAtEpoch returns genesisSupply * sum(1/2^n) for n in [0, epoch),
// dividing each term as an integer. Every term after n=0 truncates to zero,
// so the result is 0 for epoch 0 and genesisSupply for any later epoch.
func TotalEmissionsAtEpoch(genesisSupply uint64, epoch uint32) (uint64, error) {
	sum := uint64(0)
	for n := uint32(0); n < epoch; n++ {
		pow, err := Pow(2, n)
		if err != nil {
			return 0, err
		}
		term, err := Div(1, pow)
		if err != nil {
			return 0, err
		}
		if sum, err = Add(sum, term); err != nil {
			return 0, err
		}
	}
	return Mul(genesisSupply, sum)
}

// GeometricEmissionsAtEpoch returns genesisSupply * sum(1/2^n) for n in
// [0, epoch) evaluated in fixed point and floored once at the end.
func GeometricEmissionsAtEpoch(genesisSupply uint64, epoch uint32) (uint64, error) {
	if epoch > shared.MaxEpoch {
		return 0, shared.ErrArithmetic
	}
	series := dmath.HalvingSeries(epoch)
	supply, err := dmath.FloorUint64(decimal.NewFromUint64(genesisSupply).Mul(series))
	if err != nil {
		return 0, shared.ErrArithmetic
	}
	return supply, nil
}

// NextHalving returns the cumulative supply at which epoch ends.
//
// The strict series reproduces TotalEmissionsAtEpoch(genesis, epoch) and
// therefore never moves past genesisSupply. The geometric series includes
// the epoch's own emissions: genesis * (1 + ... + 1/2^epoch).
func NextHalving(series shared.HalvingSeries, genesisSupply uint64, epoch uint32) (uint64, error) {
	switch series {
	case shared.HalvingSeriesStrict:
		return TotalEmissionsAtEpoch(genesisSupply, epoch)
	case shared.HalvingSeriesGeometric:
		return GeometricEmissionsAtEpoch(genesisSupply, epoch+1)
	default:
		return 0, shared.ErrHalvingSeries
	}
}

// EpochEmissions returns genesisEmissions / 2^epoch.
func EpochEmissions(epoch uint32, genesisEmissions uint64) (uint64, error) {
	pow, err := Pow(2, epoch)
	if err != nil {
		return 0, err
	}
	return Div(genesisEmissions, pow)
}

// EpochEmissionRate halves the per-bond emission rate once per epoch.
func EpochEmissionRate(epoch uint32, genesisEmissionRate uint64) (uint64, error) {
	pow, err := Pow(2, epoch)
	if err != nil {
		return 0, err
	}
	return Div(genesisEmissionRate, pow)
}
