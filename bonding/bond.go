package bonding

import (
	"math"

	"github.com/gagliardetto/solana-go"

	bmath "github.com/krazyTry/redao-go/bonding/math"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// BondRequest describes one bond of quote against a period.
type BondRequest struct {
	Amount      uint64
	PeriodIndex uint8
	Now         int64
	Redeemer    solana.PublicKey
	// Source is the redeemer's quote token account.
	Source   solana.PublicKey
	CouponID string
}

// TransferRequest is a value movement handed to the Treasury.
type TransferRequest struct {
	Kind      shared.TransferKind
	Authority solana.PublicKey
	From      solana.PublicKey
	To        solana.PublicKey
	Mint      solana.PublicKey
	Decimals  uint8
	Amount    uint64
	// Seeds are set when Authority is the vault authority of a token.
	Seeds [][]byte
}

// BondResult holds the staged records of a bond. Nothing in it has been
// persisted or transferred yet.
type BondResult struct {
	State  *TokenState
	Coupon *BondCoupon
	Vote   *BondVote

	Amount          uint64 // charged, lower than requested after an epoch clamp
	RunwayFee       uint64
	AmountPostFee   uint64
	Reward          uint64
	MaxReward       uint64
	ReserveDelta    uint64
	SurplusDelta    uint64
	EpochTransition bool

	Transfers []TransferRequest
}

// Bond applies req to a copy of state. state and vote are left untouched; on
// success the returned result carries the new records.
func Bond(state *TokenState, req *BondRequest, vote *BondVote) (*BondResult, error) {
	return bond(state, req, vote, false)
}

// QuoteBond runs the bond computation without a coupon id or vote counter.
func QuoteBond(state *TokenState, req *BondRequest) (*BondResult, error) {
	return bond(state, req, nil, true)
}

func bond(state *TokenState, req *BondRequest, vote *BondVote, quote bool) (*BondResult, error) {
	if req.Amount == 0 {
		return nil, shared.ErrAmountIsZero
	}
	if int(req.PeriodIndex) >= len(state.Periods) {
		return nil, shared.ErrPeriodLength
	}
	period := state.Periods[req.PeriodIndex]
	if !period.Enabled {
		return nil, shared.ErrDisabledPeriod
	}
	var couponID [shared.CouponIDLength]byte
	if !quote {
		id, err := shared.PadCouponID(req.CouponID)
		if err != nil {
			return nil, err
		}
		couponID = id
	}
	if req.Now < state.LaunchDate {
		return nil, shared.ErrNotLaunched
	}
	if vote != nil && vote.StateKey() != state.Key() {
		return nil, shared.ErrVoteStateMismatch
	}

	staged := *state
	res := &BondResult{State: &staged, Amount: req.Amount}

	var err error
	if res.RunwayFee, res.AmountPostFee, err = runwayFee(&staged, res.Amount); err != nil {
		return nil, err
	}
	multiplier := uint64(period.Multiplier)
	if res.Reward, err = bmath.BondReward(res.Amount, staged.BondingCost, staged.EmissionRate, multiplier, staged.RewardBps); err != nil {
		return nil, err
	}

	totalEmissions, err := bmath.Add(staged.TotalEmissions, res.Reward)
	if err != nil {
		return nil, err
	}
	if totalEmissions > staged.NextHalving {
		// cap at the threshold and charge only for what is emitted
		res.EpochTransition = true
		if res.Reward, err = bmath.Sub(staged.NextHalving, staged.TotalEmissions); err != nil {
			return nil, err
		}
		if res.Amount, err = clampedAmount(&staged, res.Reward, multiplier, req.Amount); err != nil {
			return nil, err
		}
		if res.RunwayFee, res.AmountPostFee, err = runwayFee(&staged, res.Amount); err != nil {
			return nil, err
		}
		totalEmissions = staged.NextHalving
	}
	if res.Reward == 0 || res.Amount == 0 {
		return nil, shared.ErrZero
	}

	maxMultiplier, ok := staged.MaxMultiplier()
	if !ok {
		return nil, shared.ErrDisabledPeriod
	}
	// potential supply grows by the reward of the requested amount at the top period
	if res.MaxReward, err = bmath.BondReward(req.Amount, staged.BondingCost, staged.EmissionRate, uint64(maxMultiplier), staged.RewardBps); err != nil {
		return nil, err
	}
	mps, err := bmath.Add(staged.Mps, res.MaxReward)
	if err != nil {
		return nil, err
	}
	if mps > staged.NextHalving || res.EpochTransition {
		if res.MaxReward, err = bmath.Sub(staged.NextHalving, staged.Mps); err != nil {
			return nil, err
		}
		mps = staged.NextHalving
	}
	if totalEmissions > mps {
		return nil, shared.ErrMaxSupplyExceeded
	}
	staged.TotalEmissions = totalEmissions
	staged.Mps = mps

	if err := split(&staged, res, period.TreasurySplit); err != nil {
		return nil, err
	}

	if staged.BondCouponCount, err = bmath.Add(staged.BondCouponCount, 1); err != nil {
		return nil, err
	}
	if period.Length > math.MaxInt64-req.Now {
		return nil, shared.ErrArithmetic
	}
	res.Coupon = &BondCoupon{
		TrackerID:      staged.TrackerID,
		TokenID:        staged.ID,
		Redeemer:       req.Redeemer,
		ID:             couponID,
		PeriodIndex:    req.PeriodIndex,
		TokensToRedeem: res.Reward,
		RedemptionDate: req.Now + period.Length,
		CouponCount:    staged.BondCouponCount,
	}

	if res.EpochTransition {
		if err := advanceEpoch(&staged); err != nil {
			return nil, err
		}
	} else if staged.CurrentEpochEmissions, err = bmath.Add(staged.CurrentEpochEmissions, res.Reward); err != nil {
		return nil, err
	}

	if vote != nil {
		stagedVote := *vote
		if staged.VotingEnabledDate > req.Now {
			if stagedVote.TotalVotes, err = bmath.Add(stagedVote.TotalVotes, res.Amount); err != nil {
				return nil, err
			}
		}
		res.Vote = &stagedVote
	}

	res.Transfers = bondTransfers(&staged, req, res)
	return res, nil
}

// clampedAmount returns the quote charged for reward, rounded up so that at
// least one quote unit is paid, and never above requested.
func clampedAmount(state *TokenState, reward, multiplier, requested uint64) (uint64, error) {
	amount, err := bmath.BondAmount(reward, state.BondingCost, state.EmissionRate, multiplier, state.RewardBps)
	if err != nil {
		return 0, err
	}
	covered, err := bmath.BondReward(amount, state.BondingCost, state.EmissionRate, multiplier, state.RewardBps)
	if err != nil {
		return 0, err
	}
	if covered < reward && amount < requested {
		amount++
	}
	return min(amount, requested), nil
}

func runwayFee(state *TokenState, amount uint64) (fee, postFee uint64, err error) {
	if fee, err = bmath.Fee(amount, uint64(state.RunwayFee), uint64(state.FeeBps)); err != nil {
		return 0, 0, err
	}
	if postFee, err = bmath.Sub(amount, fee); err != nil {
		return 0, 0, err
	}
	return fee, postFee, nil
}

// split routes the post-fee quote to the reserve and surplus pools and
// refreshes the prices derived from them.
func split(state *TokenState, res *BondResult, treasurySplit uint32) error {
	var err error
	if res.SurplusDelta, err = bmath.Fee(res.AmountPostFee, uint64(treasurySplit), uint64(state.FeeBps)); err != nil {
		return err
	}
	if res.ReserveDelta, err = bmath.Sub(res.AmountPostFee, res.SurplusDelta); err != nil {
		return err
	}

	before, err := bmath.Add(state.TotalReserve, state.TotalSurplusReserve)
	if err != nil {
		return err
	}
	if state.TotalReserve, err = bmath.Add(state.TotalReserve, res.ReserveDelta); err != nil {
		return err
	}
	if state.TotalSurplusReserve, err = bmath.Add(state.TotalSurplusReserve, res.SurplusDelta); err != nil {
		return err
	}
	after, err := bmath.Add(state.TotalReserve, state.TotalSurplusReserve)
	if err != nil {
		return err
	}
	if delta, err := bmath.Sub(after, before); err != nil || delta != res.AmountPostFee {
		return shared.ErrReserveDeltaMismatch
	}

	if state.QuoteBonded, err = bmath.Add(state.QuoteBonded, res.AmountPostFee); err != nil {
		return err
	}
	if state.TotalRunwayReserve, err = bmath.Add(state.TotalRunwayReserve, res.RunwayFee); err != nil {
		return err
	}

	if state.Mps > 0 {
		if state.FloorPrice, err = bmath.FloorPrice(state.QuoteBonded, state.Mps, state.Decimals); err != nil {
			return err
		}
	}
	if state.TotalEmissions > state.InitialReserve {
		bonded, err := bmath.Sub(state.TotalEmissions, state.InitialReserve)
		if err != nil {
			return err
		}
		if state.AvgPrice, err = bmath.FloorPrice(state.QuoteBonded, bonded, state.Decimals); err != nil {
			return err
		}
	}
	return nil
}

func advanceEpoch(state *TokenState) error {
	var err error
	if state.EpochCount >= shared.MaxEpoch-1 {
		return shared.ErrArithmetic
	}
	state.EpochCount++
	if state.TotalEpochEmissions, err = bmath.EpochEmissions(state.EpochCount, state.GenesisSupply); err != nil {
		return err
	}
	state.CurrentEpochEmissions = 0
	if state.NextHalving, err = bmath.NextHalving(state.HalvingSeries, state.GenesisSupply, state.EpochCount); err != nil {
		return err
	}
	state.EmissionRate, err = bmath.EpochEmissionRate(state.EpochCount, state.GenesisEmissionRate)
	return err
}

func bondTransfers(state *TokenState, req *BondRequest, res *BondResult) []TransferRequest {
	var transfers []TransferRequest
	add := func(kind shared.TransferKind, to solana.PublicKey, amount uint64) {
		if amount == 0 {
			return
		}
		transfers = append(transfers, TransferRequest{
			Kind:      kind,
			Authority: req.Redeemer,
			From:      req.Source,
			To:        to,
			Mint:      state.QuoteMintAddress,
			Decimals:  state.Decimals,
			Amount:    amount,
		})
	}
	add(shared.TransferKindRunway, state.QuoteRunwayAddress, res.RunwayFee)
	add(shared.TransferKindReserve, state.QuoteReserveAddress, res.ReserveDelta)
	add(shared.TransferKindSurplus, state.QuoteSurplusAddress, res.SurplusDelta)
	return transfers
}
