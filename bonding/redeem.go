package bonding

import (
	"github.com/gagliardetto/solana-go"

	bmath "github.com/krazyTry/redao-go/bonding/math"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// RedeemRequest asks to release a matured coupon to Destination, a base
// token account of the redeemer.
type RedeemRequest struct {
	Caller      solana.PublicKey
	Destination solana.PublicKey
	Now         int64
}

type RedeemResult struct {
	State    *TokenState
	Coupon   *BondCoupon
	Transfer TransferRequest
}

// Redeem releases the tokens held by coupon. The transfer is signed by the
// vault authority of the token.
func Redeem(state *TokenState, coupon *BondCoupon, req *RedeemRequest) (*RedeemResult, error) {
	if coupon.StateKey() != state.Key() {
		return nil, shared.ErrCouponStateMismatch
	}
	if !req.Caller.Equals(coupon.Redeemer) {
		return nil, shared.ErrInvalidRedeemer
	}
	if !coupon.Matured(req.Now) {
		return nil, shared.ErrCouponDate
	}
	if coupon.IsRedeemed {
		return nil, shared.ErrCouponClaimed
	}

	stagedState := *state
	stagedCoupon := *coupon
	var err error
	if stagedState.TotalRedeemed, err = bmath.Add(stagedState.TotalRedeemed, coupon.TokensToRedeem); err != nil {
		return nil, err
	}
	stagedCoupon.IsRedeemed = true

	return &RedeemResult{
		State:  &stagedState,
		Coupon: &stagedCoupon,
		Transfer: TransferRequest{
			Kind:      shared.TransferKindRelease,
			Authority: state.VaultAuthority,
			From:      state.BaseVaultAddress,
			To:        req.Destination,
			Mint:      state.BaseMintAddress,
			Decimals:  state.Decimals,
			Amount:    coupon.TokensToRedeem,
			Seeds:     VaultSeeds(state),
		},
	}, nil
}

// VaultSeeds returns the derivation seeds of the vault authority of state.
func VaultSeeds(state *TokenState) [][]byte {
	key := state.Key()
	return [][]byte{[]byte(key.TrackerID), []byte(key.TokenID)}
}

// TopupResult holds a staged vault top-up.
type TopupResult struct {
	State    *TokenState
	Transfer TransferRequest
}

// Topup moves base tokens from the creator's source account into the vault.
func Topup(state *TokenState, caller, source solana.PublicKey, amount uint64) (*TopupResult, error) {
	if !caller.Equals(state.CreatorAddress) {
		return nil, shared.ErrInvalidCreator
	}
	if amount == 0 {
		return nil, shared.ErrAmountIsZero
	}
	staged := *state
	var err error
	if staged.TotalTopup, err = bmath.Add(staged.TotalTopup, amount); err != nil {
		return nil, err
	}
	return &TopupResult{
		State: &staged,
		Transfer: TransferRequest{
			Kind:      shared.TransferKindTopup,
			Authority: caller,
			From:      source,
			To:        state.BaseVaultAddress,
			Mint:      state.BaseMintAddress,
			Decimals:  state.Decimals,
			Amount:    amount,
		},
	}, nil
}
