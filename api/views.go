package api

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// uiAmount renders a base unit amount with the token decimals.
func uiAmount(v uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -int32(decimals)).String()
}

type PeriodView struct {
	Index         int    `json:"index"`
	Length        int64  `json:"length"`
	Multiplier    uint32 `json:"multiplier"`
	TreasurySplit uint32 `json:"treasury_split"`
}

type TokenView struct {
	TrackerID  string `json:"tracker_id"`
	TokenID    string `json:"token_id"`
	StateIndex uint64 `json:"state_index"`

	Creator      solana.PublicKey `json:"creator"`
	BaseMint     solana.PublicKey `json:"base_mint"`
	BaseVault    solana.PublicKey `json:"base_vault"`
	QuoteMint    solana.PublicKey `json:"quote_mint"`
	QuoteReserve solana.PublicKey `json:"quote_reserve"`
	QuoteSurplus solana.PublicKey `json:"quote_surplus"`
	QuoteRunway  solana.PublicKey `json:"quote_runway"`
	Decimals     uint8            `json:"decimals"`

	HalvingSeries     string       `json:"halving_series"`
	BondingCost       uint64       `json:"bonding_cost"`
	InitialReserve    uint64       `json:"initial_reserve"`
	Periods           []PeriodView `json:"periods"`
	RunwayFee         uint32       `json:"runway_fee"`
	RewardBps         uint32       `json:"reward_bps"`
	LaunchDate        int64        `json:"launch_date"`
	VotingEnabledDate int64        `json:"voting_enabled_date"`
	UpdatesAllowed    bool         `json:"updates_allowed"`

	EpochCount     uint32 `json:"epoch_count"`
	EmissionRate   uint64 `json:"emission_rate"`
	TotalEmissions uint64 `json:"total_emissions"`
	NextHalving    uint64 `json:"next_halving"`
	Mps            uint64 `json:"mps"`
	QuoteBonded    uint64 `json:"quote_bonded"`
	FloorPrice     string `json:"floor_price"`
	AvgPrice       string `json:"avg_price"`
	Coupons        uint64 `json:"coupons"`
}

func NewTokenView(s *bonding.TokenState) *TokenView {
	v := &TokenView{
		TrackerID:         shared.TrimID(s.TrackerID[:]),
		TokenID:           shared.TrimID(s.ID[:]),
		StateIndex:        s.StateIndex,
		Creator:           s.CreatorAddress,
		BaseMint:          s.BaseMintAddress,
		BaseVault:         s.BaseVaultAddress,
		QuoteMint:         s.QuoteMintAddress,
		QuoteReserve:      s.QuoteReserveAddress,
		QuoteSurplus:      s.QuoteSurplusAddress,
		QuoteRunway:       s.QuoteRunwayAddress,
		Decimals:          s.Decimals,
		HalvingSeries:     s.HalvingSeries.String(),
		BondingCost:       s.BondingCost,
		InitialReserve:    s.InitialReserve,
		RunwayFee:         s.RunwayFee,
		RewardBps:         s.RewardBps,
		LaunchDate:        s.LaunchDate,
		VotingEnabledDate: s.VotingEnabledDate,
		UpdatesAllowed:    s.UpdatesAllowed,
		EpochCount:        s.EpochCount,
		EmissionRate:      s.EmissionRate,
		TotalEmissions:    s.TotalEmissions,
		NextHalving:       s.NextHalving,
		Mps:               s.Mps,
		QuoteBonded:       s.QuoteBonded,
		FloorPrice:        uiAmount(s.FloorPrice, s.Decimals),
		AvgPrice:          uiAmount(s.AvgPrice, s.Decimals),
		Coupons:           s.BondCouponCount,
	}
	for i, p := range s.Periods {
		if !p.Enabled {
			continue
		}
		v.Periods = append(v.Periods, PeriodView{
			Index:         i,
			Length:        p.Length,
			Multiplier:    p.Multiplier,
			TreasurySplit: p.TreasurySplit,
		})
	}
	return v
}

type SummaryView struct {
	TrackerID         string `json:"tracker_id"`
	TokenID           string `json:"token_id"`
	EpochCount        uint32 `json:"epoch_count"`
	TotalEmissions    uint64 `json:"total_emissions"`
	NextHalving       uint64 `json:"next_halving"`
	EpochEmissionLeft uint64 `json:"epoch_emission_left"`
	Mps               uint64 `json:"mps"`
	QuoteBonded       uint64 `json:"quote_bonded"`
	TotalReserve      uint64 `json:"total_reserve"`
	TotalSurplus      uint64 `json:"total_surplus"`
	TotalRunway       uint64 `json:"total_runway"`
	FloorPrice        string `json:"floor_price"`
	AvgPrice          string `json:"avg_price"`
	Backing           uint64 `json:"backing"`
	Excess            uint64 `json:"excess"`
	Outstanding       uint64 `json:"outstanding"`
	VaultBalance      uint64 `json:"vault_balance"`
	VaultShortfall    uint64 `json:"vault_shortfall"`
	CouponsIssued     uint64 `json:"coupons_issued"`
	TotalRedeemed     uint64 `json:"total_redeemed"`
}

func NewSummaryView(s *bonding.Summary, decimals uint8) *SummaryView {
	return &SummaryView{
		TrackerID:         s.Key.TrackerID,
		TokenID:           s.Key.TokenID,
		EpochCount:        s.EpochCount,
		TotalEmissions:    s.TotalEmissions,
		NextHalving:       s.NextHalving,
		EpochEmissionLeft: s.EpochEmissionLeft,
		Mps:               s.Mps,
		QuoteBonded:       s.QuoteBonded,
		TotalReserve:      s.TotalReserve,
		TotalSurplus:      s.TotalSurplus,
		TotalRunway:       s.TotalRunway,
		FloorPrice:        uiAmount(s.FloorPrice, decimals),
		AvgPrice:          uiAmount(s.AvgPrice, decimals),
		Backing:           s.Backing,
		Excess:            s.Excess,
		Outstanding:       s.Outstanding,
		VaultBalance:      s.VaultBalance,
		VaultShortfall:    s.VaultShortfall,
		CouponsIssued:     s.CouponsIssued,
		TotalRedeemed:     s.TotalRedeemed,
	}
}

type QuoteView struct {
	Amount          uint64 `json:"amount"`
	RunwayFee       uint64 `json:"runway_fee"`
	AmountPostFee   uint64 `json:"amount_post_fee"`
	Reward          uint64 `json:"reward"`
	MaxReward       uint64 `json:"max_reward"`
	ReserveDelta    uint64 `json:"reserve_delta"`
	SurplusDelta    uint64 `json:"surplus_delta"`
	EpochTransition bool   `json:"epoch_transition"`
	RedemptionDate  int64  `json:"redemption_date"`
	FloorPrice      string `json:"floor_price"`
}

func NewQuoteView(res *bonding.BondResult) *QuoteView {
	return &QuoteView{
		Amount:          res.Amount,
		RunwayFee:       res.RunwayFee,
		AmountPostFee:   res.AmountPostFee,
		Reward:          res.Reward,
		MaxReward:       res.MaxReward,
		ReserveDelta:    res.ReserveDelta,
		SurplusDelta:    res.SurplusDelta,
		EpochTransition: res.EpochTransition,
		RedemptionDate:  res.Coupon.RedemptionDate,
		FloorPrice:      uiAmount(res.State.FloorPrice, res.State.Decimals),
	}
}

type CouponView struct {
	ID             string           `json:"id"`
	Redeemer       solana.PublicKey `json:"redeemer"`
	PeriodIndex    uint8            `json:"period_index"`
	TokensToRedeem uint64           `json:"tokens_to_redeem"`
	RedemptionDate int64            `json:"redemption_date"`
	CouponCount    uint64           `json:"coupon_count"`
	IsRedeemed     bool             `json:"is_redeemed"`
}

func NewCouponView(c *bonding.BondCoupon) *CouponView {
	return &CouponView{
		ID:             shared.TrimID(c.ID[:]),
		Redeemer:       c.Redeemer,
		PeriodIndex:    c.PeriodIndex,
		TokensToRedeem: c.TokensToRedeem,
		RedemptionDate: c.RedemptionDate,
		CouponCount:    c.CouponCount,
		IsRedeemed:     c.IsRedeemed,
	}
}
