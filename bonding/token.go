package bonding

import (
	"github.com/gagliardetto/solana-go"

	bmath "github.com/krazyTry/redao-go/bonding/math"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// TokenParams are the schedule parameters of a new token. Period slices may
// be shorter than MaxPeriods, the remaining slots stay disabled.
type TokenParams struct {
	NextHalving       uint64
	EmissionRate      uint64
	BondingCost       uint64
	InitialReserve    uint64
	PeriodLengths     []int64
	PeriodMultipliers []uint32
	TreasurySplits    []uint32
	PeriodEnabled     []bool
	UpdatesAllowed    bool
	VotingEnabledDate int64
	LaunchDate        int64
	RunwayFee         uint32
	RewardBps         uint32 // 0 selects DefaultRewardBps
}

// CreateTokenRequest carries everything needed to launch a token.
type CreateTokenRequest struct {
	TrackerID string
	TokenID   string

	Creator        solana.PublicKey
	BaseMint       solana.PublicKey
	BaseVault      solana.PublicKey
	VaultAuthority solana.PublicKey
	QuoteMint      solana.PublicKey
	QuoteReserve   solana.PublicKey
	QuoteSurplus   solana.PublicKey
	QuoteRunway    solana.PublicKey

	BaseDecimals  uint8
	QuoteDecimals uint8

	Params TokenParams
}

// NewTokenTrackerBase creates an empty tracker owned by authWallet.
func NewTokenTrackerBase(id string, authWallet, receiveMint, receiveAccount solana.PublicKey, cost uint64) (*TokenTrackerBase, error) {
	paddedID, err := shared.PadRecordID(id)
	if err != nil {
		return nil, err
	}
	return &TokenTrackerBase{
		ID:                  paddedID,
		AuthWallet:          authWallet,
		ReceiveMint:         receiveMint,
		ReceiveTokenAccount: receiveAccount,
		Cost:                cost,
	}, nil
}

// NewTokenState validates req and returns the initial state of the token
// together with its tracker entry. tracker is not modified; the caller
// persists the returned index.
func NewTokenState(tracker *TokenTrackerBase, req *CreateTokenRequest, series shared.HalvingSeries) (*TokenState, *TokenTracker, error) {
	tokenID, err := shared.PadRecordID(req.TokenID)
	if err != nil {
		return nil, nil, err
	}
	if req.BaseMint.Equals(req.QuoteMint) {
		return nil, nil, shared.ErrBaseAndQuoteMatch
	}
	if req.BaseDecimals != req.QuoteDecimals ||
		req.BaseDecimals < shared.MinDecimals || req.BaseDecimals > shared.MaxDecimals {
		return nil, nil, shared.ErrDecimals
	}
	if series > shared.HalvingSeriesGeometric {
		return nil, nil, shared.ErrHalvingSeries
	}

	p := req.Params
	if p.NextHalving == 0 || p.EmissionRate == 0 || p.BondingCost == 0 {
		return nil, nil, shared.ErrZero
	}
	if p.InitialReserve > p.NextHalving {
		return nil, nil, shared.ErrInitialReserveTooLarge
	}
	periods, err := buildPeriods(p)
	if err != nil {
		return nil, nil, err
	}
	if err := validateSchedule(&periods, p.RunwayFee); err != nil {
		return nil, nil, err
	}

	rewardBps := p.RewardBps
	if rewardBps == 0 {
		rewardBps = shared.DefaultRewardBps
	}

	index, err := bmath.Add(tracker.Index, 1)
	if err != nil {
		return nil, nil, err
	}

	state := &TokenState{
		TrackerID:           tracker.ID,
		ID:                  tokenID,
		StateIndex:          index,
		CreatorAddress:      req.Creator,
		BaseMintAddress:     req.BaseMint,
		BaseVaultAddress:    req.BaseVault,
		VaultAuthority:      req.VaultAuthority,
		QuoteMintAddress:    req.QuoteMint,
		QuoteReserveAddress: req.QuoteReserve,
		QuoteSurplusAddress: req.QuoteSurplus,
		QuoteRunwayAddress:  req.QuoteRunway,
		Decimals:            req.QuoteDecimals,

		HalvingSeries:       series,
		GenesisEmissionRate: p.EmissionRate,
		GenesisSupply:       p.NextHalving,
		BondingCost:         p.BondingCost,
		InitialReserve:      p.InitialReserve,
		Periods:             periods,
		FeeBps:              shared.FeeBps,
		RewardBps:           rewardBps,
		RunwayFee:           p.RunwayFee,
		VotingEnabledDate:   p.VotingEnabledDate,
		LaunchDate:          p.LaunchDate,
		UpdatesAllowed:      p.UpdatesAllowed,

		CurrentEpochEmissions: p.InitialReserve,
		TotalEpochEmissions:   p.NextHalving,
		TotalEmissions:        p.InitialReserve,
		NextHalving:           p.NextHalving,
		Mps:                   p.InitialReserve,
		EmissionRate:          p.EmissionRate,
	}
	entry := &TokenTracker{TrackerID: tracker.ID, TokenID: tokenID, Index: index}
	return state, entry, nil
}

func buildPeriods(p TokenParams) ([shared.MaxPeriods]Period, error) {
	var periods [shared.MaxPeriods]Period
	n := len(p.PeriodLengths)
	if n > shared.MaxPeriods || len(p.PeriodMultipliers) != n ||
		len(p.TreasurySplits) != n || len(p.PeriodEnabled) != n {
		return periods, shared.ErrPeriodLength
	}
	for i := 0; i < n; i++ {
		periods[i] = Period{
			Length:        p.PeriodLengths[i],
			Multiplier:    p.PeriodMultipliers[i],
			TreasurySplit: p.TreasurySplits[i],
			Enabled:       p.PeriodEnabled[i],
		}
	}
	return periods, nil
}

func validateSchedule(periods *[shared.MaxPeriods]Period, runwayFee uint32) error {
	if runwayFee > shared.FeeBps {
		return shared.ErrRunwayFee
	}
	enabled := false
	last := uint32(0)
	for _, period := range periods {
		if period.TreasurySplit > shared.FeeBps {
			return shared.ErrTreasurySplit
		}
		if !period.Enabled {
			continue
		}
		if period.Length < 0 {
			return shared.ErrPeriodLength
		}
		if period.Multiplier == 0 {
			return shared.ErrZero
		}
		// the last enabled slot carries the top multiplier used for mps
		if period.Multiplier < last {
			return shared.ErrPeriodMultiplier
		}
		last = period.Multiplier
		enabled = true
	}
	if !enabled {
		return shared.ErrDisabledPeriod
	}
	return nil
}

// NewBondVote creates an empty vote counter for state.
func NewBondVote(state *TokenState, id string) (*BondVote, error) {
	paddedID, err := shared.PadRecordID(id)
	if err != nil {
		return nil, err
	}
	return &BondVote{TrackerID: state.TrackerID, TokenID: state.ID, ID: paddedID}, nil
}

// ScheduleUpdate replaces the mutable schedule of a token. Running totals and
// the halving schedule are never touched.
type ScheduleUpdate struct {
	BondingCost       uint64
	PeriodLengths     []int64
	PeriodMultipliers []uint32
	TreasurySplits    []uint32
	PeriodEnabled     []bool
	VotingEnabledDate int64
	LaunchDate        int64
	RunwayFee         uint32
}

// UpdateSchedule returns a copy of state with update applied.
func UpdateSchedule(state *TokenState, caller solana.PublicKey, update *ScheduleUpdate) (*TokenState, error) {
	if !caller.Equals(state.CreatorAddress) {
		return nil, shared.ErrInvalidCreator
	}
	if !state.UpdatesAllowed {
		return nil, shared.ErrUpdatesNotAllowed
	}
	if update.BondingCost == 0 {
		return nil, shared.ErrZero
	}
	periods, err := buildPeriods(TokenParams{
		PeriodLengths:     update.PeriodLengths,
		PeriodMultipliers: update.PeriodMultipliers,
		TreasurySplits:    update.TreasurySplits,
		PeriodEnabled:     update.PeriodEnabled,
	})
	if err != nil {
		return nil, err
	}
	if err := validateSchedule(&periods, update.RunwayFee); err != nil {
		return nil, err
	}

	staged := *state
	staged.BondingCost = update.BondingCost
	staged.Periods = periods
	staged.RunwayFee = update.RunwayFee
	staged.VotingEnabledDate = update.VotingEnabledDate
	staged.LaunchDate = update.LaunchDate
	return &staged, nil
}
