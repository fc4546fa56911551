package bonding

import (
	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/redao-go/bonding/shared"
)

// Period is one bonding slot: how long the coupon is locked, how much the
// reward is boosted and how the post-fee quote is split.
type Period struct {
	Length        int64  // lock duration in seconds
	Multiplier    uint32 // reward multiplier over RewardBps
	TreasurySplit uint32 // share routed to the surplus pool over FeeBps
	Enabled       bool
}

// TokenState is the economic state of one bonded token.
type TokenState struct {
	TrackerID  [shared.RecordIDLength]byte
	ID         [shared.RecordIDLength]byte
	StateIndex uint64

	CreatorAddress      solana.PublicKey
	BaseMintAddress     solana.PublicKey
	BaseVaultAddress    solana.PublicKey
	VaultAuthority      solana.PublicKey
	QuoteMintAddress    solana.PublicKey
	QuoteReserveAddress solana.PublicKey
	QuoteSurplusAddress solana.PublicKey
	QuoteRunwayAddress  solana.PublicKey
	Decimals            uint8

	// schedule
	HalvingSeries       shared.HalvingSeries
	GenesisEmissionRate uint64
	GenesisSupply       uint64
	BondingCost         uint64
	InitialReserve      uint64
	Periods             [shared.MaxPeriods]Period
	FeeBps              uint32
	RewardBps           uint32
	RunwayFee           uint32
	VotingEnabledDate   int64
	LaunchDate          int64
	UpdatesAllowed      bool

	// running totals
	EpochCount            uint32
	CurrentEpochEmissions uint64 // emitted this epoch
	TotalEpochEmissions   uint64 // planned for this epoch
	TotalEmissions        uint64
	NextHalving           uint64
	Mps                   uint64 // emissions had every bond used the top multiplier
	QuoteBonded           uint64
	TotalReserve          uint64
	TotalSurplusReserve   uint64
	TotalRunwayReserve    uint64
	TotalRedeemed         uint64
	TotalTopup            uint64
	BondCouponCount       uint64
	FloorPrice            uint64
	AvgPrice              uint64
	EmissionRate          uint64
}

// Key returns the ledger key of the state.
func (s *TokenState) Key() StateKey {
	return StateKey{TrackerID: shared.TrimID(s.TrackerID[:]), TokenID: shared.TrimID(s.ID[:])}
}

// MaxMultiplier returns the multiplier of the last enabled period.
func (s *TokenState) MaxMultiplier() (uint32, bool) {
	for i := len(s.Periods) - 1; i >= 0; i-- {
		if s.Periods[i].Enabled {
			return s.Periods[i].Multiplier, true
		}
	}
	return 0, false
}

// BondCoupon is a time locked claim on base tokens issued by one bond.
type BondCoupon struct {
	TrackerID      [shared.RecordIDLength]byte
	TokenID        [shared.RecordIDLength]byte
	Redeemer       solana.PublicKey
	ID             [shared.CouponIDLength]byte
	PeriodIndex    uint8
	TokensToRedeem uint64
	RedemptionDate int64
	CouponCount    uint64
	IsRedeemed     bool
}

func (c *BondCoupon) StateKey() StateKey {
	return StateKey{TrackerID: shared.TrimID(c.TrackerID[:]), TokenID: shared.TrimID(c.TokenID[:])}
}

func (c *BondCoupon) Key() CouponKey {
	return CouponKey{State: c.StateKey(), Redeemer: c.Redeemer, ID: shared.TrimID(c.ID[:])}
}

// Matured reports whether the coupon can be redeemed at now.
func (c *BondCoupon) Matured(now int64) bool {
	return now > c.RedemptionDate
}

// BondVote accumulates bonded quote as voting weight.
type BondVote struct {
	TrackerID  [shared.RecordIDLength]byte
	TokenID    [shared.RecordIDLength]byte
	ID         [shared.RecordIDLength]byte
	TotalVotes uint64
}

func (v *BondVote) StateKey() StateKey {
	return StateKey{TrackerID: shared.TrimID(v.TrackerID[:]), TokenID: shared.TrimID(v.TokenID[:])}
}

func (v *BondVote) Key() VoteKey {
	return VoteKey{State: v.StateKey(), ID: shared.TrimID(v.ID[:])}
}

// TokenTrackerBase indexes the tokens launched under one tracker.
type TokenTrackerBase struct {
	ID                  [shared.TrackerIDLength]byte
	Index               uint64
	AuthWallet          solana.PublicKey
	ReceiveMint         solana.PublicKey
	ReceiveTokenAccount solana.PublicKey
	TotalReceived       uint64
	Cost                uint64
	Enabled             bool
}

func (t *TokenTrackerBase) Key() string {
	return shared.TrimID(t.ID[:])
}

// TokenTracker records the launch index of one token.
type TokenTracker struct {
	TrackerID [shared.RecordIDLength]byte
	TokenID   [shared.RecordIDLength]byte
	Index     uint64
}

func (t *TokenTracker) StateKey() StateKey {
	return StateKey{TrackerID: shared.TrimID(t.TrackerID[:]), TokenID: shared.TrimID(t.TokenID[:])}
}

// StateKey addresses a TokenState.
type StateKey struct {
	TrackerID string
	TokenID   string
}

func (k StateKey) String() string {
	return k.TrackerID + "/" + k.TokenID
}

// CouponKey addresses a BondCoupon. Coupon ids are unique per token and redeemer.
type CouponKey struct {
	State    StateKey
	Redeemer solana.PublicKey
	ID       string
}

func (k CouponKey) String() string {
	return k.State.String() + "/" + k.Redeemer.String() + "/" + k.ID
}

// VoteKey addresses a BondVote.
type VoteKey struct {
	State StateKey
	ID    string
}

func (k VoteKey) String() string {
	return k.State.String() + "/" + k.ID
}
