package bonding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
	"github.com/krazyTry/redao-go/store/memory"
)

type fakeTreasury struct {
	mu        sync.Mutex
	transfers []bonding.TransferRequest
	batches   int
	fail      error
}

func (f *fakeTreasury) Execute(_ context.Context, transfers []bonding.TransferRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.transfers = append(f.transfers, transfers...)
	f.batches++
	return nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	engine   *bonding.Engine
	store    *memory.Store
	treasury *fakeTreasury
	clock    *clock
	reg      *prometheus.Registry
	auth     solana.PublicKey
	key      bonding.StateKey
	state    *bonding.TokenState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:    memory.New(),
		treasury: &fakeTreasury{},
		clock:    &clock{now: time.Unix(1_000, 0)},
		reg:      prometheus.NewRegistry(),
		auth:     solana.NewWallet().PublicKey(),
	}
	f.engine = bonding.NewEngine(
		bonding.Config{HalvingSeries: shared.HalvingSeriesStrict, AllowedCreators: []solana.PublicKey{f.auth}},
		f.store,
		f.treasury,
		bonding.WithLogger(zap.NewNop()),
		bonding.WithMetrics(bonding.NewMetrics(f.reg)),
		bonding.WithClock(f.clock.Now),
	)

	if _, err := f.engine.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "tracker", Creator: f.auth}); err != nil {
		t.Fatal("CreateTracker() fail", err)
	}
	state, err := f.engine.CreateToken(ctx, tokenRequest(f.auth, "redao"))
	if err != nil {
		t.Fatal("CreateToken() fail", err)
	}
	f.state = state
	f.key = state.Key()
	return f
}

func tokenRequest(creator solana.PublicKey, id string) *bonding.CreateTokenRequest {
	return &bonding.CreateTokenRequest{
		TrackerID:      "tracker",
		TokenID:        id,
		Creator:        creator,
		BaseMint:       solana.NewWallet().PublicKey(),
		BaseVault:      solana.NewWallet().PublicKey(),
		VaultAuthority: solana.NewWallet().PublicKey(),
		QuoteMint:      solana.NewWallet().PublicKey(),
		QuoteReserve:   solana.NewWallet().PublicKey(),
		QuoteSurplus:   solana.NewWallet().PublicKey(),
		QuoteRunway:    solana.NewWallet().PublicKey(),
		BaseDecimals:   9,
		QuoteDecimals:  9,
		Params: bonding.TokenParams{
			NextHalving:       1_000_000_000_000_000_000,
			EmissionRate:      1_000_000_000_000,
			BondingCost:       10_000_000,
			InitialReserve:    200_000_000_000_000_000,
			PeriodLengths:     []int64{1, 7, 14},
			PeriodMultipliers: []uint32{10_000, 10_330, 10_880},
			TreasurySplits:    []uint32{1_000, 3_300, 8_800},
			PeriodEnabled:     []bool{true, true, true},
			VotingEnabledDate: 2_000,
			RunwayFee:         10_000,
		},
	}
}

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal("Gather() fail", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestEngineCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.engine.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "tracker", Creator: f.auth}); !errors.Is(err, bonding.ErrAlreadyExists) {
		t.Fatal("CreateTracker() duplicate", err)
	}
	stranger := solana.NewWallet().PublicKey()
	if _, err := f.engine.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "other", Creator: stranger}); !errors.Is(err, shared.ErrInvalidCreator) {
		t.Fatal("CreateTracker() stranger", err)
	}

	// after the first launch, anyone may create a token
	second, err := f.engine.CreateToken(ctx, tokenRequest(stranger, "second"))
	if err != nil {
		t.Fatal("CreateToken() second", err)
	}
	if second.StateIndex != 2 || f.state.StateIndex != 1 {
		t.Fatal("CreateToken() index", second.StateIndex, f.state.StateIndex)
	}
	if _, err := f.engine.CreateToken(ctx, tokenRequest(stranger, "second")); !errors.Is(err, bonding.ErrAlreadyExists) {
		t.Fatal("CreateToken() duplicate", err)
	}
	tracker, err := f.store.LoadTracker(ctx, "tracker")
	if err != nil || tracker.Index != 2 {
		t.Fatal("CreateToken() tracker index", tracker, err)
	}
}

func TestEngineFirstTokenNeedsAuth(t *testing.T) {
	ctx := context.Background()
	auth := solana.NewWallet().PublicKey()
	engine := bonding.NewEngine(bonding.Config{AllowedCreators: []solana.PublicKey{auth}}, memory.New(), &fakeTreasury{})
	if _, err := engine.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "tracker", Creator: auth}); err != nil {
		t.Fatal("CreateTracker() fail", err)
	}
	if _, err := engine.CreateToken(ctx, tokenRequest(solana.NewWallet().PublicKey(), "redao")); !errors.Is(err, shared.ErrInvalidCreator) {
		t.Fatal("CreateToken() stranger first", err)
	}
	if _, err := engine.CreateToken(ctx, tokenRequest(auth, "redao")); err != nil {
		t.Fatal("CreateToken() auth", err)
	}

	none := bonding.NewEngine(bonding.Config{}, memory.New(), &fakeTreasury{})
	if _, err := none.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "tracker", Creator: auth}); !errors.Is(err, shared.ErrInvalidCreator) {
		t.Fatal("CreateTracker() empty allow list", err)
	}
}

func TestEngineBondRedeem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := solana.NewWallet().PublicKey()

	vote, err := f.engine.CreateVote(ctx, f.key, f.auth, "gov")
	if err != nil {
		t.Fatal("CreateVote() fail", err)
	}
	if _, err := f.engine.CreateVote(ctx, f.key, user, "gov2"); !errors.Is(err, shared.ErrInvalidCreator) {
		t.Fatal("CreateVote() stranger", err)
	}

	res, err := f.engine.Bond(ctx, f.key, bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 1, Redeemer: user, Source: user, CouponID: "c1",
	}, vote.Key().ID)
	if err != nil {
		t.Fatal("Bond() fail", err)
	}
	if len(f.treasury.transfers) != 3 || f.treasury.batches != 1 {
		t.Fatal("Bond() transfers", f.treasury.batches, f.treasury.transfers)
	}
	for _, tr := range f.treasury.transfers {
		if tr.Mint != f.state.QuoteMintAddress || tr.Decimals != 9 {
			t.Fatal("Bond() transfer mint", tr)
		}
	}
	state, err := f.engine.State(ctx, f.key)
	if err != nil {
		t.Fatal("State() fail", err)
	}
	if state.QuoteBonded != 9_000_000 || state.BondCouponCount != 1 {
		t.Fatal("Bond() committed state", state.QuoteBonded, state.BondCouponCount)
	}
	if v, _ := f.store.LoadVote(ctx, vote.Key()); v.TotalVotes != 10_000_000 {
		t.Fatal("Bond() vote", v.TotalVotes)
	}
	if counter(t, f.reg, "redao_bonds_total") != 1 {
		t.Fatal("Bond() metrics")
	}

	// coupon ids are unique per redeemer
	if _, err := f.engine.Bond(ctx, f.key, bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 0, Redeemer: user, Source: user, CouponID: "c1",
	}, ""); !errors.Is(err, bonding.ErrAlreadyExists) {
		t.Fatal("Bond() duplicate coupon", err)
	}

	key := res.Coupon.Key()
	dest := solana.NewWallet().PublicKey()
	if _, err := f.engine.Redeem(ctx, key, bonding.RedeemRequest{Caller: user, Destination: dest}); !errors.Is(err, shared.ErrCouponDate) {
		t.Fatal("Redeem() early", err)
	}
	if len(f.treasury.transfers) != 3 {
		t.Fatal("Redeem() transferred before maturity")
	}

	f.clock.now = f.clock.now.Add(8 * time.Second)
	if _, err := f.engine.Redeem(ctx, key, bonding.RedeemRequest{Caller: user, Destination: dest}); err != nil {
		t.Fatal("Redeem() fail", err)
	}
	last := f.treasury.transfers[len(f.treasury.transfers)-1]
	if last.To != dest || last.Amount != res.Reward || last.Seeds == nil || last.Mint != f.state.BaseMintAddress {
		t.Fatal("Redeem() transfer", last)
	}
	if _, err := f.engine.Redeem(ctx, key, bonding.RedeemRequest{Caller: user, Destination: dest}); !errors.Is(err, shared.ErrCouponClaimed) {
		t.Fatal("Redeem() twice", err)
	}
	state, _ = f.engine.State(ctx, f.key)
	if state.TotalRedeemed != res.Reward {
		t.Fatal("Redeem() total redeemed", state.TotalRedeemed)
	}

	coupons, err := f.engine.Coupons(ctx, f.key, user)
	if err != nil || len(coupons) != 1 || !coupons[0].IsRedeemed {
		t.Fatal("Coupons() fail", coupons, err)
	}
	if counter(t, f.reg, "redao_rejections_total") != 4 {
		t.Fatal("rejection metrics", counter(t, f.reg, "redao_rejections_total"))
	}
}

func TestEngineTreasuryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := solana.NewWallet().PublicKey()

	f.treasury.fail = errors.New("rpc unavailable")
	_, err := f.engine.Bond(ctx, f.key, bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 0, Redeemer: user, Source: user, CouponID: "c1",
	}, "")
	if err == nil {
		t.Fatal("Bond() ignored treasury failure")
	}
	state, _ := f.engine.State(ctx, f.key)
	if *state != *f.state {
		t.Fatal("Bond() committed after treasury failure")
	}
	if _, err := f.engine.Coupon(ctx, bonding.CouponKey{State: f.key, Redeemer: user, ID: "c1"}); !errors.Is(err, bonding.ErrNotFound) {
		t.Fatal("Bond() stored coupon after treasury failure", err)
	}

	if _, err := f.engine.Topup(ctx, f.key, f.auth, f.auth, 100); err == nil {
		t.Fatal("Topup() ignored treasury failure")
	}
	f.treasury.fail = nil
	if _, err := f.engine.Topup(ctx, f.key, f.auth, f.auth, 100); err != nil {
		t.Fatal("Topup() fail", err)
	}
	state, _ = f.engine.State(ctx, f.key)
	if state.TotalTopup != 100 {
		t.Fatal("Topup() total", state.TotalTopup)
	}
}

func TestEngineConcurrentBonds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := solana.NewWallet().PublicKey()
			if _, err := f.engine.Bond(ctx, f.key, bonding.BondRequest{
				Amount: 10_000_000, PeriodIndex: 0, Redeemer: user, Source: user, CouponID: "c",
			}, ""); err != nil {
				t.Error("Bond() fail", err)
			}
		}(i)
	}
	wg.Wait()

	state, _ := f.engine.State(ctx, f.key)
	if state.BondCouponCount != 16 || state.QuoteBonded != 16*9_000_000 {
		t.Fatal("Bond() lost updates", state.BondCouponCount, state.QuoteBonded)
	}
}

func TestEngineSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := solana.NewWallet().PublicKey()

	if _, err := f.engine.Bond(ctx, f.key, bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 2, Redeemer: user, Source: user, CouponID: "c1",
	}, ""); err != nil {
		t.Fatal("Bond() fail", err)
	}
	s, err := f.engine.Summary(ctx, f.key)
	if err != nil {
		t.Fatal("Summary() fail", err)
	}
	if s.Outstanding != 1_088_000_000_000 || s.VaultShortfall != s.Outstanding {
		t.Fatal("Summary() outstanding", s.Outstanding, s.VaultShortfall)
	}
	if s.Backing+s.Excess != s.QuoteBonded {
		t.Fatal("Summary() backing", s.Backing, s.Excess, s.QuoteBonded)
	}
	if s.EpochEmissionLeft != s.NextHalving-s.TotalEmissions {
		t.Fatal("Summary() epoch left", s.EpochEmissionLeft)
	}
}

func TestEngineBondAtEmissionCap(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	auth := solana.NewWallet().PublicKey()
	treasury := &fakeTreasury{}
	engine := bonding.NewEngine(
		bonding.Config{HalvingSeries: shared.HalvingSeriesStrict, AllowedCreators: []solana.PublicKey{auth}},
		memory.New(),
		treasury,
		bonding.WithLogger(zap.New(core)),
		bonding.WithClock(func() time.Time { return time.Unix(1_000, 0) }),
	)
	if _, err := engine.CreateTracker(ctx, &bonding.CreateTrackerRequest{ID: "tracker", Creator: auth}); err != nil {
		t.Fatal("CreateTracker() fail", err)
	}
	req := tokenRequest(auth, "redao")
	req.Params.InitialReserve = req.Params.NextHalving - 5
	state, err := engine.CreateToken(ctx, req)
	if err != nil {
		t.Fatal("CreateToken() fail", err)
	}

	user := solana.NewWallet().PublicKey()
	res, err := engine.Bond(ctx, state.Key(), bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 0, Redeemer: user, Source: user, CouponID: "cap",
	}, "")
	if err != nil {
		t.Fatal("Bond() at cap fail", err)
	}
	if res.Reward != 5 || res.Amount != 1 || !res.EpochTransition {
		t.Fatal("Bond() at cap", res.Reward, res.Amount, res.EpochTransition)
	}
	stored, err := engine.State(ctx, state.Key())
	if err != nil {
		t.Fatal("State() fail", err)
	}
	if stored.EpochCount != 1 || stored.TotalEmissions != req.Params.NextHalving || stored.TotalEmissions > stored.Mps {
		t.Fatal("Bond() committed cap", stored.EpochCount, stored.TotalEmissions, stored.Mps)
	}
	if len(treasury.transfers) != 1 || treasury.transfers[0].Amount != 1 {
		t.Fatal("Bond() cap transfers", treasury.transfers)
	}
	if logs.FilterMessage("emission cap reached, later bonds will be rejected").Len() != 1 {
		t.Fatal("Bond() missing cap warning", logs.All())
	}

	if _, err := engine.Bond(ctx, state.Key(), bonding.BondRequest{
		Amount: 10_000_000, PeriodIndex: 0, Redeemer: user, Source: user, CouponID: "after",
	}, ""); !errors.Is(err, shared.ErrZero) {
		t.Fatal("Bond() after cap", err)
	}
}
