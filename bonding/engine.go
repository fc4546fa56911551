package bonding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	bmath "github.com/krazyTry/redao-go/bonding/math"
	"github.com/krazyTry/redao-go/bonding/shared"
)

// Config holds the engine wide settings.
type Config struct {
	HalvingSeries shared.HalvingSeries
	// AllowedCreators may create trackers and the first token of a tracker.
	// An empty list admits nobody.
	AllowedCreators []solana.PublicKey
	// TrackerCost is recorded on new trackers.
	TrackerCost uint64
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine serializes ledger operations per record and commits each one
// together with its treasury transfers.
type Engine struct {
	cfg      Config
	store    Store
	treasury Treasury
	logger   *zap.Logger
	metrics  *Metrics
	now      func() time.Time

	locks sync.Map // string -> *sync.Mutex
}

func NewEngine(cfg Config, store Store, treasury Treasury, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		store:    store,
		treasury: treasury,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lock(key string) func() {
	v, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) allowed(creator solana.PublicKey) bool {
	for _, k := range e.cfg.AllowedCreators {
		if k.Equals(creator) {
			return true
		}
	}
	return false
}

func (e *Engine) reject(op string, err error, fields ...zap.Field) error {
	e.metrics.observeReject(op, err)
	e.logger.Warn("operation rejected", append(fields, zap.String("op", op), zap.Error(err))...)
	return err
}

type CreateTrackerRequest struct {
	ID                  string
	Creator             solana.PublicKey
	ReceiveMint         solana.PublicKey
	ReceiveTokenAccount solana.PublicKey
}

func (e *Engine) CreateTracker(ctx context.Context, req *CreateTrackerRequest) (*TokenTrackerBase, error) {
	if !e.allowed(req.Creator) {
		return nil, e.reject("create_tracker", shared.ErrInvalidCreator, zap.Stringer("creator", req.Creator))
	}
	tracker, err := NewTokenTrackerBase(req.ID, req.Creator, req.ReceiveMint, req.ReceiveTokenAccount, e.cfg.TrackerCost)
	if err != nil {
		return nil, e.reject("create_tracker", err)
	}
	unlock := e.lock("tracker:" + tracker.Key())
	defer unlock()

	if err := e.store.Commit(ctx, &Mutation{Tracker: tracker, Inserts: InsertTracker}, nil); err != nil {
		return nil, e.reject("create_tracker", fmt.Errorf("commit tracker %s: %w", tracker.Key(), err))
	}
	e.logger.Info("tracker created", zap.String("tracker", tracker.Key()), zap.Stringer("auth", tracker.AuthWallet))
	return tracker, nil
}

// CreateToken validates req and launches a token under its tracker. The first
// token of a tracker must come from an allowed creator or the tracker owner.
func (e *Engine) CreateToken(ctx context.Context, req *CreateTokenRequest) (*TokenState, error) {
	unlock := e.lock("tracker:" + req.TrackerID)
	defer unlock()

	tracker, err := e.store.LoadTracker(ctx, req.TrackerID)
	if err != nil {
		return nil, e.reject("create_token", fmt.Errorf("load tracker %s: %w", req.TrackerID, err))
	}
	if tracker.Index == 0 && !e.allowed(req.Creator) && !tracker.AuthWallet.Equals(req.Creator) {
		return nil, e.reject("create_token", shared.ErrInvalidCreator, zap.Stringer("creator", req.Creator))
	}
	state, entry, err := NewTokenState(tracker, req, e.cfg.HalvingSeries)
	if err != nil {
		return nil, e.reject("create_token", err, zap.String("token", req.TokenID))
	}
	stagedTracker := *tracker
	stagedTracker.Index = entry.Index

	m := &Mutation{
		Tracker:      &stagedTracker,
		TokenTracker: entry,
		State:        state,
		Inserts:      InsertTokenTracker | InsertState,
	}
	if err := e.store.Commit(ctx, m, nil); err != nil {
		return nil, e.reject("create_token", fmt.Errorf("commit token %s: %w", state.Key(), err))
	}
	e.metrics.observeState(state)
	e.logger.Info("token created",
		zap.Stringer("token", state.Key()),
		zap.Uint64("index", state.StateIndex),
		zap.Stringer("halving_series", state.HalvingSeries),
	)
	return state, nil
}

// CreateVote opens a vote counter on a token. Only the creator may do so.
func (e *Engine) CreateVote(ctx context.Context, key StateKey, caller solana.PublicKey, id string) (*BondVote, error) {
	unlock := e.lock("state:" + key.String())
	defer unlock()

	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, e.reject("create_vote", fmt.Errorf("load state %s: %w", key, err))
	}
	if !caller.Equals(state.CreatorAddress) {
		return nil, e.reject("create_vote", shared.ErrInvalidCreator)
	}
	vote, err := NewBondVote(state, id)
	if err != nil {
		return nil, e.reject("create_vote", err)
	}
	if err := e.store.Commit(ctx, &Mutation{Vote: vote, Inserts: InsertVote}, nil); err != nil {
		return nil, e.reject("create_vote", fmt.Errorf("commit vote %s: %w", vote.Key(), err))
	}
	e.logger.Info("vote created", zap.Stringer("vote", vote.Key()))
	return vote, nil
}

// Bond applies a bond to the token at key. voteID selects an optional vote
// counter. req.Now is taken from the engine clock.
func (e *Engine) Bond(ctx context.Context, key StateKey, req BondRequest, voteID string) (*BondResult, error) {
	unlock := e.lock("state:" + key.String())
	defer unlock()

	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, e.reject("bond", fmt.Errorf("load state %s: %w", key, err))
	}
	var vote *BondVote
	if voteID != "" {
		if vote, err = e.store.LoadVote(ctx, VoteKey{State: key, ID: voteID}); err != nil {
			return nil, e.reject("bond", fmt.Errorf("load vote %s: %w", voteID, err))
		}
	}

	req.Now = e.now().Unix()
	res, err := Bond(state, &req, vote)
	if err != nil {
		return nil, e.reject("bond", err, zap.Stringer("token", key), zap.Uint64("amount", req.Amount))
	}
	if res.EpochTransition {
		e.logger.Debug("bond clamped at halving",
			zap.Stringer("token", key),
			zap.Uint64("requested", req.Amount),
			zap.Uint64("charged", res.Amount),
			zap.Uint64("reward", res.Reward),
			zap.Uint32("epoch", res.State.EpochCount),
		)
	}

	m := &Mutation{State: res.State, Coupon: res.Coupon, Vote: res.Vote, Inserts: InsertCoupon}
	err = e.store.Commit(ctx, m, func(ctx context.Context) error {
		return e.treasury.Execute(ctx, res.Transfers)
	})
	if err != nil {
		return nil, e.reject("bond", fmt.Errorf("commit bond %s: %w", res.Coupon.Key(), err))
	}

	e.metrics.observeBond(res)
	e.logger.Info("bond committed",
		zap.Stringer("token", key),
		zap.Stringer("redeemer", req.Redeemer),
		zap.Uint64("amount", res.Amount),
		zap.Uint64("reward", res.Reward),
		zap.Uint64("coupon", res.Coupon.CouponCount),
		zap.Bool("epoch_transition", res.EpochTransition),
	)
	if res.EpochTransition && res.State.NextHalving <= res.State.TotalEmissions {
		e.logger.Warn("emission cap reached, later bonds will be rejected",
			zap.Stringer("token", key),
			zap.Stringer("series", res.State.HalvingSeries),
			zap.Uint32("epoch", res.State.EpochCount),
			zap.Uint64("next_halving", res.State.NextHalving),
		)
	}
	return res, nil
}

// QuoteBond previews a bond at the current time without committing it.
func (e *Engine) QuoteBond(ctx context.Context, key StateKey, req BondRequest) (*BondResult, error) {
	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", key, err)
	}
	req.Now = e.now().Unix()
	return QuoteBond(state, &req)
}

// Redeem releases a matured coupon to req.Destination.
func (e *Engine) Redeem(ctx context.Context, key CouponKey, req RedeemRequest) (*RedeemResult, error) {
	unlock := e.lock("state:" + key.State.String())
	defer unlock()

	state, err := e.store.LoadState(ctx, key.State)
	if err != nil {
		return nil, e.reject("redeem", fmt.Errorf("load state %s: %w", key.State, err))
	}
	coupon, err := e.store.LoadCoupon(ctx, key)
	if err != nil {
		return nil, e.reject("redeem", fmt.Errorf("load coupon %s: %w", key, err))
	}

	req.Now = e.now().Unix()
	res, err := Redeem(state, coupon, &req)
	if err != nil {
		return nil, e.reject("redeem", err, zap.Stringer("coupon", key))
	}
	err = e.store.Commit(ctx, &Mutation{State: res.State, Coupon: res.Coupon}, func(ctx context.Context) error {
		return e.treasury.Execute(ctx, []TransferRequest{res.Transfer})
	})
	if err != nil {
		return nil, e.reject("redeem", fmt.Errorf("commit redeem %s: %w", key, err))
	}

	e.metrics.observeRedeem(res.State)
	e.logger.Info("coupon redeemed",
		zap.Stringer("coupon", key),
		zap.Uint64("tokens", res.Coupon.TokensToRedeem),
	)
	return res, nil
}

// Topup deposits base tokens from the creator's source account into the vault.
func (e *Engine) Topup(ctx context.Context, key StateKey, caller, source solana.PublicKey, amount uint64) (*TopupResult, error) {
	unlock := e.lock("state:" + key.String())
	defer unlock()

	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, e.reject("topup", fmt.Errorf("load state %s: %w", key, err))
	}
	res, err := Topup(state, caller, source, amount)
	if err != nil {
		return nil, e.reject("topup", err, zap.Stringer("token", key))
	}
	err = e.store.Commit(ctx, &Mutation{State: res.State}, func(ctx context.Context) error {
		return e.treasury.Execute(ctx, []TransferRequest{res.Transfer})
	})
	if err != nil {
		return nil, e.reject("topup", fmt.Errorf("commit topup %s: %w", key, err))
	}

	e.metrics.observeTopup(res.State)
	e.logger.Info("vault topped up", zap.Stringer("token", key), zap.Uint64("amount", amount))
	return res, nil
}

// UpdateSchedule replaces the schedule of a token that allows updates.
func (e *Engine) UpdateSchedule(ctx context.Context, key StateKey, caller solana.PublicKey, update *ScheduleUpdate) (*TokenState, error) {
	unlock := e.lock("state:" + key.String())
	defer unlock()

	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, e.reject("update_schedule", fmt.Errorf("load state %s: %w", key, err))
	}
	staged, err := UpdateSchedule(state, caller, update)
	if err != nil {
		return nil, e.reject("update_schedule", err, zap.Stringer("token", key))
	}
	if err := e.store.Commit(ctx, &Mutation{State: staged}, nil); err != nil {
		return nil, e.reject("update_schedule", fmt.Errorf("commit schedule %s: %w", key, err))
	}
	e.logger.Info("schedule updated", zap.Stringer("token", key))
	return staged, nil
}

func (e *Engine) State(ctx context.Context, key StateKey) (*TokenState, error) {
	return e.store.LoadState(ctx, key)
}

func (e *Engine) States(ctx context.Context) ([]*TokenState, error) {
	return e.store.ListStates(ctx)
}

func (e *Engine) Coupon(ctx context.Context, key CouponKey) (*BondCoupon, error) {
	return e.store.LoadCoupon(ctx, key)
}

func (e *Engine) Coupons(ctx context.Context, key StateKey, redeemer solana.PublicKey) ([]*BondCoupon, error) {
	return e.store.ListCoupons(ctx, key, redeemer)
}

// Summary is the backing view of a token.
type Summary struct {
	Key               StateKey
	EpochCount        uint32
	TotalEmissions    uint64
	NextHalving       uint64
	Mps               uint64
	QuoteBonded       uint64
	TotalReserve      uint64
	TotalSurplus      uint64
	TotalRunway       uint64
	FloorPrice        uint64
	AvgPrice          uint64
	Backing           uint64 // quote needed to buy back every emitted token at the floor
	Excess            uint64 // bonded quote above Backing
	Outstanding       uint64 // issued and not yet redeemed
	VaultBalance      uint64
	VaultShortfall    uint64
	CouponsIssued     uint64
	TotalRedeemed     uint64
	EpochEmissionLeft uint64
}

func (e *Engine) Summary(ctx context.Context, key StateKey) (*Summary, error) {
	state, err := e.store.LoadState(ctx, key)
	if err != nil {
		return nil, err
	}
	return Summarize(state)
}

// Summarize derives the backing view of state.
func Summarize(state *TokenState) (*Summary, error) {
	s := &Summary{
		Key:            state.Key(),
		EpochCount:     state.EpochCount,
		TotalEmissions: state.TotalEmissions,
		NextHalving:    state.NextHalving,
		Mps:            state.Mps,
		QuoteBonded:    state.QuoteBonded,
		TotalReserve:   state.TotalReserve,
		TotalSurplus:   state.TotalSurplusReserve,
		TotalRunway:    state.TotalRunwayReserve,
		FloorPrice:     state.FloorPrice,
		AvgPrice:       state.AvgPrice,
		CouponsIssued:  state.BondCouponCount,
		TotalRedeemed:  state.TotalRedeemed,
	}
	var err error
	if s.Backing, err = bmath.Reserve(state.FloorPrice, state.TotalEmissions, state.Decimals); err != nil {
		return nil, err
	}
	if s.Excess, err = bmath.Surplus(state.QuoteBonded, s.Backing); err != nil {
		return nil, err
	}
	issued, err := bmath.Sub(state.TotalEmissions, state.InitialReserve)
	if err != nil {
		return nil, err
	}
	if s.Outstanding, err = bmath.Sub(issued, state.TotalRedeemed); err != nil {
		return nil, err
	}
	if state.TotalTopup > state.TotalRedeemed {
		s.VaultBalance = state.TotalTopup - state.TotalRedeemed
	}
	if s.Outstanding > s.VaultBalance {
		s.VaultShortfall = s.Outstanding - s.VaultBalance
	}
	if state.NextHalving > state.TotalEmissions {
		s.EpochEmissionLeft = state.NextHalving - state.TotalEmissions
	}
	return s, nil
}
