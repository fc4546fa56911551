package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/shared"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecords(t *testing.T) (*bonding.TokenTrackerBase, *bonding.TokenState, *bonding.BondCoupon) {
	t.Helper()
	tracker, err := bonding.NewTokenTrackerBase("tracker", solana.NewWallet().PublicKey(), solana.PublicKey{}, solana.PublicKey{}, 15)
	require.NoError(t, err)

	state := &bonding.TokenState{
		TrackerID:      tracker.ID,
		CreatorAddress: tracker.AuthWallet,
		Decimals:       9,
		NextHalving:    1_000_000,
		TotalEmissions: 10,
		Mps:            12,
	}
	state.ID, err = shared.PadRecordID("redao")
	require.NoError(t, err)
	state.Periods[0] = bonding.Period{Length: 7, Multiplier: 10_000, Enabled: true}

	couponID, err := shared.PadCouponID("c1")
	require.NoError(t, err)
	coupon := &bonding.BondCoupon{
		TrackerID:      state.TrackerID,
		TokenID:        state.ID,
		Redeemer:       solana.NewWallet().PublicKey(),
		ID:             couponID,
		TokensToRedeem: 99,
		RedemptionDate: 1_234,
		CouponCount:    1,
	}
	return tracker, state, coupon
}

func TestCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker, state, coupon := testRecords(t)

	err := db.Commit(ctx, &bonding.Mutation{
		Tracker: tracker,
		State:   state,
		Coupon:  coupon,
		Inserts: bonding.InsertTracker | bonding.InsertState | bonding.InsertCoupon,
	}, nil)
	require.NoError(t, err)

	gotTracker, err := db.LoadTracker(ctx, "tracker")
	require.NoError(t, err)
	require.Equal(t, tracker, gotTracker)

	gotState, err := db.LoadState(ctx, state.Key())
	require.NoError(t, err)
	require.Equal(t, state, gotState)

	gotCoupon, err := db.LoadCoupon(ctx, coupon.Key())
	require.NoError(t, err)
	require.Equal(t, coupon, gotCoupon)

	coupons, err := db.ListCoupons(ctx, state.Key(), coupon.Redeemer)
	require.NoError(t, err)
	require.Len(t, coupons, 1)

	states, err := db.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)

	_, err = db.LoadVote(ctx, bonding.VoteKey{State: state.Key(), ID: "gov"})
	require.ErrorIs(t, err, bonding.ErrNotFound)
}

func TestCommitInsertConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, state, coupon := testRecords(t)

	m := &bonding.Mutation{State: state, Coupon: coupon, Inserts: bonding.InsertCoupon}
	require.NoError(t, db.Commit(ctx, m, nil))

	updated := *state
	updated.TotalEmissions = 11
	err := db.Commit(ctx, &bonding.Mutation{State: &updated, Coupon: coupon, Inserts: bonding.InsertCoupon}, nil)
	require.ErrorIs(t, err, bonding.ErrAlreadyExists)

	got, err := db.LoadState(ctx, state.Key())
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.TotalEmissions, "state must roll back with the coupon")

	// plain updates overwrite
	require.NoError(t, db.Commit(ctx, &bonding.Mutation{State: &updated}, nil))
	got, err = db.LoadState(ctx, state.Key())
	require.NoError(t, err)
	require.Equal(t, uint64(11), got.TotalEmissions)
}

func TestCommitApplyFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, state, coupon := testRecords(t)

	boom := errors.New("treasury rejected")
	err := db.Commit(ctx, &bonding.Mutation{State: state, Coupon: coupon}, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = db.LoadState(ctx, state.Key())
	require.ErrorIs(t, err, bonding.ErrNotFound)
	_, err = db.LoadCoupon(ctx, coupon.Key())
	require.ErrorIs(t, err, bonding.ErrNotFound)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	_, state, _ := testRecords(t)

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Commit(ctx, &bonding.Mutation{State: state, Inserts: bonding.InsertState}, nil))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.LoadState(ctx, state.Key())
	require.NoError(t, err)
	require.Equal(t, state, got)
}

func TestListTokenTrackers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tracker, _, _ := testRecords(t)
	require.NoError(t, db.Commit(ctx, &bonding.Mutation{Tracker: tracker, Inserts: bonding.InsertTracker}, nil))

	for i, id := range []string{"second", "first"} {
		tokenID, err := shared.PadRecordID(id)
		require.NoError(t, err)
		entry := &bonding.TokenTracker{TrackerID: tracker.ID, TokenID: tokenID, Index: uint64(2 - i)}
		require.NoError(t, db.Commit(ctx, &bonding.Mutation{TokenTracker: entry, Inserts: bonding.InsertTokenTracker}, nil))
	}

	entries, err := db.ListTokenTrackers(ctx, "tracker")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "first", entries[0].StateKey().TokenID)
	require.Equal(t, uint64(1), entries[0].Index)
	require.Equal(t, "second", entries[1].StateKey().TokenID)

	none, err := db.ListTokenTrackers(ctx, "other")
	require.NoError(t, err)
	require.Empty(t, none)
}
