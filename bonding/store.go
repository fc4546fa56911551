package bonding

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Insert flags records of a Mutation that must not exist yet.
type Insert uint8

const (
	InsertTracker Insert = 1 << iota
	InsertTokenTracker
	InsertState
	InsertCoupon
	InsertVote
)

// Has reports whether flag is set.
func (i Insert) Has(flag Insert) bool {
	return i&flag != 0
}

// Mutation is the set of records written by one operation. Nil records are
// left alone.
type Mutation struct {
	Tracker      *TokenTrackerBase
	TokenTracker *TokenTracker
	State        *TokenState
	Coupon       *BondCoupon
	Vote         *BondVote
	Inserts      Insert
}

// Store persists ledger records.
//
// Commit writes every record of m atomically. apply runs after the records
// are staged and before they become visible; when apply fails nothing is
// written. apply may be nil.
type Store interface {
	LoadTracker(ctx context.Context, id string) (*TokenTrackerBase, error)
	LoadState(ctx context.Context, key StateKey) (*TokenState, error)
	LoadCoupon(ctx context.Context, key CouponKey) (*BondCoupon, error)
	LoadVote(ctx context.Context, key VoteKey) (*BondVote, error)
	ListCoupons(ctx context.Context, state StateKey, redeemer solana.PublicKey) ([]*BondCoupon, error)
	ListStates(ctx context.Context) ([]*TokenState, error)
	Commit(ctx context.Context, m *Mutation, apply func(ctx context.Context) error) error
}

// Treasury moves tokens between accounts.
type Treasury interface {
	// Execute moves every transfer of one operation in a single
	// transaction, so either all of them land or none does. Transfers
	// carrying Seeds move out of an account owned by a derived authority.
	Execute(ctx context.Context, transfers []TransferRequest) error
}
