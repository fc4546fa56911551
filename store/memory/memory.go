// Package memory keeps the ledger in process memory. It is meant for tests
// and simulations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/redao-go/bonding"
)

type Store struct {
	mu            sync.RWMutex
	trackers      map[string]bonding.TokenTrackerBase
	tokenTrackers map[bonding.StateKey]bonding.TokenTracker
	states        map[bonding.StateKey]bonding.TokenState
	coupons       map[bonding.CouponKey]bonding.BondCoupon
	votes         map[bonding.VoteKey]bonding.BondVote
}

var _ bonding.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		trackers:      make(map[string]bonding.TokenTrackerBase),
		tokenTrackers: make(map[bonding.StateKey]bonding.TokenTracker),
		states:        make(map[bonding.StateKey]bonding.TokenState),
		coupons:       make(map[bonding.CouponKey]bonding.BondCoupon),
		votes:         make(map[bonding.VoteKey]bonding.BondVote),
	}
}

func (s *Store) LoadTracker(_ context.Context, id string) (*bonding.TokenTrackerBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trackers[id]
	if !ok {
		return nil, bonding.ErrNotFound
	}
	return &t, nil
}

func (s *Store) LoadState(_ context.Context, key bonding.StateKey) (*bonding.TokenState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[key]
	if !ok {
		return nil, bonding.ErrNotFound
	}
	return &st, nil
}

func (s *Store) LoadCoupon(_ context.Context, key bonding.CouponKey) (*bonding.BondCoupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coupons[key]
	if !ok {
		return nil, bonding.ErrNotFound
	}
	return &c, nil
}

func (s *Store) LoadVote(_ context.Context, key bonding.VoteKey) (*bonding.BondVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[key]
	if !ok {
		return nil, bonding.ErrNotFound
	}
	return &v, nil
}

// ListCoupons returns the coupons of redeemer on state ordered by sequence.
func (s *Store) ListCoupons(_ context.Context, state bonding.StateKey, redeemer solana.PublicKey) ([]*bonding.BondCoupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*bonding.BondCoupon
	for key, c := range s.coupons {
		if key.State != state || !key.Redeemer.Equals(redeemer) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CouponCount < out[j].CouponCount })
	return out, nil
}

func (s *Store) ListStates(_ context.Context) ([]*bonding.TokenState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*bonding.TokenState, 0, len(s.states))
	for _, st := range s.states {
		st := st
		out = append(out, &st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out, nil
}

func (s *Store) Commit(ctx context.Context, m *bonding.Mutation, apply func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInserts(m); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if apply != nil {
		if err := apply(ctx); err != nil {
			return err
		}
	}

	if m.Tracker != nil {
		s.trackers[m.Tracker.Key()] = *m.Tracker
	}
	if m.TokenTracker != nil {
		s.tokenTrackers[m.TokenTracker.StateKey()] = *m.TokenTracker
	}
	if m.State != nil {
		s.states[m.State.Key()] = *m.State
	}
	if m.Coupon != nil {
		s.coupons[m.Coupon.Key()] = *m.Coupon
	}
	if m.Vote != nil {
		s.votes[m.Vote.Key()] = *m.Vote
	}
	return nil
}

func (s *Store) checkInserts(m *bonding.Mutation) error {
	exists := func(flag bonding.Insert, ok bool) bool {
		return m.Inserts.Has(flag) && ok
	}
	if m.Tracker != nil {
		if _, ok := s.trackers[m.Tracker.Key()]; exists(bonding.InsertTracker, ok) {
			return bonding.ErrAlreadyExists
		}
	}
	if m.TokenTracker != nil {
		if _, ok := s.tokenTrackers[m.TokenTracker.StateKey()]; exists(bonding.InsertTokenTracker, ok) {
			return bonding.ErrAlreadyExists
		}
	}
	if m.State != nil {
		if _, ok := s.states[m.State.Key()]; exists(bonding.InsertState, ok) {
			return bonding.ErrAlreadyExists
		}
	}
	if m.Coupon != nil {
		if _, ok := s.coupons[m.Coupon.Key()]; exists(bonding.InsertCoupon, ok) {
			return bonding.ErrAlreadyExists
		}
	}
	if m.Vote != nil {
		if _, ok := s.votes[m.Vote.Key()]; exists(bonding.InsertVote, ok) {
			return bonding.ErrAlreadyExists
		}
	}
	return nil
}
