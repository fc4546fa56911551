// Package sqlite persists the ledger in a SQLite database. Every Commit runs
// in one SQL transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	_ "modernc.org/sqlite"

	"github.com/krazyTry/redao-go/bonding"
	"github.com/krazyTry/redao-go/bonding/codec"
)

type DB struct {
	db *sql.DB
}

var _ bonding.Store = (*DB)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadBlob(ctx context.Context, q querier, query string, args ...any) ([]byte, error) {
	var data []byte
	err := q.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bonding.ErrNotFound
	}
	return data, err
}

func (d *DB) LoadTracker(ctx context.Context, id string) (*bonding.TokenTrackerBase, error) {
	data, err := loadBlob(ctx, d.db, `SELECT data FROM token_tracker_bases WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return codec.DecodeTokenTrackerBase(data)
}

func (d *DB) LoadState(ctx context.Context, key bonding.StateKey) (*bonding.TokenState, error) {
	data, err := loadBlob(ctx, d.db, `SELECT data FROM token_states WHERE tracker_id = ? AND token_id = ?`,
		key.TrackerID, key.TokenID)
	if err != nil {
		return nil, err
	}
	return codec.DecodeTokenState(data)
}

func (d *DB) LoadCoupon(ctx context.Context, key bonding.CouponKey) (*bonding.BondCoupon, error) {
	data, err := loadBlob(ctx, d.db,
		`SELECT data FROM bond_coupons WHERE tracker_id = ? AND token_id = ? AND redeemer = ? AND id = ?`,
		key.State.TrackerID, key.State.TokenID, key.Redeemer.String(), key.ID)
	if err != nil {
		return nil, err
	}
	return codec.DecodeBondCoupon(data)
}

func (d *DB) LoadVote(ctx context.Context, key bonding.VoteKey) (*bonding.BondVote, error) {
	data, err := loadBlob(ctx, d.db, `SELECT data FROM bond_votes WHERE tracker_id = ? AND token_id = ? AND id = ?`,
		key.State.TrackerID, key.State.TokenID, key.ID)
	if err != nil {
		return nil, err
	}
	return codec.DecodeBondVote(data)
}

func (d *DB) ListCoupons(ctx context.Context, state bonding.StateKey, redeemer solana.PublicKey) ([]*bonding.BondCoupon, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT data FROM bond_coupons WHERE tracker_id = ? AND token_id = ? AND redeemer = ? ORDER BY coupon_count`,
		state.TrackerID, state.TokenID, redeemer.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bonding.BondCoupon
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		c, err := codec.DecodeBondCoupon(data)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListTokenTrackers returns the tokens launched under trackerID in launch order.
func (d *DB) ListTokenTrackers(ctx context.Context, trackerID string) ([]*bonding.TokenTracker, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT data FROM token_trackers WHERE tracker_id = ? ORDER BY idx`, trackerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bonding.TokenTracker
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		t, err := codec.DecodeTokenTracker(data)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) ListStates(ctx context.Context) ([]*bonding.TokenState, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT data FROM token_states ORDER BY tracker_id, token_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bonding.TokenState
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		s, err := codec.DecodeTokenState(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Commit writes m in one transaction. apply runs inside the transaction, so a
// failing apply rolls every record back.
func (d *DB) Commit(ctx context.Context, m *bonding.Mutation, apply func(ctx context.Context) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = writeMutation(ctx, tx, m); err != nil {
		return err
	}
	if apply != nil {
		if err = apply(ctx); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func writeMutation(ctx context.Context, tx *sql.Tx, m *bonding.Mutation) error {
	if t := m.Tracker; t != nil {
		data, err := codec.EncodeTokenTrackerBase(t)
		if err != nil {
			return err
		}
		err = write(ctx, tx, m.Inserts.Has(bonding.InsertTracker),
			`SELECT 1 FROM token_tracker_bases WHERE id = ?`,
			`INSERT INTO token_tracker_bases (id, data) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = datetime('now')`,
			[]any{t.Key()}, data)
		if err != nil {
			return fmt.Errorf("tracker %s: %w", t.Key(), err)
		}
	}
	if t := m.TokenTracker; t != nil {
		data, err := codec.EncodeTokenTracker(t)
		if err != nil {
			return err
		}
		key := t.StateKey()
		err = write(ctx, tx, m.Inserts.Has(bonding.InsertTokenTracker),
			`SELECT 1 FROM token_trackers WHERE tracker_id = ? AND token_id = ?`,
			`INSERT INTO token_trackers (tracker_id, token_id, idx, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(tracker_id, token_id) DO UPDATE SET idx = excluded.idx, data = excluded.data`,
			[]any{key.TrackerID, key.TokenID}, int64(t.Index), data)
		if err != nil {
			return fmt.Errorf("token tracker %s: %w", key, err)
		}
	}
	if s := m.State; s != nil {
		data, err := codec.EncodeTokenState(s)
		if err != nil {
			return err
		}
		key := s.Key()
		err = write(ctx, tx, m.Inserts.Has(bonding.InsertState),
			`SELECT 1 FROM token_states WHERE tracker_id = ? AND token_id = ?`,
			`INSERT INTO token_states (tracker_id, token_id, data) VALUES (?, ?, ?)
			 ON CONFLICT(tracker_id, token_id) DO UPDATE SET data = excluded.data, updated_at = datetime('now')`,
			[]any{key.TrackerID, key.TokenID}, data)
		if err != nil {
			return fmt.Errorf("state %s: %w", key, err)
		}
	}
	if c := m.Coupon; c != nil {
		data, err := codec.EncodeBondCoupon(c)
		if err != nil {
			return err
		}
		key := c.Key()
		err = write(ctx, tx, m.Inserts.Has(bonding.InsertCoupon),
			`SELECT 1 FROM bond_coupons WHERE tracker_id = ? AND token_id = ? AND redeemer = ? AND id = ?`,
			`INSERT INTO bond_coupons (tracker_id, token_id, redeemer, id, coupon_count, redeemed, data) VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(tracker_id, token_id, redeemer, id) DO UPDATE SET redeemed = excluded.redeemed, data = excluded.data`,
			[]any{key.State.TrackerID, key.State.TokenID, key.Redeemer.String(), key.ID},
			int64(c.CouponCount), c.IsRedeemed, data)
		if err != nil {
			return fmt.Errorf("coupon %s: %w", key, err)
		}
	}
	if v := m.Vote; v != nil {
		data, err := codec.EncodeBondVote(v)
		if err != nil {
			return err
		}
		key := v.Key()
		err = write(ctx, tx, m.Inserts.Has(bonding.InsertVote),
			`SELECT 1 FROM bond_votes WHERE tracker_id = ? AND token_id = ? AND id = ?`,
			`INSERT INTO bond_votes (tracker_id, token_id, id, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(tracker_id, token_id, id) DO UPDATE SET data = excluded.data`,
			[]any{key.State.TrackerID, key.State.TokenID, key.ID}, data)
		if err != nil {
			return fmt.Errorf("vote %s: %w", key, err)
		}
	}
	return nil
}

// write upserts one record. keys feed the existence query and lead the
// upsert arguments, followed by values.
func write(ctx context.Context, tx *sql.Tx, insert bool, exists, upsert string, keys []any, values ...any) error {
	if insert {
		var one int
		err := tx.QueryRowContext(ctx, exists, keys...).Scan(&one)
		if err == nil {
			return bonding.ErrAlreadyExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	_, err := tx.ExecContext(ctx, upsert, append(append([]any{}, keys...), values...)...)
	return err
}
