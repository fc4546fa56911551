package sqlite

// Migrations returns the ledger schema. Each string is a single SQL statement
// (SQLite executes one at a time). Records are stored as Borsh blobs; the
// key columns only index them.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS token_tracker_bases (
			id         TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS token_trackers (
			tracker_id TEXT NOT NULL,
			token_id   TEXT NOT NULL,
			idx        INTEGER NOT NULL,
			data       BLOB NOT NULL,
			PRIMARY KEY (tracker_id, token_id)
		)`,

		`CREATE TABLE IF NOT EXISTS token_states (
			tracker_id TEXT NOT NULL,
			token_id   TEXT NOT NULL,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (tracker_id, token_id)
		)`,

		`CREATE TABLE IF NOT EXISTS bond_coupons (
			tracker_id   TEXT NOT NULL,
			token_id     TEXT NOT NULL,
			redeemer     TEXT NOT NULL,
			id           TEXT NOT NULL,
			coupon_count INTEGER NOT NULL,
			redeemed     INTEGER NOT NULL DEFAULT 0,
			data         BLOB NOT NULL,
			PRIMARY KEY (tracker_id, token_id, redeemer, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coupons_redeemer ON bond_coupons(tracker_id, token_id, redeemer, coupon_count)`,

		`CREATE TABLE IF NOT EXISTS bond_votes (
			tracker_id TEXT NOT NULL,
			token_id   TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       BLOB NOT NULL,
			PRIMARY KEY (tracker_id, token_id, id)
		)`,
	}
}
