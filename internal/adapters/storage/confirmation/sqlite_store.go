package confirmation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pokerfinder/internal/adapters/storage"
	domain "pokerfinder/internal/domain/confirmation"
)

const timeLayout = time.RFC3339Nano

// querier is the read surface shared by *sql.Tx and storage.SQLDB.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new confirmation store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get reads an aggregate with its entries. Expired aggregates are returned
// as stored; callers decide whether they are live.
// PRE: key is non-empty
// POST: ok is false when no aggregate exists for key
func (s *SQLiteStore) Get(ctx context.Context, key string) (domain.Aggregate, bool, error) {
	agg, err := readAggregate(ctx, s.db, key)
	if err == sql.ErrNoRows {
		return domain.Aggregate{}, false, nil
	}
	if err != nil {
		return domain.Aggregate{}, false, err
	}
	return agg, true, nil
}

// AppendUnique adds entry to the aggregate for seed.Key, creating the
// aggregate from seed if it does not exist yet.
// PRE: seed and entry have been validated
// POST: returns the aggregate as committed and whether entry was newly added
// INVARIANT: one transaction; at most one entry per (key, user); Count is
// derived from the stored entries
func (s *SQLiteStore) AppendUnique(ctx context.Context, seed domain.Aggregate, entry domain.Entry) (domain.Aggregate, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Aggregate{}, false, err
	}
	defer tx.Rollback()

	confirmedAt := entry.ConfirmedAt.UTC().Format(timeLayout)

	_, err = tx.ExecContext(ctx, `INSERT INTO confirmation_aggregate (key, identity, week_bucket, listing_id, created_at, last_confirmed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(key) DO NOTHING`,
		seed.Key, seed.Identity, seed.WeekBucket, seed.ListingID,
		confirmedAt, confirmedAt, seed.ExpiresAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return domain.Aggregate{}, false, fmt.Errorf("create aggregate: %w", err)
	}

	var expiresAt string
	if err := tx.QueryRowContext(ctx, "SELECT expires_at FROM confirmation_aggregate WHERE key = ?", seed.Key).Scan(&expiresAt); err != nil {
		return domain.Aggregate{}, false, fmt.Errorf("read aggregate: %w", err)
	}
	if exp, _ := parseTime(expiresAt); entry.ConfirmedAt.After(exp) {
		return domain.Aggregate{}, false, ErrExpired
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO confirmation_entry (aggregate_key, user_id, display_name, confirmed_at)
		VALUES (?, ?, ?, ?) ON CONFLICT(aggregate_key, user_id) DO NOTHING`,
		seed.Key, entry.UserID, entry.DisplayName, confirmedAt,
	)
	if err != nil {
		return domain.Aggregate{}, false, fmt.Errorf("append entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Aggregate{}, false, err
	}
	inserted := n == 1

	if inserted {
		if _, err := tx.ExecContext(ctx, "UPDATE confirmation_aggregate SET last_confirmed_at = ? WHERE key = ?", confirmedAt, seed.Key); err != nil {
			return domain.Aggregate{}, false, fmt.Errorf("touch aggregate: %w", err)
		}
	}

	agg, err := readAggregate(ctx, tx, seed.Key)
	if err != nil {
		return domain.Aggregate{}, false, fmt.Errorf("reload aggregate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Aggregate{}, false, err
	}
	return agg, inserted, nil
}

func readAggregate(ctx context.Context, q querier, key string) (domain.Aggregate, error) {
	var agg domain.Aggregate
	var last, expires string
	err := q.QueryRowContext(ctx,
		"SELECT key, identity, week_bucket, listing_id, last_confirmed_at, expires_at FROM confirmation_aggregate WHERE key = ?", key,
	).Scan(&agg.Key, &agg.Identity, &agg.WeekBucket, &agg.ListingID, &last, &expires)
	if err != nil {
		return domain.Aggregate{}, err
	}
	agg.LastConfirmedAt, _ = parseTime(last)
	agg.ExpiresAt, _ = parseTime(expires)

	rows, err := q.QueryContext(ctx,
		"SELECT user_id, display_name, confirmed_at FROM confirmation_entry WHERE aggregate_key = ? ORDER BY confirmed_at, user_id", key)
	if err != nil {
		return domain.Aggregate{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e domain.Entry
		var at string
		if err := rows.Scan(&e.UserID, &e.DisplayName, &at); err != nil {
			return domain.Aggregate{}, err
		}
		e.ConfirmedAt, _ = parseTime(at)
		agg.Entries = append(agg.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Aggregate{}, err
	}
	agg.Count = len(agg.Entries)
	return agg, nil
}

func parseTime(s string) (time.Time, error) {
	for _, f := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
