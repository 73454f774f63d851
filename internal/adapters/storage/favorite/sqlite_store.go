package favorite

import (
	"context"
	"time"

	"pokerfinder/internal/adapters/storage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new favourite store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// ListVenues returns the account's favourite venues in the order they were added.
func (s *SQLiteStore) ListVenues(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT venue FROM favorite WHERE account_id = ? ORDER BY created_at, venue", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// Add marks venue as a favourite. Adding twice is a no-op.
// PRE: account exists, venue is non-empty
func (s *SQLiteStore) Add(ctx context.Context, accountID, venue string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO favorite (account_id, venue, created_at) VALUES (?, ?, ?) ON CONFLICT(account_id, venue) DO NOTHING",
		accountID, venue, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// Remove drops venue from the favourites. Removing an absent venue is a no-op.
func (s *SQLiteStore) Remove(ctx context.Context, accountID, venue string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM favorite WHERE account_id = ? AND venue = ?", accountID, venue)
	return err
}
