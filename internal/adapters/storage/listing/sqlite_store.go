package listing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pokerfinder/internal/adapters/storage"
	domain "pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/slot"
)

const selectColumns = "SELECT id, region, venue, competition, day, start_time, registration_time, late_registration_time, buy_in, re_buy, starting_stack, is_one_off, event_date, address, notes FROM listing"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new listing store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// GetByID retrieves a GameListing by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.GameListing, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanListing(row.Scan)
	if err == sql.ErrNoRows {
		return domain.GameListing{}, fmt.Errorf("listing not found: %w", err)
	}
	return entity, err
}

// ListByRegion returns every cached listing for a region.
// PRE: region is non-empty
// POST: Returns listings ordered by day then start time
func (s *SQLiteStore) ListByRegion(ctx context.Context, region string) ([]domain.GameListing, error) {
	return s.list(ctx, selectColumns+" WHERE region = ? ORDER BY day, start_time, venue", region)
}

// ListByRegionAndDay returns the recurring listings for day plus the one-offs
// dated date (YYYY-MM-DD).
// PRE: region is non-empty, day is valid
// POST: Returns the listings that belong in that day's view
func (s *SQLiteStore) ListByRegionAndDay(ctx context.Context, region string, day slot.Weekday, date string) ([]domain.GameListing, error) {
	return s.list(ctx,
		selectColumns+" WHERE region = ? AND ((is_one_off = 0 AND day = ?) OR (is_one_off = 1 AND event_date = ?)) ORDER BY start_time, venue",
		region, int(day), date)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.GameListing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.GameListing
	for rows.Next() {
		entity, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ReplaceRegion swaps a region's cached listings for a fresh feed snapshot.
// PRE: every listing has been validated and carries Region == region
// POST: the region holds exactly listings; other regions are untouched
// INVARIANT: readers see either the old or the new snapshot, never a mix
func (s *SQLiteStore) ReplaceRegion(ctx context.Context, region string, listings []domain.GameListing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listing WHERE region = ?", region); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO listing (id, region, venue, competition, day, start_time, registration_time, late_registration_time, buy_in, re_buy, starting_stack, is_one_off, event_date, address, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET region=excluded.region, venue=excluded.venue, competition=excluded.competition, day=excluded.day,
			start_time=excluded.start_time, registration_time=excluded.registration_time, late_registration_time=excluded.late_registration_time,
			buy_in=excluded.buy_in, re_buy=excluded.re_buy, starting_stack=excluded.starting_stack, is_one_off=excluded.is_one_off,
			event_date=excluded.event_date, address=excluded.address, notes=excluded.notes, updated_at=excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Format(time.RFC3339)
	for _, g := range listings {
		oneOff := 0
		if g.IsOneOffEvent {
			oneOff = 1
		}
		_, err := stmt.ExecContext(ctx,
			g.ID, region, g.Venue, g.Competition, int(g.Day), g.StartTime,
			g.RegistrationTime, g.LateRegistrationTime, g.BuyIn, g.ReBuy, g.StartingStack,
			oneOff, g.EventDate, g.Address, g.Notes, updatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert listing %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

// CountByRegion returns the number of cached listings for a region.
func (s *SQLiteStore) CountByRegion(ctx context.Context, region string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listing WHERE region = ?", region).Scan(&count)
	return count, err
}

// scanListing extracts a GameListing from a row scanner function.
func scanListing(scan func(dest ...any) error) (domain.GameListing, error) {
	var g domain.GameListing
	var day, oneOff int
	err := scan(
		&g.ID, &g.Region, &g.Venue, &g.Competition, &day, &g.StartTime,
		&g.RegistrationTime, &g.LateRegistrationTime, &g.BuyIn, &g.ReBuy, &g.StartingStack,
		&oneOff, &g.EventDate, &g.Address, &g.Notes,
	)
	if err != nil {
		return domain.GameListing{}, err
	}
	g.Day = slot.Weekday(day)
	g.IsOneOffEvent = oneOff == 1
	return g, nil
}
