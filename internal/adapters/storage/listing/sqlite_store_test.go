package listing

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"pokerfinder/internal/adapters/storage"
	domain "pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/slot"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", storage.DSN(":memory:"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

func sampleListings() []domain.GameListing {
	return []domain.GameListing{
		{ID: "a", Region: "akl", Venue: "The Vic", Competition: "NLHE", Day: slot.Friday, StartTime: "19:30", BuyIn: "$30", Notes: "**late reg** till 9"},
		{ID: "b", Region: "akl", Venue: "Bluff", Competition: "PLO", Day: slot.Monday, StartTime: "18:00", BuyIn: "20"},
		{ID: "c", Region: "akl", Venue: "Harbour Club", Competition: "Deepstack", IsOneOffEvent: true, EventDate: "2026-10-16", StartTime: "12:00", BuyIn: "150"},
		{ID: "d", Region: "wlg", Venue: "Cuba St", Competition: "NLHE", Day: slot.Friday, StartTime: "20:00"},
	}
}

// TestSQLiteStore_ReplaceAndGet verifies a snapshot round-trips every field.
func TestSQLiteStore_ReplaceAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	all := sampleListings()

	if err := store.ReplaceRegion(ctx, "akl", all[:3]); err != nil {
		t.Fatalf("ReplaceRegion: %v", err)
	}
	got, err := store.GetByID(ctx, "c")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != all[2] {
		t.Errorf("GetByID = %+v, want %+v", got, all[2])
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing listing: got %v, want sql.ErrNoRows", err)
	}
}

// TestSQLiteStore_ReplaceRegionIsolated verifies a refresh only touches its own region.
func TestSQLiteStore_ReplaceRegionIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	all := sampleListings()

	if err := store.ReplaceRegion(ctx, "akl", all[:3]); err != nil {
		t.Fatalf("ReplaceRegion akl: %v", err)
	}
	if err := store.ReplaceRegion(ctx, "wlg", all[3:]); err != nil {
		t.Fatalf("ReplaceRegion wlg: %v", err)
	}
	if err := store.ReplaceRegion(ctx, "akl", all[1:2]); err != nil {
		t.Fatalf("ReplaceRegion akl again: %v", err)
	}

	akl, err := store.CountByRegion(ctx, "akl")
	if err != nil || akl != 1 {
		t.Errorf("akl count = %d, %v; want 1", akl, err)
	}
	wlg, err := store.CountByRegion(ctx, "wlg")
	if err != nil || wlg != 1 {
		t.Errorf("wlg count = %d, %v; want 1", wlg, err)
	}
}

// TestSQLiteStore_ListByRegionAndDay verifies weekday and dated one-off selection.
func TestSQLiteStore_ListByRegionAndDay(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	all := sampleListings()
	if err := store.ReplaceRegion(ctx, "akl", all[:3]); err != nil {
		t.Fatalf("ReplaceRegion: %v", err)
	}

	// 2026-10-16 is a Friday: the weekly Friday game plus the one-off.
	got, err := store.ListByRegionAndDay(ctx, "akl", slot.Friday, "2026-10-16")
	if err != nil {
		t.Fatalf("ListByRegionAndDay: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("got %v, want [c a] ordered by start time", ids(got))
	}

	// A week later the one-off is gone.
	got, err = store.ListByRegionAndDay(ctx, "akl", slot.Friday, "2026-10-23")
	if err != nil {
		t.Fatalf("ListByRegionAndDay: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %v, want [a]", ids(got))
	}
}

func ids(gs []domain.GameListing) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.ID
	}
	return out
}
