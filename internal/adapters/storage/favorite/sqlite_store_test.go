package favorite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"pokerfinder/internal/adapters/storage"
)

// TestSQLiteStore_AddListRemove verifies favourite set semantics.
func TestSQLiteStore_AddListRemove(t *testing.T) {
	db, err := sql.Open("sqlite", storage.DSN(":memory:"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Exec("INSERT INTO account (id, email, display_name, role, created_at) VALUES ('a1', 'a@b.c', 'A', 'player', '2026-10-01T00:00:00Z')"); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	store := NewSQLiteStore(db)
	tick := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	ctx := context.Background()

	for _, v := range []string{"The Vic", "Bluff", "The Vic"} {
		if err := store.Add(ctx, "a1", v); err != nil {
			t.Fatalf("Add(%q): %v", v, err)
		}
	}
	got, err := store.ListVenues(ctx, "a1")
	if err != nil {
		t.Fatalf("ListVenues: %v", err)
	}
	if len(got) != 2 || got[0] != "The Vic" || got[1] != "Bluff" {
		t.Errorf("ListVenues = %v, want [The Vic Bluff]", got)
	}

	if err := store.Remove(ctx, "a1", "The Vic"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "a1", "Nowhere"); err != nil {
		t.Fatalf("Remove absent: %v", err)
	}
	got, _ = store.ListVenues(ctx, "a1")
	if len(got) != 1 || got[0] != "Bluff" {
		t.Errorf("after remove = %v, want [Bluff]", got)
	}

	if err := store.Add(ctx, "ghost", "Bluff"); err == nil {
		t.Error("expected foreign key error for unknown account")
	}
}
