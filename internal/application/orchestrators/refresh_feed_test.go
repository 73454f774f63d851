package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/region"
)

var akl = region.Region{Slug: "akl", FeedURL: "http://feed.invalid/akl"}

// TestExecuteRefreshFeed_Replaces stores a changed feed.
func TestExecuteRefreshFeed_Replaces(t *testing.T) {
	feed := &mockFeed{changed: true, listings: map[string][]listing.GameListing{"akl": {{ID: "1", Venue: "A"}, {ID: "2", Venue: "B"}}}}
	store := &mockListingStore{}
	res, err := ExecuteRefreshFeed(context.Background(), akl, RefreshFeedDeps{Feed: feed, ListingStore: store})
	if err != nil {
		t.Fatalf("ExecuteRefreshFeed: %v", err)
	}
	if !res.Replaced || res.Listings != 2 || len(store.byRegion["akl"]) != 2 {
		t.Errorf("result = %+v, stored = %d", res, len(store.byRegion["akl"]))
	}
}

// TestExecuteRefreshFeed_KeepsCache leaves listings alone when nothing usable arrived.
func TestExecuteRefreshFeed_KeepsCache(t *testing.T) {
	tests := []struct {
		name    string
		feed    *mockFeed
		wantErr error
	}{
		{"unchanged", &mockFeed{listings: map[string][]listing.GameListing{"akl": {{ID: "1"}}}}, nil},
		{"empty", &mockFeed{changed: true}, ErrEmptyFeed},
		{"fetch error", &mockFeed{err: errors.New("timeout")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockListingStore{}
			res, err := ExecuteRefreshFeed(context.Background(), akl, RefreshFeedDeps{Feed: tt.feed, ListingStore: store})
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.feed.err != nil && err == nil {
				t.Error("expected fetch error to surface")
			}
			if res.Replaced || store.byRegion != nil {
				t.Errorf("store touched: %+v", res)
			}
		})
	}
}

// TestStartFeedScheduler_InvalidSpec rejects a bad schedule.
func TestStartFeedScheduler_InvalidSpec(t *testing.T) {
	if _, err := StartFeedScheduler(context.Background(), "every tuesday", nil, RefreshFeedDeps{}); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

// TestStartFeedScheduler_Stop starts and stops cleanly.
func TestStartFeedScheduler_Stop(t *testing.T) {
	stop, err := StartFeedScheduler(context.Background(), "*/15 * * * *", []region.Region{{Slug: "nofeed"}}, RefreshFeedDeps{Feed: &mockFeed{}, ListingStore: &mockListingStore{}})
	if err != nil {
		t.Fatalf("StartFeedScheduler: %v", err)
	}
	stop()
}

// blockingFeed holds Fetch open until release is closed.
type blockingFeed struct {
	started chan struct{}
	release chan struct{}
}

// Fetch implements FeedFetcher.
func (b *blockingFeed) Fetch(_ context.Context, _ region.Region) ([]listing.GameListing, bool, error) {
	close(b.started)
	<-b.release
	return nil, false, nil
}

// TestStartFeedScheduler_StopWaitsForInitialRefresh keeps stop blocked
// while the start-up refresh is still running.
func TestStartFeedScheduler_StopWaitsForInitialRefresh(t *testing.T) {
	feed := &blockingFeed{started: make(chan struct{}), release: make(chan struct{})}
	stop, err := StartFeedScheduler(context.Background(), "0 0 1 1 *", []region.Region{akl}, RefreshFeedDeps{Feed: feed, ListingStore: &mockListingStore{}})
	if err != nil {
		t.Fatalf("StartFeedScheduler: %v", err)
	}
	<-feed.started

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while the initial refresh was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(feed.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the refresh finished")
	}
}
