package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/region"
)

// FeedFetcher defines the feed interface needed by RefreshFeed.
type FeedFetcher interface {
	Fetch(ctx context.Context, r region.Region) ([]listing.GameListing, bool, error)
}

// ListingStoreForRefresh defines the store interface needed by RefreshFeed.
type ListingStoreForRefresh interface {
	ReplaceRegion(ctx context.Context, region string, listings []listing.GameListing) error
}

// RefreshFeedDeps holds dependencies for RefreshFeed.
type RefreshFeedDeps struct {
	Feed         FeedFetcher
	ListingStore ListingStoreForRefresh
}

// RefreshFeedResult reports what a refresh did.
type RefreshFeedResult struct {
	Region   string `json:"region"`
	Listings int    `json:"listings"`
	Replaced bool   `json:"replaced"`
}

// ErrEmptyFeed is returned when a changed feed yields no usable listings.
// The cached listings are kept.
var ErrEmptyFeed = errors.New("feed produced no valid listings")

// ExecuteRefreshFeed pulls a region's feed and replaces its cached listings.
// PRE: r is a configured region
// POST: On success the region's listings match the feed; on any failure the
// previous listings are left untouched
func ExecuteRefreshFeed(ctx context.Context, r region.Region, deps RefreshFeedDeps) (RefreshFeedResult, error) {
	listings, changed, err := deps.Feed.Fetch(ctx, r)
	if err != nil {
		slog.Error("feed_event", "event", "refresh_failed", "region", r.Slug, "error", err.Error())
		return RefreshFeedResult{Region: r.Slug}, err
	}
	result := RefreshFeedResult{Region: r.Slug, Listings: len(listings)}
	if !changed {
		slog.Debug("feed_event", "event", "refresh_unchanged", "region", r.Slug)
		return result, nil
	}
	if len(listings) == 0 {
		slog.Warn("feed_event", "event", "refresh_empty", "region", r.Slug)
		return result, ErrEmptyFeed
	}
	if err := deps.ListingStore.ReplaceRegion(ctx, r.Slug, listings); err != nil {
		return result, fmt.Errorf("replace listings for %s: %w", r.Slug, err)
	}
	result.Replaced = true
	slog.Info("feed_event", "event", "refreshed", "region", r.Slug, "listings", len(listings))
	return result, nil
}

// StartFeedScheduler refreshes every region on the cron spec, once
// immediately and then on schedule. Runs that overlap a previous one are
// skipped.
// PRE: spec is a standard five-field cron expression
// POST: Returns a stop function that waits for any running refresh, the
// initial one included, to finish
func StartFeedScheduler(ctx context.Context, spec string, regions []region.Region, deps RefreshFeedDeps) (func(), error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	refreshAll := func() {
		for _, r := range regions {
			if r.FeedURL == "" {
				continue
			}
			// Errors are logged inside; one region failing must not stop the rest.
			_, _ = ExecuteRefreshFeed(ctx, r, deps)
		}
	}
	if _, err := c.AddFunc(spec, refreshAll); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	var initial sync.WaitGroup
	initial.Add(1)
	go func() {
		defer initial.Done()
		refreshAll()
	}()
	c.Start()
	slog.Info("feed_event", "event", "scheduler_started", "schedule", spec, "regions", len(regions))

	return func() {
		<-c.Stop().Done()
		initial.Wait()
		slog.Info("feed_event", "event", "scheduler_stopped")
	}, nil
}
