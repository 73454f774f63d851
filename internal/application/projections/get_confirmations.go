package projections

import (
	"context"
	"time"

	"pokerfinder/internal/domain/confirmation"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
)

// ConfirmationReader defines the store interface needed by this projection.
type ConfirmationReader interface {
	Get(ctx context.Context, key string) (confirmation.Aggregate, bool, error)
}

// GetConfirmationsDeps holds dependencies for the projection.
type GetConfirmationsDeps struct {
	ConfirmationStore ConfirmationReader
	Location          *time.Location
	Policy            occurrence.Policy
}

// QueryGetConfirmations returns the live aggregate for the listing's current
// occurrence.
// PRE: g is valid
// POST: ok is false when no aggregate exists, it has expired, or the
// listing's start time cannot be resolved
func QueryGetConfirmations(ctx context.Context, now time.Time, g listing.GameListing, deps GetConfirmationsDeps) (confirmation.Aggregate, bool, error) {
	occ, err := occurrence.ResolveListing(g, now, deps.Location, deps.Policy.ConfirmationExpiry)
	if err != nil {
		return confirmation.Aggregate{}, false, nil
	}
	agg, ok, err := deps.ConfirmationStore.Get(ctx, confirmation.Key(occ.Identity(), occ.WeekBucket()))
	if err != nil || !ok {
		return confirmation.Aggregate{}, false, err
	}
	if agg.IsExpired(now) {
		return confirmation.Aggregate{}, false, nil
	}
	return agg, true, nil
}
