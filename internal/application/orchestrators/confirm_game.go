package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	confirmStore "pokerfinder/internal/adapters/storage/confirmation"
	"pokerfinder/internal/domain/confirmation"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
)

// ConfirmationStoreForConfirm defines the store interface needed by ConfirmGame.
type ConfirmationStoreForConfirm interface {
	AppendUnique(ctx context.Context, seed confirmation.Aggregate, entry confirmation.Entry) (confirmation.Aggregate, bool, error)
}

// ConfirmGameInput carries input for the confirm orchestrator.
type ConfirmGameInput struct {
	Listing     listing.GameListing
	UserID      string
	DisplayName string
}

// ConfirmGameDeps holds dependencies for ConfirmGame.
type ConfirmGameDeps struct {
	ConfirmationStore ConfirmationStoreForConfirm
	Location          *time.Location
	Policy            occurrence.Policy
	Now               func() time.Time
}

var (
	// ErrConfirmationUnavailable wraps persistence failures. Retryable.
	ErrConfirmationUnavailable = errors.New("confirmations are temporarily unavailable")
	// ErrEventEnded is returned for a one-off event whose confirmation window has closed.
	ErrEventEnded = errors.New("this event has already ended")
)

// ExecuteConfirmGame records that the user saw this week's running of a game.
// PRE: Listing is valid; UserID is non-empty
// POST: The aggregate for the listing's current occurrence contains the user
// exactly once; repeat calls in the same week return the unchanged aggregate
// INVARIANT: Count is never incremented without a stored entry
func ExecuteConfirmGame(ctx context.Context, input ConfirmGameInput, deps ConfirmGameDeps) (confirmation.Aggregate, error) {
	entry := confirmation.Entry{UserID: input.UserID, DisplayName: input.DisplayName}
	if err := entry.Validate(); err != nil {
		return confirmation.Aggregate{}, err
	}

	now := deps.Now()
	occ, err := occurrence.ResolveListing(input.Listing, now, deps.Location, deps.Policy.ConfirmationExpiry)
	if err != nil {
		return confirmation.Aggregate{}, err
	}
	identity := occ.Identity()
	bucket := occ.WeekBucket()

	seed := confirmation.Aggregate{
		Key:        confirmation.Key(identity, bucket),
		Identity:   identity,
		WeekBucket: bucket,
		ListingID:  input.Listing.ID,
		ExpiresAt:  occ.Start.Add(deps.Policy.ConfirmationExpiry),
	}
	if err := seed.Validate(); err != nil {
		return confirmation.Aggregate{}, err
	}
	// A one-off never rolls over, so past its expiry there is no week to confirm.
	if seed.IsExpired(now) {
		return confirmation.Aggregate{}, ErrEventEnded
	}

	entry.ConfirmedAt = now
	agg, added, err := deps.ConfirmationStore.AppendUnique(ctx, seed, entry)
	if errors.Is(err, confirmStore.ErrExpired) {
		return confirmation.Aggregate{}, ErrEventEnded
	}
	if err != nil {
		slog.Error("confirm_event", "event", "confirm_failed", "key", seed.Key, "error", err.Error())
		return confirmation.Aggregate{}, fmt.Errorf("%w: %w", ErrConfirmationUnavailable, err)
	}

	if added {
		slog.Info("confirm_event", "event", "game_confirmed", "key", agg.Key, "user_id", input.UserID, "count", agg.Count)
	} else {
		slog.Info("confirm_event", "event", "confirm_repeat", "key", agg.Key, "user_id", input.UserID, "count", agg.Count)
	}
	return agg, nil
}
