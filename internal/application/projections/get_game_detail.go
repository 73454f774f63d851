package projections

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"pokerfinder/internal/application/gamefilter"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

// UpcomingCount is how many future starts a detail view lists.
const UpcomingCount = 4

// ErrUnknownRegion is returned when a listing's region is not configured.
var ErrUnknownRegion = errors.New("listing belongs to an unknown region")

// notesRenderer turns listing notes into HTML. Raw HTML in notes is dropped.
var notesRenderer = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// DetailListingStore defines the store interface needed by this projection.
type DetailListingStore interface {
	GetByID(ctx context.Context, id string) (listing.GameListing, error)
}

// GetGameDetailDeps holds dependencies for the projection.
type GetGameDetailDeps struct {
	ListingStore DetailListingStore
	Regions      map[string]region.Region
	Policy       occurrence.Policy
}

// GameDetail is a single listing with its schedule.
type GameDetail struct {
	GameView
	Region        string                  `json:"region"`
	NotesHTML     string                  `json:"notes_html,omitempty"`
	Upcoming      []time.Time             `json:"upcoming"`
	RRule         string                  `json:"rrule,omitempty"`
	VenueLocation *region.VenueCoordinate `json:"venue_location,omitempty"`
}

// QueryGetGameDetail loads one listing with its current occurrence, its next
// starts and rendered notes.
// PRE: id is non-empty
// POST: Returns the store's not-found error unchanged when id is unknown
func QueryGetGameDetail(ctx context.Context, now time.Time, id string, deps GetGameDetailDeps) (GameDetail, error) {
	g, err := deps.ListingStore.GetByID(ctx, id)
	if err != nil {
		return GameDetail{}, err
	}
	reg, ok := deps.Regions[g.Region]
	if !ok {
		return GameDetail{}, ErrUnknownRegion
	}
	loc := reg.Location()

	result := gamefilter.Result{Listing: g, Status: occurrence.Status{Label: listing.TBC}}
	if occ, err := occurrence.ResolveListing(g, now, loc, deps.Policy.CompletedAfter); err == nil {
		result.Start, result.HasStart = occ.Start, true
		result.Status = occurrence.Classify(occ.Start, now, deps.Policy)
	}

	detail := GameDetail{
		GameView: newGameView(result, now, deps.Policy),
		Region:   reg.Slug,
		Upcoming: []time.Time{},
	}
	if v, ok := reg.Venue(g.Venue); ok {
		detail.VenueLocation = &v
	}

	if s, ok := g.Slot(); ok && !g.IsOneOffEvent {
		detail.Upcoming = occurrence.Upcoming(s, now, loc, UpcomingCount)
		detail.RRule = occurrence.RRule(s)
	} else if result.HasStart && result.Start.After(now) {
		detail.Upcoming = []time.Time{result.Start}
	}

	if g.Notes != "" {
		var buf bytes.Buffer
		if err := notesRenderer.Convert([]byte(g.Notes), &buf); err == nil {
			detail.NotesHTML = buf.String()
		}
	}
	return detail, nil
}
