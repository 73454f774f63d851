package projections

import (
	"context"
	"time"

	"pokerfinder/internal/application/gamefilter"
	"pokerfinder/internal/domain/geo"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
	"pokerfinder/internal/domain/slot"
)

// GamesListingStore defines the store interface needed by this projection.
type GamesListingStore interface {
	ListByRegionAndDay(ctx context.Context, region string, day slot.Weekday, date string) ([]listing.GameListing, error)
}

// GamesFavoriteStore defines the store interface needed by this projection.
type GamesFavoriteStore interface {
	ListVenues(ctx context.Context, accountID string) ([]string, error)
}

// GetGamesDeps holds dependencies for the projection.
type GetGamesDeps struct {
	ListingStore  GamesListingStore
	FavoriteStore GamesFavoriteStore
	Policy        occurrence.Policy
}

// GetGamesInput is one day view request.
type GetGamesInput struct {
	Region    region.Region
	Day       time.Time // midnight of the viewed day in the region
	Criteria  gamefilter.Criteria
	User      *geo.Coordinate
	AccountID string // empty for anonymous callers
}

// GamesView is the filtered day view.
type GamesView struct {
	Region string     `json:"region"`
	Date   string     `json:"date"`
	Day    string     `json:"day"`
	Games  []GameView `json:"games"`
}

// QueryGetGames lists the region's games for a day, filtered and sorted.
// PRE: in.Region is configured; in.Day is in the region's location
// POST: Returns an empty, non-nil Games slice when nothing matches
func QueryGetGames(ctx context.Context, now time.Time, in GetGamesInput, deps GetGamesDeps) (GamesView, error) {
	loc := in.Region.Location()
	day := in.Day.In(loc)
	weekday := slot.FromTime(day.Weekday())
	date := day.Format(listing.DateLayout)

	listings, err := deps.ListingStore.ListByRegionAndDay(ctx, in.Region.Slug, weekday, date)
	if err != nil {
		return GamesView{}, err
	}

	var favorites map[string]bool
	if in.AccountID != "" && deps.FavoriteStore != nil {
		venues, err := deps.FavoriteStore.ListVenues(ctx, in.AccountID)
		if err != nil {
			return GamesView{}, err
		}
		favorites = make(map[string]bool, len(venues))
		for _, v := range venues {
			favorites[v] = true
		}
	}

	results := gamefilter.Apply(gamefilter.Input{
		Listings:  listings,
		Criteria:  in.Criteria,
		Favorites: favorites,
		User:      in.User,
		Region:    in.Region,
		Day:       day,
		Now:       now,
		Policy:    deps.Policy,
	})

	view := GamesView{Region: in.Region.Slug, Date: date, Day: weekday.String(), Games: make([]GameView, 0, len(results))}
	for _, r := range results {
		view.Games = append(view.Games, newGameView(r, now, deps.Policy))
	}
	return view, nil
}
