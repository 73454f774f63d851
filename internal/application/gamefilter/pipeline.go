// Package gamefilter narrows and orders a day's game listings for display.
//
// Apply is a pure function of its Input: no clock, no storage.
package gamefilter

import (
	"sort"
	"strings"
	"time"

	"pokerfinder/internal/domain/geo"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

// TimeBucket groups start hours into parts of the day.
type TimeBucket string

// TimeBucket constants
const (
	BucketAll       TimeBucket = "all"
	BucketAfternoon TimeBucket = "afternoon"
	BucketEvening   TimeBucket = "evening"
	BucketLate      TimeBucket = "late"
)

// ParseTimeBucket maps a query value onto a bucket; anything unknown is BucketAll.
func ParseTimeBucket(s string) TimeBucket {
	switch b := TimeBucket(strings.ToLower(strings.TrimSpace(s))); b {
	case BucketAfternoon, BucketEvening, BucketLate:
		return b
	default:
		return BucketAll
	}
}

// Contains reports whether a start hour falls in the bucket.
// afternoon is [12,18), evening [18,21), late >=21 or <6.
func (b TimeBucket) Contains(hour int) bool {
	switch b {
	case BucketAfternoon:
		return hour >= 12 && hour < 18
	case BucketEvening:
		return hour >= 18 && hour < 21
	case BucketLate:
		return hour >= 21 || hour < 6
	default:
		return true
	}
}

// Criteria is the caller's filter selection. The zero value keeps everything.
type Criteria struct {
	Search         string
	BuyInMin       *float64
	BuyInMax       *float64
	Competitions   map[string]bool
	TimeBucket     TimeBucket
	FavoritesOnly  bool
	StartingSoon   bool
	SortByDistance bool
}

// Input is everything one filter pass needs.
type Input struct {
	Listings  []listing.GameListing // already narrowed to Day
	Criteria  Criteria
	Favorites map[string]bool // venue names; nil for anonymous callers
	User      *geo.Coordinate
	Region    region.Region
	Day       time.Time // day being viewed; zero means Now's date in the region
	Now       time.Time
	Policy    occurrence.Policy
}

// Result is one listing that survived the filters, with its derived state.
type Result struct {
	Listing    listing.GameListing
	Start      time.Time // zero when the start time is malformed
	HasStart   bool
	Status     occurrence.Status
	Favorite   bool
	DistanceKm *float64
}

// Apply runs search, buy-in, competition, time bucket, favourites and
// starting-soon filters in that order, then sorts.
// PRE: in.Listings are for one region and one day
// POST: Returns the surviving listings ordered by distance or by
// favourite-then-start; an empty result is valid
func Apply(in Input) []Result {
	loc := in.Region.Location()
	day := in.Day
	if day.IsZero() {
		day = in.Now.In(loc)
	}
	favorites := normalizeSet(in.Favorites)
	competitions := normalizeSet(in.Criteria.Competitions)
	search := strings.ToLower(strings.TrimSpace(in.Criteria.Search))

	results := make([]Result, 0, len(in.Listings))
	for _, g := range in.Listings {
		if search != "" && !matchesSearch(g, search) {
			continue
		}
		if !inBuyInRange(g.BuyInAmount(), in.Criteria.BuyInMin, in.Criteria.BuyInMax) {
			continue
		}
		if len(competitions) > 0 && !competitions[region.NormalizeVenue(g.Competition)] {
			continue
		}

		r := Result{Listing: g, Favorite: favorites[region.NormalizeVenue(g.Venue)]}
		if start, ok := occurrence.OnDay(g, day, loc); ok {
			r.Start, r.HasStart = start, true
			r.Status = occurrence.Classify(start, in.Now, in.Policy)
		} else {
			r.Status = occurrence.Status{Label: listing.TBC}
		}

		bucket := in.Criteria.TimeBucket
		if bucket != "" && bucket != BucketAll && (!r.HasStart || !bucket.Contains(r.Start.Hour())) {
			continue
		}
		// Anonymous callers have no favourites, so the filter does nothing for them.
		if in.Criteria.FavoritesOnly && in.Favorites != nil && !r.Favorite {
			continue
		}
		if in.Criteria.StartingSoon && (!r.HasStart || !occurrence.IsStartingSoon(r.Start, in.Now, in.Policy)) {
			continue
		}

		if in.User != nil {
			if v, ok := in.Region.Venue(g.Venue); ok {
				d := geo.HaversineKm(*in.User, v.Coordinate)
				r.DistanceKm = &d
			}
		}
		results = append(results, r)
	}

	if in.Criteria.SortByDistance && in.User != nil {
		sortByDistance(results)
	} else {
		sortDefault(results)
	}
	return results
}

// sortByDistance orders nearest first; venues without coordinates go last
// in input order.
func sortByDistance(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].DistanceKm, rs[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// sortDefault orders favourites first, then by start time of day.
// Listings with a TBC start follow the timed ones within their group.
func sortDefault(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Favorite != b.Favorite {
			return a.Favorite
		}
		if a.HasStart != b.HasStart {
			return a.HasStart
		}
		if !a.HasStart {
			return false
		}
		return minuteOfDay(a.Start) < minuteOfDay(b.Start)
	})
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func matchesSearch(g listing.GameListing, needle string) bool {
	for _, field := range []string{g.Venue, g.Competition, g.Address} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func inBuyInRange(amount float64, min, max *float64) bool {
	lo := 0.0
	if min != nil {
		lo = *min
	}
	if amount < lo {
		return false
	}
	return max == nil || amount <= *max
}

// normalizeSet folds names for case and spacing insensitive lookups.
func normalizeSet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if v {
			out[region.NormalizeVenue(k)] = true
		}
	}
	return out
}
