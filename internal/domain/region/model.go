package region

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	"pokerfinder/internal/domain/geo"
)

// Domain errors
var (
	ErrEmptySlug       = errors.New("region slug cannot be empty")
	ErrInvalidTimezone = errors.New("region timezone must be a valid IANA zone")
)

// VenueCoordinate is the known location of a venue.
type VenueCoordinate struct {
	geo.Coordinate `yaml:",inline"`
	Address        string `json:"address" yaml:"address"`
}

// Region is one listing area with its own feed, timezone and venue table.
type Region struct {
	Slug     string                     `json:"slug" yaml:"slug"`
	Name     string                     `json:"name" yaml:"name"`
	Timezone string                     `json:"timezone" yaml:"timezone"`
	FeedURL  string                     `json:"-" yaml:"feed_url"`
	Venues   map[string]VenueCoordinate `json:"-" yaml:"venues"`
}

// Validate checks if the Region has valid data.
// PRE: Region struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Region) Validate() error {
	if strings.TrimSpace(r.Slug) == "" {
		return ErrEmptySlug
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return ErrInvalidTimezone
	}
	return nil
}

// Location returns the region's timezone, falling back to UTC.
func (r *Region) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Venue looks up a venue coordinate by name, ignoring case and spacing.
// PRE: none
// POST: ok is false when the venue has no known location
func (r *Region) Venue(name string) (VenueCoordinate, bool) {
	if v, ok := r.Venues[name]; ok {
		return v, true
	}
	key := NormalizeVenue(name)
	for n, v := range r.Venues {
		if NormalizeVenue(n) == key {
			return v, true
		}
	}
	return VenueCoordinate{}, false
}

// NormalizeVenue folds a venue name for comparisons.
func NormalizeVenue(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
