package region_test

import (
	"testing"

	"pokerfinder/internal/domain/geo"
	"pokerfinder/internal/domain/region"
)

// TestRegion_Validate tests validation of Region.
func TestRegion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       region.Region
		wantErr error
	}{
		{"valid", region.Region{Slug: "auckland", Timezone: "Pacific/Auckland"}, nil},
		{"empty timezone is UTC", region.Region{Slug: "utc"}, nil},
		{"empty slug", region.Region{Timezone: "UTC"}, region.ErrEmptySlug},
		{"bad timezone", region.Region{Slug: "x", Timezone: "Mars/Olympus"}, region.ErrInvalidTimezone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestRegion_Venue verifies lookups are case and whitespace insensitive and absence is not an error.
func TestRegion_Venue(t *testing.T) {
	r := region.Region{
		Slug: "auckland",
		Venues: map[string]region.VenueCoordinate{
			"The Crown  Hotel": {Coordinate: geo.Coordinate{Lat: -36.85, Lng: 174.76}, Address: "1 Queen St"},
		},
	}
	v, ok := r.Venue("the crown hotel")
	if !ok {
		t.Fatal("expected venue to be found")
	}
	if v.Address != "1 Queen St" {
		t.Errorf("Address = %q", v.Address)
	}
	if _, ok := r.Venue("Unknown Bar"); ok {
		t.Error("expected unknown venue to be absent")
	}
}

// TestRegion_Location falls back to UTC for an unknown zone.
func TestRegion_Location(t *testing.T) {
	r := region.Region{Timezone: "Nowhere/Special"}
	if r.Location().String() != "UTC" {
		t.Errorf("Location() = %v, want UTC", r.Location())
	}
	r.Timezone = "Europe/London"
	if r.Location().String() != "Europe/London" {
		t.Errorf("Location() = %v", r.Location())
	}
}
