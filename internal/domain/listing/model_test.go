package listing_test

import (
	"testing"
	"time"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/slot"
)

// TestGameListing_Validate tests validation of GameListing.
func TestGameListing_Validate(t *testing.T) {
	tests := []struct {
		name    string
		g       listing.GameListing
		wantErr error
	}{
		{"valid weekly", listing.GameListing{Venue: "The Vic", Day: slot.Friday, StartTime: "19:00"}, nil},
		{"malformed time still valid", listing.GameListing{Venue: "The Vic", Day: slot.Friday, StartTime: "TBC"}, nil},
		{"empty venue", listing.GameListing{Venue: "  ", Day: slot.Friday}, listing.ErrEmptyVenue},
		{"weekly without day", listing.GameListing{Venue: "The Vic"}, slot.ErrInvalidDay},
		{"one-off with date", listing.GameListing{Venue: "Casino", IsOneOffEvent: true, EventDate: "2026-12-31"}, nil},
		{"one-off without date", listing.GameListing{Venue: "Casino", IsOneOffEvent: true}, listing.ErrMissingEventDate},
		{"one-off with bad date", listing.GameListing{Venue: "Casino", IsOneOffEvent: true, EventDate: "31/12/2026"}, listing.ErrMissingEventDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseAmount verifies buy-in parsing degrades to zero.
func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30", 30},
		{"£25", 25},
		{"$1,100", 1100},
		{"20+5", 20},
		{"12.50 inc fee", 12.5},
		{"Free", 0},
		{"", 0},
		{"-10", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := listing.ParseAmount(tt.in); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestGameListing_OccursOn verifies weekday matching for recurring games and date matching for one-offs.
func TestGameListing_OccursOn(t *testing.T) {
	friday := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)

	weekly := listing.GameListing{Venue: "A", Day: slot.Friday, StartTime: "19:00"}
	if !weekly.OccursOn(friday) || weekly.OccursOn(saturday) {
		t.Error("weekly Friday game should only occur on Fridays")
	}
	if !weekly.OccursOn(friday.AddDate(0, 0, 7)) {
		t.Error("weekly game should occur every Friday")
	}

	oneOff := listing.GameListing{Venue: "B", Day: slot.Friday, IsOneOffEvent: true, EventDate: "2026-10-17"}
	if oneOff.OccursOn(friday) {
		t.Error("one-off must match by date, not weekday")
	}
	if !oneOff.OccursOn(saturday) {
		t.Error("one-off should occur on its event date")
	}
	if oneOff.Weekday() != slot.Saturday {
		t.Errorf("Weekday() = %v, want saturday", oneOff.Weekday())
	}
}

// TestGameListing_DisplayStartTime shows TBC for malformed times.
func TestGameListing_DisplayStartTime(t *testing.T) {
	g := listing.GameListing{StartTime: "7:05"}
	if got := g.DisplayStartTime(); got != "07:05" {
		t.Errorf("DisplayStartTime() = %q", got)
	}
	g.StartTime = "late"
	if got := g.DisplayStartTime(); got != listing.TBC {
		t.Errorf("DisplayStartTime() = %q, want TBC", got)
	}
	if _, ok := g.Slot(); ok {
		t.Error("Slot() should fail for malformed time")
	}
}
