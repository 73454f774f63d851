package listing

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"pokerfinder/internal/domain/slot"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// TBC is shown in place of a start time that could not be parsed.
const TBC = "TBC"

// Domain errors
var (
	ErrEmptyVenue       = errors.New("venue cannot be empty")
	ErrMissingEventDate = errors.New("one-off events must carry a valid event date")
)

// GameListing is one advertised poker game, either weekly or one-off.
type GameListing struct {
	ID                   string
	Region               string
	Venue                string
	Competition          string
	Day                  slot.Weekday
	StartTime            string // HH:MM as supplied; may be malformed
	RegistrationTime     string // optional
	LateRegistrationTime string // optional
	BuyIn                string // number-or-string as supplied
	ReBuy                string // optional
	StartingStack        string // optional
	IsOneOffEvent        bool
	EventDate            string // YYYY-MM-DD, required when IsOneOffEvent
	Address              string
	Notes                string // markdown
}

// Validate checks if the GameListing has valid data.
// PRE: GameListing struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: IsOneOffEvent implies a parseable EventDate
func (g *GameListing) Validate() error {
	if strings.TrimSpace(g.Venue) == "" {
		return ErrEmptyVenue
	}
	if g.IsOneOffEvent {
		if _, ok := g.EventDay(); !ok {
			return ErrMissingEventDate
		}
		return nil
	}
	if !g.Day.Valid() {
		return slot.ErrInvalidDay
	}
	return nil
}

// Start returns the parsed start time, or false when it is malformed.
func (g *GameListing) Start() (slot.TimeOfDay, bool) {
	t, err := slot.ParseTimeOfDay(g.StartTime)
	if err != nil {
		return slot.TimeOfDay{}, false
	}
	return t, true
}

// DisplayStartTime returns HH:MM or TBC.
func (g *GameListing) DisplayStartTime() string {
	if t, ok := g.Start(); ok {
		return t.String()
	}
	return TBC
}

// EventDay parses EventDate as a UTC midnight.
func (g *GameListing) EventDay() (time.Time, bool) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(g.EventDate))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Weekday returns the day the game runs; one-offs use their event date.
func (g *GameListing) Weekday() slot.Weekday {
	if g.IsOneOffEvent {
		if d, ok := g.EventDay(); ok {
			return slot.FromTime(d.Weekday())
		}
	}
	return g.Day
}

// Slot returns the weekly slot, or false when the start time is malformed.
func (g *GameListing) Slot() (slot.WeeklySlot, bool) {
	t, ok := g.Start()
	if !ok {
		return slot.WeeklySlot{}, false
	}
	s := slot.WeeklySlot{Day: g.Weekday(), Start: t}
	return s, s.Validate() == nil
}

// OccursOn reports whether the game runs on the calendar date of day.
// One-offs match by date, recurring games by weekday.
// PRE: day is expressed in the region's location
// POST: Returns true when the listing belongs in that day's view
func (g *GameListing) OccursOn(day time.Time) bool {
	if g.IsOneOffEvent {
		return strings.TrimSpace(g.EventDate) == day.Format(DateLayout)
	}
	return g.Day == slot.FromTime(day.Weekday())
}

// BuyInAmount returns the numeric buy-in, or 0 when it cannot be parsed.
// Currency symbols and thousands separators are ignored; trailing text
// such as "+5 fee" is dropped.
func (g *GameListing) BuyInAmount() float64 {
	return ParseAmount(g.BuyIn)
}

// ParseAmount extracts the leading number from a price string.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$£€¥ ")
	s = strings.ReplaceAll(s, ",", "")
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && !seenDot {
			seenDot = true
		} else if c < '0' || c > '9' {
			break
		}
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
