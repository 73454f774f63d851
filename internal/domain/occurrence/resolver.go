// Package occurrence turns weekly slots into concrete, dated game instances
// and classifies them against the current instant.
package occurrence

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/slot"
)

// ErrUnresolvable is returned when a listing has no usable start time or date.
var ErrUnresolvable = errors.New("listing start time cannot be resolved")

// Occurrence is one concrete running of a listing. Never persisted.
type Occurrence struct {
	Listing listing.GameListing
	Start   time.Time
}

// WeekBucket returns the ISO date identifying which week this occurrence belongs to.
func (o Occurrence) WeekBucket() string {
	return WeekBucket(o.Start)
}

// Identity returns the stable key for the listing this occurrence belongs to.
func (o Occurrence) Identity() string {
	id, _ := IdentityOf(o.Listing)
	return id
}

// Resolve returns the start of the occurrence of s that is relevant at now.
// This week's occurrence is the most recent matching weekday on or before
// now's date; once its active window has elapsed the one seven days later
// is returned instead.
// PRE: s is valid, loc is non-nil, activeWindow >= 0
// POST: Returns an instant on s.Day at s.Start in loc
func Resolve(s slot.WeeklySlot, now time.Time, loc *time.Location, activeWindow time.Duration) time.Time {
	now = now.In(loc)
	back := (int(now.Weekday()) - int(s.Day.Time()) + 7) % 7
	day := now.AddDate(0, 0, -back)
	start := s.Start.On(day, loc)
	if !start.Add(activeWindow).After(now) {
		start = s.Start.On(day.AddDate(0, 0, 7), loc)
	}
	return start
}

// ResolveListing resolves a listing's occurrence at now.
// One-off events are pinned to their event date and never roll over.
// PRE: loc is non-nil
// POST: Returns ErrUnresolvable when the start time or event date is malformed
func ResolveListing(g listing.GameListing, now time.Time, loc *time.Location, activeWindow time.Duration) (Occurrence, error) {
	start, ok := g.Start()
	if !ok {
		return Occurrence{}, ErrUnresolvable
	}
	if g.IsOneOffEvent {
		day, ok := g.EventDay()
		if !ok {
			return Occurrence{}, ErrUnresolvable
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), start.Hour, start.Minute, 0, 0, loc)
		return Occurrence{Listing: g, Start: at}, nil
	}
	s := slot.WeeklySlot{Day: g.Day, Start: start}
	if err := s.Validate(); err != nil {
		return Occurrence{}, ErrUnresolvable
	}
	return Occurrence{Listing: g, Start: Resolve(s, now, loc, activeWindow)}, nil
}

// OnDay returns the listing's start on the given calendar day, ignoring rollover.
// Used by day views where the day being shown is already fixed.
// PRE: day is expressed in loc
// POST: ok is false when the start time is malformed
func OnDay(g listing.GameListing, day time.Time, loc *time.Location) (time.Time, bool) {
	start, ok := g.Start()
	if !ok {
		return time.Time{}, false
	}
	return start.On(day, loc), true
}

// WeekBucket formats the date component of an occurrence start in its own location.
func WeekBucket(start time.Time) string {
	return start.Format(listing.DateLayout)
}

// Identity derives the stable key for a weekly game from its descriptive
// fields, independent of any database id.
// PRE: none
// POST: Returns a lower-case, dash separated key
func Identity(venue, competition string, day slot.Weekday, start slot.TimeOfDay) string {
	parts := []string{
		normalizePart(venue),
		normalizePart(competition),
		day.String(),
		strings.ReplaceAll(start.String(), ":", ""),
	}
	return strings.Join(parts, "-")
}

// IdentityOf returns the identity of a listing, or false if its start time is malformed.
func IdentityOf(g listing.GameListing) (string, bool) {
	start, ok := g.Start()
	if !ok {
		return "", false
	}
	return Identity(g.Venue, g.Competition, g.Weekday(), start), true
}

func normalizePart(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
