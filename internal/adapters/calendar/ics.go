// Package calendar exports game listings as iCalendar files.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

const (
	productID   = "-//pokerfinder//games//EN"
	localLayout = "20060102T150405"

	// zoneYears is how far past the occurrence the VTIMEZONE observances reach.
	zoneYears = 10
)

// WriteGameICS writes a calendar with one event for g. Weekly games carry a
// weekly RRULE anchored on the current occurrence; one-offs are a single event.
// DTSTART is written in the region's zone so recurrence follows local time
// across daylight saving changes.
// PRE: g has a resolvable start; length > 0
// POST: Returns occurrence.ErrUnresolvable for a TBC start, nothing written
func WriteGameICS(w io.Writer, g listing.GameListing, reg region.Region, now time.Time, length time.Duration) error {
	loc := reg.Location()
	occ, err := occurrence.ResolveListing(g, now, loc, length)
	if err != nil {
		return err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(g.Venue)
	if loc != time.UTC {
		addTimezone(cal, loc, occ.Start)
	}

	ev := cal.AddEvent(g.ID + "@pokerfinder")
	ev.SetDtStampTime(now.UTC())
	setLocalTime(ev, ics.ComponentPropertyDtStart, occ.Start, loc)
	setLocalTime(ev, ics.ComponentPropertyDtEnd, occ.Start.Add(length), loc)
	ev.SetSummary(summary(g))
	if loc := location(g, reg); loc != "" {
		ev.SetLocation(loc)
	}
	if d := description(g); d != "" {
		ev.SetDescription(d)
	}
	if !g.IsOneOffEvent {
		if s, ok := g.Slot(); ok {
			ev.AddRrule(occurrence.RRule(s))
		}
	}

	_, err = io.WriteString(w, cal.Serialize())
	return err
}

func setLocalTime(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		ev.SetProperty(prop, t.UTC().Format(localLayout)+"Z")
		return
	}
	ev.SetProperty(prop, t.In(loc).Format(localLayout), ics.WithTZID(loc.String()))
}

// addTimezone writes the VTIMEZONE that DTSTART/DTEND's TZID refers to. Go
// does not expose a zone's rules, so each offset change from the year before
// around until zoneYears after it is probed and written as its own
// observance.
func addTimezone(cal *ics.Calendar, loc *time.Location, around time.Time) {
	tz := cal.AddTimezone(loc.String())
	from := time.Date(around.In(loc).Year()-1, time.January, 1, 0, 0, 0, 0, loc)
	until := from.AddDate(zoneYears+1, 0, 0)

	_, offset := from.Zone()
	addObservance(tz, from, offset)
	prev := from
	for t := from.AddDate(0, 0, 1); t.Before(until); t = t.AddDate(0, 0, 1) {
		if _, o := t.Zone(); o != offset {
			at := transition(prev, t)
			addObservance(tz, at, offset)
			_, offset = at.Zone()
		}
		prev = t
	}
}

// transition finds the first second in (lo, hi] whose offset differs from lo's.
func transition(lo, hi time.Time) time.Time {
	_, base := lo.Zone()
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, o := mid.Zone(); o == base {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// addObservance appends a STANDARD or DAYLIGHT block starting at onset.
// DTSTART is local time in the offset in force before onset.
func addObservance(tz *ics.VTimezone, onset time.Time, offsetFrom int) {
	name, offsetTo := onset.Zone()
	var c *ics.ComponentBase
	if onset.IsDST() {
		d := &ics.Daylight{}
		tz.Components = append(tz.Components, d)
		c = &d.ComponentBase
	} else {
		c = &tz.AddStandard().ComponentBase
	}
	local := onset.UTC().Add(time.Duration(offsetFrom) * time.Second)
	c.SetProperty(ics.ComponentPropertyDtStart, local.Format(localLayout))
	c.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), utcOffset(offsetFrom))
	c.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), utcOffset(offsetTo))
	c.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
}

func utcOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	h, m, sec := seconds/3600, (seconds/60)%60, seconds%60
	if sec != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, sec)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}

func summary(g listing.GameListing) string {
	if g.Competition == "" {
		return g.Venue
	}
	return g.Competition + " @ " + g.Venue
}

func location(g listing.GameListing, reg region.Region) string {
	if g.Address != "" {
		return g.Address
	}
	if v, ok := reg.Venue(g.Venue); ok && v.Address != "" {
		return v.Address
	}
	return g.Venue
}

func description(g listing.GameListing) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Buy-in", g.BuyIn)
	add("Re-buy", g.ReBuy)
	add("Starting stack", g.StartingStack)
	add("Registration", g.RegistrationTime)
	add("Late registration", g.LateRegistrationTime)
	if g.Notes != "" {
		lines = append(lines, "", g.Notes)
	}
	return strings.Join(lines, "\n")
}
