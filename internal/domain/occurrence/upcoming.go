package occurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"pokerfinder/internal/domain/slot"
)

// rruleDays maps slot weekdays (Monday=1) onto rrule weekdays.
var rruleDays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// weeklyOption builds the weekly recurrence for a slot.
func weeklyOption(s slot.WeeklySlot, dtstart time.Time, count int) rrule.ROption {
	return rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Count:     count,
		Byweekday: []rrule.Weekday{rruleDays[s.Day-1]},
	}
}

// Upcoming returns the next n starts of s strictly after from.
// PRE: s is valid, loc is non-nil
// POST: Returns at most n ascending instants in loc
func Upcoming(s slot.WeeklySlot, from time.Time, loc *time.Location, n int) []time.Time {
	if n <= 0 || s.Validate() != nil {
		return nil
	}
	first := Resolve(s, from, loc, 0)
	r, err := rrule.NewRRule(weeklyOption(s, first, n))
	if err != nil {
		return nil
	}
	return r.All()
}

// RRule returns the RFC 5545 recurrence rule text for s, without DTSTART.
func RRule(s slot.WeeklySlot) string {
	opt := weeklyOption(s, time.Time{}, 0)
	return opt.RRuleString()
}
