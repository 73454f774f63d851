package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week, Monday first.
type Weekday int

// Day of week constants
const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ValidDays contains all valid day values in display order.
var ValidDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = map[Weekday]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
}

// Domain errors
var (
	ErrInvalidDay       = errors.New("day must be a valid day of the week")
	ErrInvalidTimeOfDay = errors.New("time must be in HH:MM format")
)

// ParseWeekday accepts full or three-letter day names in any case.
// PRE: none
// POST: Returns the Weekday or ErrInvalidDay
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, ErrInvalidDay
	}
	for _, d := range ValidDays {
		name := dayNames[d]
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, ErrInvalidDay
}

// FromTime converts a standard library weekday.
func FromTime(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d)
}

// Time converts back to a standard library weekday.
func (d Weekday) Time() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

// Valid reports whether d is one of the seven days.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the lower-case day name.
func (d Weekday) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "weekday(" + strconv.Itoa(int(d)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrInvalidDay
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time with minute precision and no date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" or "H:MM".
// PRE: none
// POST: Returns a valid TimeOfDay or ErrInvalidTimeOfDay
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

// Valid reports whether the hour and minute are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Minutes()) * time.Minute
}

// String formats as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On combines t with the calendar date of d in loc.
// PRE: loc is non-nil
// POST: Returns the instant of t on that date
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	d = d.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Of extracts the time of day from an instant.
func Of(ts time.Time) TimeOfDay {
	return TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute()}
}

// WeeklySlot represents a recurring weekly start time.
type WeeklySlot struct {
	Day   Weekday
	Start TimeOfDay
}

// Validate checks if the WeeklySlot has valid data.
// PRE: WeeklySlot struct is populated
// POST: Returns nil if valid, error otherwise
func (s WeeklySlot) Validate() error {
	if !s.Day.Valid() {
		return ErrInvalidDay
	}
	if !s.Start.Valid() {
		return ErrInvalidTimeOfDay
	}
	return nil
}

// String formats as "friday 19:00".
func (s WeeklySlot) String() string {
	return s.Day.String() + " " + s.Start.String()
}
