package occurrence

import (
	"fmt"
	"math"
	"time"
)

// State is the temporal classification of an occurrence.
type State string

// State constants
const (
	StateUpcoming     State = "upcoming"
	StateStartingSoon State = "starting_soon"
	StateInProgress   State = "in_progress"
	StateCompleted    State = "completed"
)

// Policy holds the four time thresholds. They are deliberately separate
// values even where they currently match.
type Policy struct {
	ConfirmationExpiry time.Duration // aggregate lifetime after start; also the rollover window
	CompletedAfter     time.Duration // display switches to Completed
	ConfirmableFor     time.Duration // confirm action stays available after start
	StartingSoonWithin time.Duration // lead time counted as "starting soon"
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ConfirmationExpiry: 6 * time.Hour,
		CompletedAfter:     5 * time.Hour,
		ConfirmableFor:     5 * time.Hour,
		StartingSoonWithin: 2 * time.Hour,
	}
}

// Status is the classification plus display text.
type Status struct {
	State        State  `json:"state"`
	MinutesUntil int    `json:"minutes_until"` // negative once started
	Label        string `json:"label"`
}

// minutesUntil floors start-now to whole minutes. Display only; the
// thresholds compare durations.
func minutesUntil(start, now time.Time) int {
	return int(math.Floor(start.Sub(now).Minutes()))
}

// Classify derives the display state of an occurrence starting at start.
// Precedence: Completed, In Progress, Starting Soon, Upcoming.
// PRE: start and now are comparable instants
// POST: Returns exactly one state
func Classify(start, now time.Time, p Policy) Status {
	until := start.Sub(now)
	diff := minutesUntil(start, now)
	switch {
	case until <= -p.CompletedAfter:
		return Status{State: StateCompleted, MinutesUntil: diff, Label: "Completed"}
	case until < 0:
		return Status{State: StateInProgress, MinutesUntil: diff, Label: "In progress"}
	case until <= p.StartingSoonWithin:
		return Status{State: StateStartingSoon, MinutesUntil: diff, Label: "Starting soon · " + formatRemaining(diff)}
	default:
		return Status{State: StateUpcoming, MinutesUntil: diff, Label: "Starts in " + formatRemaining(diff)}
	}
}

// IsStartingSoon reports whether start is within the starting-soon lead time.
func IsStartingSoon(start, now time.Time, p Policy) bool {
	until := start.Sub(now)
	return until >= 0 && until <= p.StartingSoonWithin
}

// CanConfirm reports whether the confirm action is available for an
// occurrence starting at start. Checked independently of Classify.
func CanConfirm(start, now time.Time, p Policy) bool {
	until := start.Sub(now)
	return until >= -p.ConfirmableFor && until <= p.StartingSoonWithin
}

func formatRemaining(minutes int) string {
	if minutes <= 0 {
		return "now"
	}
	d, h, m := minutes/(24*60), (minutes/60)%24, minutes%60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
