package confirmation

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyUserID   = errors.New("confirmation must be associated with a user")
	ErrEmptyIdentity = errors.New("confirmation must reference an occurrence identity")
	ErrEmptyBucket   = errors.New("confirmation must reference a week bucket")
)

// Entry is one user's confirmation that a game ran.
type Entry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Aggregate is the crowd-confirmation record for one weekly occurrence.
// INVARIANT: at most one Entry per UserID; Count == len(Entries)
type Aggregate struct {
	Key             string    `json:"key"`
	Identity        string    `json:"identity"`
	WeekBucket      string    `json:"week_bucket"`
	ListingID       string    `json:"listing_id"`
	Entries         []Entry   `json:"confirmations"`
	Count           int       `json:"count"`
	LastConfirmedAt time.Time `json:"last_confirmed_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Key builds the document key for an occurrence identity and week bucket.
func Key(identity, weekBucket string) string {
	return identity + "-" + weekBucket
}

// Validate checks if the Aggregate has valid identifying data.
// PRE: Aggregate struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Aggregate) Validate() error {
	if strings.TrimSpace(a.Identity) == "" {
		return ErrEmptyIdentity
	}
	if strings.TrimSpace(a.WeekBucket) == "" {
		return ErrEmptyBucket
	}
	return nil
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUserID
	}
	return nil
}

// IsExpired reports whether the aggregate is logically dead at now.
// An expired aggregate stays in storage but reads as absent.
func (a *Aggregate) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// HasUser reports whether userID already confirmed this occurrence.
func (a *Aggregate) HasUser(userID string) bool {
	for _, e := range a.Entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}
