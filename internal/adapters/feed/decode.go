package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/slot"
)

// ErrNotArray is returned when the feed body is not a JSON array.
var ErrNotArray = errors.New("feed body must be a JSON array")

// listingNamespace scopes deterministic listing IDs.
var listingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pokerfinder/listing"))

// record is one untyped feed entry.
type record map[string]any

// Decode parses a region's feed. Records that cannot be turned into a valid
// listing are logged and skipped so one bad row never drops the feed.
// PRE: regionSlug is non-empty
// POST: Returns only validated listings, each with a deterministic ID
func Decode(regionSlug string, body []byte) ([]listing.GameListing, error) {
	var records []record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotArray, err)
	}

	out := make([]listing.GameListing, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		g, err := r.toListing(regionSlug)
		if err != nil {
			slog.Warn("feed_event", "event", "record_skipped", "region", regionSlug, "index", i, "reason", err.Error())
			continue
		}
		if seen[g.ID] {
			slog.Warn("feed_event", "event", "record_duplicate", "region", regionSlug, "index", i, "id", g.ID)
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	return out, nil
}

func (r record) toListing(regionSlug string) (listing.GameListing, error) {
	g := listing.GameListing{
		Region:               regionSlug,
		Venue:                r.str("venue"),
		Competition:          r.str("competition", "game", "gameType", "game_type"),
		StartTime:            r.str("startTime", "start_time", "time"),
		RegistrationTime:     r.str("registrationTime", "registration_time"),
		LateRegistrationTime: r.str("lateRegistrationTime", "late_registration_time", "lateReg"),
		BuyIn:                r.str("buyIn", "buy_in"),
		ReBuy:                r.str("reBuy", "re_buy", "rebuy"),
		StartingStack:        r.str("startingStack", "starting_stack"),
		IsOneOffEvent:        r.boolean("isOneOffEvent", "is_one_off_event", "oneOff"),
		EventDate:            r.str("eventDate", "event_date"),
		Address:              r.str("location", "address"),
		Notes:                r.str("notes", "description"),
	}
	if day := r.str("day", "weekday"); day != "" {
		d, err := parseDay(day)
		if err != nil && !g.IsOneOffEvent {
			return listing.GameListing{}, err
		}
		g.Day = d
	}
	if g.IsOneOffEvent {
		if d, ok := g.EventDay(); ok {
			g.Day = slot.FromTime(d.Weekday())
		}
	}
	if err := g.Validate(); err != nil {
		return listing.GameListing{}, err
	}
	g.ID = ListingID(g)
	return g, nil
}

// ListingID derives a stable UUIDv5 from what identifies a game, so a
// re-import of the same feed yields the same IDs.
func ListingID(g listing.GameListing) string {
	key, ok := occurrence.IdentityOf(g)
	if !ok {
		key = strings.ToLower(strings.Join([]string{g.Venue, g.Competition, g.Day.String(), g.StartTime}, "|"))
	}
	name := g.Region + "/" + key
	if g.IsOneOffEvent {
		name += "/" + strings.TrimSpace(g.EventDate)
	}
	return uuid.NewSHA1(listingNamespace, []byte(name)).String()
}

func parseDay(s string) (slot.Weekday, error) {
	if n, err := strconv.Atoi(s); err == nil {
		d := slot.Weekday(n)
		if !d.Valid() {
			return 0, slot.ErrInvalidDay
		}
		return d, nil
	}
	return slot.ParseWeekday(s)
}

// str returns the first present key rendered as a trimmed string.
// Numbers keep their natural form, so a buy-in of 30 becomes "30".
func (r record) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case float64:
			if t == math.Trunc(t) && math.Abs(t) < 1e15 {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}

// boolean accepts true, "true", "yes", "1" and 1.
func (r record) boolean(keys ...string) bool {
	for _, k := range keys {
		switch t := r[k].(type) {
		case bool:
			return t
		case float64:
			return t != 0
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "y", "1":
				return true
			}
			return false
		}
	}
	return false
}
