package projections

import (
	"time"

	"pokerfinder/internal/application/gamefilter"
	"pokerfinder/internal/domain/occurrence"
)

// GameView is one listing as the API shows it.
type GameView struct {
	ID                   string            `json:"id"`
	Venue                string            `json:"venue"`
	Competition          string            `json:"competition"`
	Day                  string            `json:"day"`
	StartTime            string            `json:"start_time"` // HH:MM or TBC
	RegistrationTime     string            `json:"registration_time,omitempty"`
	LateRegistrationTime string            `json:"late_registration_time,omitempty"`
	BuyIn                string            `json:"buy_in"`
	BuyInAmount          float64           `json:"buy_in_amount"`
	ReBuy                string            `json:"re_buy,omitempty"`
	StartingStack        string            `json:"starting_stack,omitempty"`
	IsOneOffEvent        bool              `json:"is_one_off_event"`
	EventDate            string            `json:"event_date,omitempty"`
	Address              string            `json:"address,omitempty"`
	Start                *time.Time        `json:"start,omitempty"`
	Status               occurrence.Status `json:"status"`
	Favorite             bool              `json:"favorite"`
	DistanceKm           *float64          `json:"distance_km,omitempty"`
	CanConfirm           bool              `json:"can_confirm"`
}

// newGameView flattens a pipeline result.
func newGameView(r gamefilter.Result, now time.Time, p occurrence.Policy) GameView {
	g := r.Listing
	v := GameView{
		ID:                   g.ID,
		Venue:                g.Venue,
		Competition:          g.Competition,
		Day:                  g.Weekday().String(),
		StartTime:            g.DisplayStartTime(),
		RegistrationTime:     g.RegistrationTime,
		LateRegistrationTime: g.LateRegistrationTime,
		BuyIn:                g.BuyIn,
		BuyInAmount:          g.BuyInAmount(),
		ReBuy:                g.ReBuy,
		StartingStack:        g.StartingStack,
		IsOneOffEvent:        g.IsOneOffEvent,
		EventDate:            g.EventDate,
		Address:              g.Address,
		Status:               r.Status,
		Favorite:             r.Favorite,
		DistanceKm:           r.DistanceKm,
	}
	if r.HasStart {
		start := r.Start
		v.Start = &start
		v.CanConfirm = occurrence.CanConfirm(start, now, p)
	}
	return v
}
