package listutil

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"pokerfinder/internal/application/gamefilter"
	"pokerfinder/internal/domain/geo"
	"pokerfinder/internal/domain/slot"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// PageInfo carries pagination metadata for API responses.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 50

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseCriteria builds filter criteria from the games query string:
// q, min, max, competition (repeatable or comma separated), bucket,
// favorites, soon and sort=distance. Malformed values are ignored.
// PRE: none
// POST: returns Criteria; never fails
func ParseCriteria(q url.Values) gamefilter.Criteria {
	c := gamefilter.Criteria{
		Search:         strings.TrimSpace(q.Get("q")),
		BuyInMin:       parseAmount(q.Get("min")),
		BuyInMax:       parseAmount(q.Get("max")),
		TimeBucket:     gamefilter.ParseTimeBucket(q.Get("bucket")),
		FavoritesOnly:  parseBool(q.Get("favorites")),
		StartingSoon:   parseBool(q.Get("soon")),
		SortByDistance: strings.EqualFold(q.Get("sort"), "distance"),
	}
	for _, raw := range q["competition"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				if c.Competitions == nil {
					c.Competitions = make(map[string]bool)
				}
				c.Competitions[name] = true
			}
		}
	}
	return c
}

// ParseUserCoordinate reads lat and lng. Returns nil unless both are
// present and in range.
func ParseUserCoordinate(q url.Values) *geo.Coordinate {
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}
	return &geo.Coordinate{Lat: lat, Lng: lng}
}

// ParseDay resolves the day being viewed. Accepts a date (YYYY-MM-DD) or a
// weekday name, which means the next such day on or after today. Anything
// else is today.
// PRE: now is expressed in the region's location
// POST: returns midnight of the chosen day in now's location
func ParseDay(raw string, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today
	}
	if d, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return d
	}
	if wd, err := slot.ParseWeekday(raw); err == nil {
		ahead := (int(wd.Time()) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, ahead)
	}
	return today
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0, perPage > 0, page >= 1
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first row on the current page.
// PRE: PageInfo is valid
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// EndRow returns the index one past the last row on the current page.
// PRE: PageInfo is valid
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// Paginate returns the slice of items on the requested page.
func Paginate[T any](items []T, params PageParams) ([]T, PageInfo) {
	info := NewPageInfo(params.Page, params.PerPage, len(items))
	return items[info.Offset():info.EndRow()], info
}

func parseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
