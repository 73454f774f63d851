package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pokerfinder/internal/adapters/calendar"
	"pokerfinder/internal/adapters/http/middleware"
	"pokerfinder/internal/application/listutil"
	"pokerfinder/internal/application/orchestrators"
	"pokerfinder/internal/application/projections"
	"pokerfinder/internal/domain/confirmation"
	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// RetryAfterSeconds is sent with 503 responses from the confirmation engine.
const RetryAfterSeconds = "30"

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// unavailable reports a transient storage failure the client may retry.
func unavailable(w http.ResponseWriter, err error) {
	slog.Error("confirm_event", "event", "store_unavailable", "error", err.Error())
	w.Header().Set("Retry-After", RetryAfterSeconds)
	http.Error(w, orchestrators.ErrConfirmationUnavailable.Error(), http.StatusServiceUnavailable)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_error", "error", err.Error())
	}
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// handleRegions handles GET /api/regions
func handleRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, regionList)
}

// requestRegion picks the region named by ?region=. With a single
// configured region the parameter is optional.
func requestRegion(r *http.Request) (region.Region, bool) {
	slug := r.URL.Query().Get("region")
	if slug == "" && len(regionList) == 1 {
		return regionList[0], true
	}
	reg, ok := regionsBySlug[slug]
	return reg, ok
}

// accountID returns the caller's account, or "" when anonymous.
func accountID(r *http.Request) string {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return sess.AccountID
	}
	return ""
}

// gamesResponse is one page of a day view.
type gamesResponse struct {
	projections.GamesView
	Page listutil.PageInfo `json:"page"`
}

// handleGames handles GET /api/games
func handleGames(w http.ResponseWriter, r *http.Request) {
	reg, ok := requestRegion(r)
	if !ok {
		http.Error(w, "unknown region", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	now := timeNow().In(reg.Location())

	view, err := projections.QueryGetGames(r.Context(), now, projections.GetGamesInput{
		Region:    reg,
		Day:       listutil.ParseDay(q.Get("day"), now),
		Criteria:  listutil.ParseCriteria(q),
		User:      listutil.ParseUserCoordinate(q),
		AccountID: accountID(r),
	}, projections.GetGamesDeps{
		ListingStore:  stores.ListingStore,
		FavoriteStore: stores.FavoriteStore,
		Policy:        policy,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	resp := gamesResponse{GamesView: view}
	resp.Games, resp.Page = listutil.Paginate(view.Games, listutil.ParsePageParams(q))
	writeJSON(w, http.StatusOK, resp)
}

// loadGame fetches the listing named in the path along with its region.
// Writes 404 and returns false when either is missing.
func loadGame(w http.ResponseWriter, r *http.Request) (listing.GameListing, region.Region, bool) {
	g, err := stores.ListingStore.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "game not found", http.StatusNotFound)
		return listing.GameListing{}, region.Region{}, false
	}
	if err != nil {
		internalError(w, err)
		return listing.GameListing{}, region.Region{}, false
	}
	reg, ok := regionsBySlug[g.Region]
	if !ok {
		slog.Warn("listing_orphaned", "id", g.ID, "region", g.Region)
		http.Error(w, "game not found", http.StatusNotFound)
		return listing.GameListing{}, region.Region{}, false
	}
	return g, reg, true
}

// handleGameDetail handles GET /api/games/{id}
func handleGameDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := projections.QueryGetGameDetail(r.Context(), timeNow(), r.PathValue("id"), projections.GetGameDetailDeps{
		ListingStore: stores.ListingStore,
		Regions:      regionsBySlug,
		Policy:       policy,
	})
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, projections.ErrUnknownRegion) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleGameCalendar handles GET /api/games/{id}/calendar.ics
func handleGameCalendar(w http.ResponseWriter, r *http.Request) {
	g, reg, ok := loadGame(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := calendar.WriteGameICS(&buf, g, reg, timeNow(), policy.CompletedAfter)
	if errors.Is(err, occurrence.ErrUnresolvable) {
		http.Error(w, "game has no start time yet", http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+g.ID+`.ics"`)
	w.Write(buf.Bytes())
}

// confirmationView is the public face of an aggregate. User IDs stay private.
type confirmationView struct {
	Count           int        `json:"count"`
	Names           []string   `json:"names"`
	ConfirmedByMe   bool       `json:"confirmed_by_me"`
	LastConfirmedAt *time.Time `json:"last_confirmed_at,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

func newConfirmationView(a confirmation.Aggregate, present bool, userID string) confirmationView {
	v := confirmationView{Names: []string{}}
	if !present {
		return v
	}
	v.Count = a.Count
	for _, e := range a.Entries {
		v.Names = append(v.Names, e.DisplayName)
	}
	v.ConfirmedByMe = userID != "" && a.HasUser(userID)
	if !a.LastConfirmedAt.IsZero() {
		last := a.LastConfirmedAt
		v.LastConfirmedAt = &last
	}
	expires := a.ExpiresAt
	v.ExpiresAt = &expires
	return v
}

// handleGameConfirmations handles GET /api/games/{id}/confirmations
func handleGameConfirmations(w http.ResponseWriter, r *http.Request) {
	g, reg, ok := loadGame(w, r)
	if !ok {
		return
	}
	agg, present, err := projections.QueryGetConfirmations(r.Context(), timeNow(), g, projections.GetConfirmationsDeps{
		ConfirmationStore: stores.ConfirmationStore,
		Location:          reg.Location(),
		Policy:            policy,
	})
	if err != nil {
		unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConfirmationView(agg, present, accountID(r)))
}

// handleConfirmGame handles POST /api/games/{id}/confirm
// The body is empty but the request must carry Content-Type: application/json;
// without it the CSRF middleware treats it as a form post and answers 403.
func handleConfirmGame(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	g, reg, ok := loadGame(w, r)
	if !ok {
		return
	}
	now := timeNow()
	loc := reg.Location()

	occ, err := occurrence.ResolveListing(g, now, loc, policy.ConfirmableFor)
	if errors.Is(err, occurrence.ErrUnresolvable) {
		http.Error(w, "game has no start time yet", http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if !occurrence.CanConfirm(occ.Start, now, policy) {
		http.Error(w, "game is not open for confirmation", http.StatusConflict)
		return
	}

	agg, err := orchestrators.ExecuteConfirmGame(r.Context(), orchestrators.ConfirmGameInput{
		Listing:     g,
		UserID:      sess.AccountID,
		DisplayName: sess.DisplayName,
	}, orchestrators.ConfirmGameDeps{
		ConfirmationStore: stores.ConfirmationStore,
		Location:          loc,
		Policy:            policy,
		Now:               func() time.Time { return now },
	})
	switch {
	case errors.Is(err, orchestrators.ErrEventEnded):
		http.Error(w, err.Error(), http.StatusGone)
		return
	case errors.Is(err, orchestrators.ErrConfirmationUnavailable):
		unavailable(w, err)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConfirmationView(agg, true, sess.AccountID))
}
