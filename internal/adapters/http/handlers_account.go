package web

import (
	"errors"
	"net/http"
	"strings"

	"pokerfinder/internal/adapters/http/middleware"
	"pokerfinder/internal/application/orchestrators"
	accountDomain "pokerfinder/internal/domain/account"
	"pokerfinder/internal/domain/region"
)

// accountResponse identifies the signed-in player.
type accountResponse struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// validationErrors are account problems the caller can fix.
var validationErrors = []error{
	accountDomain.ErrInvalidEmail,
	accountDomain.ErrEmptyEmail,
	accountDomain.ErrEmailTooLong,
	accountDomain.ErrEmptyDisplayName,
	accountDomain.ErrDisplayNameTooLong,
	accountDomain.ErrEmptyPassword,
	accountDomain.ErrPasswordTooShort,
}

func isValidationError(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// startSession creates a session and sets its cookie.
func startSession(w http.ResponseWriter, id, displayName, role string) bool {
	token, err := sessions.Create(id, displayName, role)
	if err != nil {
		internalError(w, err)
		return false
	}
	middleware.SetSessionCookie(w, token)
	return true
}

// handleRegister handles POST /api/register
func handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deps := orchestrators.RegisterAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	}
	id, err := orchestrators.ExecuteRegisterAccount(r.Context(), orchestrators.RegisterAccountInput{
		Email:       body.Email,
		DisplayName: body.DisplayName,
		Password:    body.Password,
	}, deps)
	switch {
	case errors.Is(err, orchestrators.ErrEmailAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	acct, err := stores.AccountStore.GetByID(r.Context(), id)
	if err != nil {
		internalError(w, err)
		return
	}
	if !startSession(w, acct.ID, acct.DisplayName, acct.Role) {
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{AccountID: acct.ID, DisplayName: acct.DisplayName, Role: acct.Role})
}

// handleLogin handles POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    strings.ToLower(strings.TrimSpace(body.Email)),
		Password: body.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrAccountLocked):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	if !startSession(w, result.AccountID, result.DisplayName, result.Role) {
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{AccountID: result.AccountID, DisplayName: result.DisplayName, Role: result.Role})
}

// handleLogout handles POST /api/logout
// Like confirm, it needs Content-Type: application/json to pass CSRF.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// favoriteRequest names a venue to add or remove.
type favoriteRequest struct {
	Venue string `json:"venue"`
}

// decodeFavorite reads and normalizes the venue from the body.
func decodeFavorite(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body favoriteRequest
	if err := strictDecode(r, &body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	venue := region.NormalizeVenue(body.Venue)
	if venue == "" {
		http.Error(w, "venue is required", http.StatusBadRequest)
		return "", false
	}
	return venue, true
}

// handleListFavorites handles GET /api/favorites
func handleListFavorites(w http.ResponseWriter, r *http.Request) {
	venues, err := stores.FavoriteStore.ListVenues(r.Context(), accountID(r))
	if err != nil {
		internalError(w, err)
		return
	}
	if venues == nil {
		venues = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"venues": venues})
}

// handleAddFavorite handles POST /api/favorites
func handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	venue, ok := decodeFavorite(w, r)
	if !ok {
		return
	}
	if err := stores.FavoriteStore.Add(r.Context(), accountID(r), venue); err != nil {
		internalError(w, err)
		return
	}
	handleListFavorites(w, r)
}

// handleRemoveFavorite handles DELETE /api/favorites
func handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	venue, ok := decodeFavorite(w, r)
	if !ok {
		return
	}
	if err := stores.FavoriteStore.Remove(r.Context(), accountID(r), venue); err != nil {
		internalError(w, err)
		return
	}
	handleListFavorites(w, r)
}
