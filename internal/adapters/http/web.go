package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"pokerfinder/internal/adapters/http/middleware"
	"pokerfinder/internal/adapters/http/perf"
	accountStore "pokerfinder/internal/adapters/storage/account"
	confirmationStore "pokerfinder/internal/adapters/storage/confirmation"
	favoriteStore "pokerfinder/internal/adapters/storage/favorite"
	listingStore "pokerfinder/internal/adapters/storage/listing"
	"pokerfinder/internal/application/orchestrators"
	"pokerfinder/internal/domain/occurrence"
	"pokerfinder/internal/domain/region"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore      accountStore.Store
	ListingStore      listingStore.Store
	FavoriteStore     favoriteStore.Store
	ConfirmationStore confirmationStore.Store
}

// Options configures NewMux.
type Options struct {
	Regions            []region.Region
	Policy             occurrence.Policy
	Feed               orchestrators.FeedFetcher
	Collector          *perf.Collector
	CSRFKey            []byte
	TrustedOrigins     []string
	Production         bool
	SlowRequest        time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// ErrBadCSRFKey is returned by LoadCSRFKey for a malformed or missing key.
var ErrBadCSRFKey = errors.New("POKER_CSRF_KEY must be 64 hex characters (32 bytes)")

// LoadCSRFKey decodes the hex CSRF secret. Production requires one; in
// development a random key is generated per startup.
func LoadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrBadCSRFKey
		}
		return key, nil
	}
	if production {
		return nil, ErrBadCSRFKey
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_generated", "reason", "POKER_CSRF_KEY unset; sessions won't survive restart")
	return key, nil
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Configured regions, by slug and in file order.
var (
	regionsBySlug map[string]region.Region
	regionList    []region.Region
)

// policy holds the occurrence thresholds.
var policy occurrence.Policy

// feedFetcher backs the admin refresh endpoint.
var feedFetcher orchestrators.FeedFetcher

// DefaultRateLimitPerSecond is the per-IP rate when Options leaves it zero.
const DefaultRateLimitPerSecond = 10

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	perfCollector = opts.Collector
	policy = opts.Policy
	feedFetcher = opts.Feed
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.Production

	regionList = opts.Regions
	regionsBySlug = make(map[string]region.Region, len(opts.Regions))
	for _, r := range opts.Regions {
		regionsBySlug[r.Slug] = r
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	perSecond := opts.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = DefaultRateLimitPerSecond
	}
	burst := opts.RateLimitBurst
	if burst <= 0 {
		burst = int(perSecond) * 2
	}
	limiter := middleware.NewRateLimiter(perSecond, burst)
	limiter.SweepEvery(time.Minute)

	// Applied inner to outer: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Production, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}

// route registers h under pattern and labels it for request timing.
func route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.SetRoute(r)
		h.ServeHTTP(w, r)
	}))
}

// registerRoutes lists every API endpoint.
func registerRoutes(mux *http.ServeMux) {
	route(mux, "GET /healthz", http.HandlerFunc(handleHealthz))
	route(mux, "GET /api/regions", http.HandlerFunc(handleRegions))

	route(mux, "GET /api/games", http.HandlerFunc(handleGames))
	route(mux, "GET /api/games/{id}", http.HandlerFunc(handleGameDetail))
	route(mux, "GET /api/games/{id}/calendar.ics", http.HandlerFunc(handleGameCalendar))
	route(mux, "GET /api/games/{id}/confirmations", http.HandlerFunc(handleGameConfirmations))
	route(mux, "POST /api/games/{id}/confirm", middleware.RequireAuth(http.HandlerFunc(handleConfirmGame)))

	route(mux, "POST /api/register", http.HandlerFunc(handleRegister))
	route(mux, "POST /api/login", http.HandlerFunc(handleLogin))
	route(mux, "POST /api/logout", http.HandlerFunc(handleLogout))

	route(mux, "GET /api/favorites", middleware.RequireAuth(http.HandlerFunc(handleListFavorites)))
	route(mux, "POST /api/favorites", middleware.RequireAuth(http.HandlerFunc(handleAddFavorite)))
	route(mux, "DELETE /api/favorites", middleware.RequireAuth(http.HandlerFunc(handleRemoveFavorite)))

	route(mux, "POST /api/admin/refresh", middleware.RequireAdmin(http.HandlerFunc(handleAdminRefresh)))
	route(mux, "GET /api/admin/perf", middleware.RequireAdmin(http.HandlerFunc(handleAdminPerf)))
}
