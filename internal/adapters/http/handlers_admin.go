package web

import (
	"net/http"
	"strconv"
	"time"

	"pokerfinder/internal/application/orchestrators"
	"pokerfinder/internal/domain/region"
)

// refreshOutcome reports one region's admin-triggered refresh.
type refreshOutcome struct {
	orchestrators.RefreshFeedResult
	Error string `json:"error,omitempty"`
}

// handleAdminRefresh handles POST /api/admin/refresh[?region=slug]
func handleAdminRefresh(w http.ResponseWriter, r *http.Request) {
	if feedFetcher == nil {
		http.Error(w, "feed refresh is not configured", http.StatusServiceUnavailable)
		return
	}
	targets := regionList
	if slug := r.URL.Query().Get("region"); slug != "" {
		reg, ok := regionsBySlug[slug]
		if !ok {
			http.Error(w, "unknown region", http.StatusNotFound)
			return
		}
		targets = []region.Region{reg}
	}

	deps := orchestrators.RefreshFeedDeps{Feed: feedFetcher, ListingStore: stores.ListingStore}
	outcomes := make([]refreshOutcome, 0, len(targets))
	for _, reg := range targets {
		res, err := orchestrators.ExecuteRefreshFeed(r.Context(), reg, deps)
		o := refreshOutcome{RefreshFeedResult: res}
		if err != nil {
			o.Error = err.Error()
		}
		outcomes = append(outcomes, o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": outcomes})
}

// DefaultPerfWindow is how far back /api/admin/perf looks by default.
const DefaultPerfWindow = time.Hour

// handleAdminPerf handles GET /api/admin/perf[?minutes=N]
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection is disabled", http.StatusNotFound)
		return
	}
	window := DefaultPerfWindow
	if m, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && m > 0 {
		window = time.Duration(m) * time.Minute
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-window), 10))
}
