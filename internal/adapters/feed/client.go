// Package feed fetches and decodes the per-region game feeds.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pokerfinder/internal/domain/listing"
	"pokerfinder/internal/domain/region"
)

// DefaultTimeout bounds one feed request.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps a feed body.
const maxBodyBytes = 8 << 20

// ErrNoFeedURL is returned for a region without a feed.
var ErrNoFeedURL = errors.New("region has no feed URL")

// cacheEntry is the last good response for one feed URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Client fetches region feeds with conditional requests. A 304, or a
// failure while a previous body is cached, reuses the cached body.
type Client struct {
	http *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewClient creates a feed client. A nil httpClient gets DefaultTimeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{http: httpClient, cache: make(map[string]cacheEntry)}
}

// Fetch downloads and decodes a region's feed.
// PRE: r.FeedURL is set
// POST: changed is false when the listings come from the cached body
func (c *Client) Fetch(ctx context.Context, r region.Region) (listings []listing.GameListing, changed bool, err error) {
	body, fresh, err := c.fetchBody(ctx, r)
	if err != nil {
		return nil, false, err
	}
	listings, err = Decode(r.Slug, body)
	if err != nil {
		return nil, false, err
	}
	return listings, fresh, nil
}

func (c *Client) fetchBody(ctx context.Context, r region.Region) ([]byte, bool, error) {
	if r.FeedURL == "" {
		return nil, false, ErrNoFeedURL
	}

	c.mu.Lock()
	cached, hasCache := c.cache[r.FeedURL]
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.FeedURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if hasCache {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if hasCache {
			slog.Warn("feed_event", "event", "fetch_failed_using_cache", "region", r.Slug, "error", err.Error())
			return cached.body, false, nil
		}
		return nil, false, fmt.Errorf("fetch feed %s: %w", r.Slug, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, false, fmt.Errorf("read feed %s: %w", r.Slug, err)
		}
		c.mu.Lock()
		c.cache[r.FeedURL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		c.mu.Unlock()
		slog.Info("feed_event", "event", "fetched", "region", r.Slug, "bytes", len(body))
		return body, true, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, false, fmt.Errorf("feed %s: 304 without a cached body", r.Slug)
		}
		slog.Debug("feed_event", "event", "not_modified", "region", r.Slug)
		return cached.body, false, nil

	default:
		if hasCache {
			slog.Warn("feed_event", "event", "bad_status_using_cache", "region", r.Slug, "status", resp.StatusCode)
			return cached.body, false, nil
		}
		return nil, false, fmt.Errorf("feed %s: unexpected status %s", r.Slug, resp.Status)
	}
}
