package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainAccount "pokerfinder/internal/domain/account"
)

// TestRateLimiter_Burst allows the burst then rejects until tokens refill.
func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request in the same instant should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other IPs have their own bucket")
	}
	now = now.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("one token should refill after a second")
	}
}

// TestRateLimiter_Sweep drops idle visitors.
func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")
	now = now.Add(time.Minute)
	rl.Allow("5.6.7.8")

	now = now.Add(visitorIdle)
	if n := rl.Sweep(); n != 1 {
		t.Errorf("Sweep dropped %d, want 1", n)
	}
}

// TestRateLimit_Middleware returns 429 with Retry-After once limited.
func TestRateLimit_Middleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(0.001, 1))(okHandler(http.StatusOK))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/games", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}
	if rr := send(); rr.Code != http.StatusOK {
		t.Fatalf("first status = %d", rr.Code)
	}
	rr := send()
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Errorf("second status = %d, Retry-After %q", rr.Code, rr.Header().Get("Retry-After"))
	}
}

// TestSessionStore_Lifecycle covers create, get, expiry and delete.
func TestSessionStore_Lifecycle(t *testing.T) {
	ss := NewSessionStore()
	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, err := ss.Create("acct-1", "Sam", domainAccount.RolePlayer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, ok := ss.Get(token)
	if !ok || s.AccountID != "acct-1" || s.DisplayName != "Sam" {
		t.Fatalf("Get = %+v, %v", s, ok)
	}

	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("deleted session still found")
	}

	token, _ = ss.Create("acct-1", "Sam", domainAccount.RolePlayer)
	now = now.Add(SessionTTL + time.Minute)
	if _, ok := ss.Get(token); ok {
		t.Error("expired session still found")
	}
}

// TestAuth_RequireRole covers anonymous, player and admin callers.
func TestAuth_RequireRole(t *testing.T) {
	ss := NewSessionStore()
	playerToken, _ := ss.Create("p1", "Pat", domainAccount.RolePlayer)
	adminToken, _ := ss.Create("a1", "Ari", domainAccount.RoleAdmin)
	handler := Chain(okHandler(http.StatusOK), RequireAdmin, Auth(ss))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"player", playerToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/admin/refresh", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.token})
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// TestCSRF_JSONExempt lets JSON posts through and blocks token-less form posts.
func TestCSRF_JSONExempt(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	handler := CSRF(key, false, nil)(okHandler(http.StatusOK))

	req := httptest.NewRequest("POST", "http://localhost/api/favorites", strings.NewReader(`{"venue":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("JSON post status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("POST", "http://localhost/api/favorites", strings.NewReader("venue=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form post status = %d, want 403", rr.Code)
	}
}

// TestCSRF_BodilessPostNeedsJSONType blocks empty posts without the JSON content type.
func TestCSRF_BodilessPostNeedsJSONType(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	handler := CSRF(key, false, nil)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "http://localhost/api/logout", nil))
	if rr.Code != http.StatusForbidden {
		t.Errorf("untyped empty post status = %d, want 403", rr.Code)
	}

	req := httptest.NewRequest("POST", "http://localhost/api/logout", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("typed empty post status = %d, want 200", rr.Code)
	}
}

// TestSecurityHeaders sets the fixed header set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler(http.StatusOK)).ServeHTTP(rr, httptest.NewRequest("GET", "/api/regions", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}
