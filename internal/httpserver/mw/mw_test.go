package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jamezpolley/stashboard/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestRequireToken(t *testing.T) {
	h := RequireToken("s3cret", logger.NewNop())(ok)

	tests := []struct {
		name     string
		header   string
		value    string
		expected int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "X-Stashboard-Token", "nope", http.StatusUnauthorized},
		{"custom header", "X-Stashboard-Token", "s3cret", http.StatusOK},
		{"bearer", "Authorization", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/notify", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("status = %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestRequireTokenDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireToken("", logger.NewNop())(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.5"}, true, logger.NewNop())(ok)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		expected   int
	}{
		{"cidr match", "10.1.2.3:5000", "", http.StatusOK},
		{"exact match", "192.168.1.5:5000", "", http.StatusOK},
		{"rejected", "8.8.8.8:5000", "", http.StatusForbidden},
		{"forwarded client", "127.0.0.1:5000", "10.9.9.9, 127.0.0.1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("status = %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := RateLimitConfig{Burst: 2, RefillPerMin: 60, now: func() time.Time { return now }}
	h := RateLimit(cfg)(ok)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/command", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("1.1.1.1:1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := send("1.1.1.1:1")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "1" {
		t.Errorf("third request status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if rec := send("2.2.2.2:1"); rec.Code != http.StatusOK {
		t.Errorf("other client throttled: %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := send("1.1.1.1:1"); rec.Code != http.StatusOK {
		t.Errorf("request after refill status = %d", rec.Code)
	}
}
