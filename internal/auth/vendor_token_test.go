package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVendorTokenRoundTrip(t *testing.T) {
	tokens := NewVendorTokens([]byte("0123456789abcdef0123456789abcdef"))
	tok, err := tokens.Issue("vnd--1", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	id, err := tokens.Parse(tok)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if id != "vnd--1" {
		t.Fatalf("vendor = %q, want %q", id, "vnd--1")
	}
}

func TestVendorTokenRejections(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	issued := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewVendorTokens(key)
	tokens.now = func() time.Time { return issued }
	tok, err := tokens.Issue("vnd--1", time.Minute)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	later := NewVendorTokens(key)
	later.now = func() time.Time { return issued.Add(time.Hour) }
	if _, err := later.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}

	other := NewVendorTokens([]byte("ffffffffffffffffffffffffffffffff"))
	other.now = tokens.now
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong key err = %v, want ErrInvalidToken", err)
	}

	if _, err := tokens.Issue(" ", time.Minute); err == nil {
		t.Fatal("expected error for empty vendor id")
	}
}

func TestRequireVendor(t *testing.T) {
	tokens := NewVendorTokens([]byte("0123456789abcdef0123456789abcdef"))
	tok, _ := tokens.Issue("vnd--9", 0)

	var seen string
	h := tokens.RequireVendor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VendorIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/vendor/heartbeat", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/vendor/heartbeat", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "vnd--9" {
		t.Fatalf("status = %d vendor = %q", rec.Code, seen)
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Basic abc":    "",
		"Bearer abc":   "abc",
		"BEARER  abc ": "abc",
		"Bearerabc":    "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := ExtractTokenFromHeader(req); got != want {
			t.Errorf("ExtractTokenFromHeader(%q) = %q, want %q", header, got, want)
		}
	}
}
