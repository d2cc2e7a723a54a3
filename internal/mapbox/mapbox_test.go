package mapbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewConfig(t *testing.T) {
	if _, err := NewConfig("", "s"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("empty token err = %v", err)
	}
	if _, err := NewConfig("sk.secret", "s"); !errors.Is(err, ErrSecretToken) {
		t.Fatalf("secret token err = %v", err)
	}
	if _, err := NewConfig("abc", "s"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	cfg, err := NewConfig(" pk.public ", "mapbox://styles/x")
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}
	if cfg.AccessToken != "pk.public" {
		t.Fatalf("AccessToken = %q", cfg.AccessToken)
	}
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(Config{AccessToken: "pk.x", Style: "s"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/map/config", nil))
	var got Config
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AccessToken != "pk.x" || got.Style != "s" {
		t.Fatalf("got = %+v", got)
	}

	rec = httptest.NewRecorder()
	Handler(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/map/config", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
