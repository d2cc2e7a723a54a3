// Package mapbox wraps the public map access token handed to the browser.
package mapbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNoToken     = errors.New("mapbox token not configured")
	ErrSecretToken = errors.New("mapbox secret tokens (sk.) must not be exposed to browsers")
)

type Config struct {
	AccessToken string `json:"access_token"`
	Style       string `json:"style"`
}

// NewConfig validates token. An empty token yields ErrNoToken; callers may
// treat that as "maps disabled".
func NewConfig(token, style string) (Config, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return Config{}, ErrNoToken
	case strings.HasPrefix(token, "sk."):
		return Config{}, ErrSecretToken
	case !strings.HasPrefix(token, "pk."):
		return Config{}, errors.New("mapbox token must be a public pk. token")
	}
	return Config{AccessToken: token, Style: style}, nil
}

// Handler serves the config as JSON, or 503 when maps are disabled.
func Handler(cfg Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cfg.AccessToken == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": ErrNoToken.Error()})
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=300")
		json.NewEncoder(w).Encode(cfg)
	})
}
