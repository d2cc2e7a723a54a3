package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "sectorgate"
	tokenAudience = "vendor-heartbeat"
)

// ErrInvalidToken is returned for any vendor token that fails verification.
var ErrInvalidToken = errors.New("invalid vendor token")

// VendorTokens issues and verifies HS256 vendor bearer tokens.
type VendorTokens struct {
	key []byte
	now func() time.Time
}

func NewVendorTokens(key []byte) *VendorTokens {
	return &VendorTokens{key: key, now: time.Now}
}

// Issue returns a token whose subject is vendorID.
func (v *VendorTokens) Issue(vendorID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(vendorID) == "" {
		return "", fmt.Errorf("vendor id is required")
	}
	now := v.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:   tokenIssuer,
		Subject:  vendorID,
		Audience: jwt.ClaimStrings{tokenAudience},
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
	if err != nil {
		return "", fmt.Errorf("sign vendor token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the vendor id.
func (v *VendorTokens) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RequireVendor rejects requests without a valid bearer token.
func (v *VendorTokens) RequireVendor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractTokenFromHeader(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="sectorgate"`)
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		vendorID, err := v.Parse(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithVendorID(r.Context(), vendorID)))
	})
}

// ExtractTokenFromHeader extracts the token from the Authorization header.
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
