// Package auth authenticates dashboard admins through a cookie session and
// vendors through signed bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/sectorgate/internal/crypto"
	"github.com/harrylevesque/sectorgate/internal/models"
)

const (
	sessionName    = "sectorgate_session"
	keyAdminID     = "admin_id"
	keyAuthedAt    = "authed_at"
	minPasswordLen = 10
)

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned when the request carries no admin session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrWeakPassword is returned when a new password is too short.
	ErrWeakPassword = errors.New("password too short")
)

// AdminStore looks admins up.
type AdminStore interface {
	AdminByUsername(ctx context.Context, username string) (models.Admin, error)
	AdminByID(ctx context.Context, id string) (models.Admin, error)
}

// Auth provides admin session management.
type Auth struct {
	admins AdminStore
	store  sessions.Store
	now    func() time.Time
}

// New creates a new Auth instance.
func New(admins AdminStore, store sessions.Store) *Auth {
	return &Auth{admins: admins, store: store, now: time.Now}
}

// NewCookieStore builds the encrypted cookie store from derived keys.
func NewCookieStore(keys crypto.Keys, ttl time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(keys.SessionHash, keys.SessionBlock)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// dummyHash keeps the cost of a failed lookup equal to a failed compare.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sectorgate-dummy-password"), bcrypt.DefaultCost)

// Login checks credentials and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request, username, password string) (models.Admin, error) {
	admin, err := a.admins.AdminByUsername(r.Context(), username)
	if err != nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return models.Admin{}, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, admin.PasswordHash) {
		return models.Admin{}, ErrInvalidCredentials
	}

	session, err := a.store.New(r, sessionName)
	if err != nil && session == nil {
		return models.Admin{}, fmt.Errorf("new session: %w", err)
	}
	session.Values[keyAdminID] = admin.ID
	session.Values[keyAuthedAt] = a.now().UTC().Unix()
	if err := a.store.Save(r, w, session); err != nil {
		return models.Admin{}, fmt.Errorf("save session: %w", err)
	}
	return admin, nil
}

// Logout expires the session cookie.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) error {
	session, err := a.store.Get(r, sessionName)
	if err != nil && session == nil {
		return err
	}
	session.Options.MaxAge = -1
	delete(session.Values, keyAdminID)
	return a.store.Save(r, w, session)
}

// CurrentAdmin returns the admin behind the request's session. The admin row
// is re-read so clearance changes apply without a new login.
func (a *Auth) CurrentAdmin(r *http.Request) (models.Admin, error) {
	if admin, ok := AdminFromContext(r.Context()); ok {
		return admin, nil
	}
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return models.Admin{}, ErrSessionNotFound
	}
	id, ok := session.Values[keyAdminID].(string)
	if !ok || id == "" {
		return models.Admin{}, ErrSessionNotFound
	}
	admin, err := a.admins.AdminByID(r.Context(), id)
	if err != nil {
		return models.Admin{}, ErrSessionNotFound
	}
	return admin, nil
}

// IsGhostAdmin reports whether the viewer holds ghost clearance. Anonymous
// viewers and lookup failures report false.
func (a *Auth) IsGhostAdmin(r *http.Request) bool {
	admin, err := a.CurrentAdmin(r)
	return err == nil && admin.GhostClearance
}

// RequireAdmin redirects anonymous browsers to loginURL and answers API
// callers with 401.
func (a *Auth) RequireAdmin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := a.CurrentAdmin(r)
			if err != nil {
				if r.Method == http.MethodGet {
					http.Redirect(w, r, loginURL, http.StatusFound)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// HashPassword hashes a password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash checks a password hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
