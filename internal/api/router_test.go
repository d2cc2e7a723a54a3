package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/crypto"
	"github.com/harrylevesque/sectorgate/internal/files"
	"github.com/harrylevesque/sectorgate/internal/gate"
	"github.com/harrylevesque/sectorgate/internal/heartbeat"
	"github.com/harrylevesque/sectorgate/internal/mapbox"
	"github.com/harrylevesque/sectorgate/internal/metrics"
	"github.com/harrylevesque/sectorgate/internal/models"
	"github.com/harrylevesque/sectorgate/internal/sms"
	"github.com/harrylevesque/sectorgate/internal/storage"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, to, body string) (sms.Receipt, error) {
	f.sent = append(f.sent, to)
	if f.err != nil {
		return sms.Receipt{}, f.err
	}
	return sms.Receipt{ProviderID: "SM42", Status: "queued"}, nil
}

type testEnv struct {
	router *mux.Router
	store  *storage.Store
	site   *files.SiteStore
	tokens *auth.VendorTokens
	sender *fakeSender
}

const testPassword = "correct horse battery"

func newTestEnv(t *testing.T, siteYAML string) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("storage.Open() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateAdmin(ctx, models.Admin{Username: "ghost", PasswordHash: hash, GhostClearance: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateAdmin(ctx, models.Admin{Username: "ops", PasswordHash: hash}); err != nil {
		t.Fatal(err)
	}

	sitePath := filepath.Join(t.TempDir(), "site.yaml")
	if siteYAML != "" {
		if err := os.WriteFile(sitePath, []byte(siteYAML), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	site, err := files.NewSiteStore(sitePath, false)
	if err != nil {
		t.Fatalf("NewSiteStore() error: %v", err)
	}

	keys, err := crypto.DeriveKeys(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatal(err)
	}
	tokens := auth.NewVendorTokens(keys.VendorToken)
	sender := &fakeSender{}

	router := NewRouter(Deps{
		Auth:      auth.New(store, auth.NewCookieStore(keys, time.Hour, false)),
		Tokens:    tokens,
		Site:      site,
		SMSLog:    store,
		Heartbeat: heartbeat.NewService(store, 2*time.Minute),
		SMS:       sender,
		Map:       mapbox.Config{AccessToken: "pk.test", Style: "dark"},
		Metrics:   metrics.New(),
		Log:       zerolog.Nop(),
	})
	return &testEnv{router: router, store: store, site: site, tokens: tokens, sender: sender}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/admin/login", map[string]string{"username": username, "password": testPassword}, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func TestScenarioNoMaintenanceRendersChildren(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: false\n")
	rec := env.do(t, http.MethodGet, "/", nil, nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sector operations") {
		t.Fatalf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestScenarioMaintenanceBlocksViewer(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	rec := env.do(t, http.MethodGet, "/", nil, nil, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, gate.DefaultTitle) {
		t.Fatalf("body missing lockdown title: %q", body)
	}
	if strings.Contains(body, "All systems nominal") {
		t.Fatal("children rendered alongside lockdown")
	}
}

func TestScenarioMaintenanceBlocksNonGhostAdmin(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	cookies := env.login(t, "ops")
	rec := env.do(t, http.MethodGet, "/admin", nil, cookies, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestScenarioGhostAdminBypass(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	cookies := env.login(t, "ghost")
	rec := env.do(t, http.MethodGet, "/admin", nil, cookies, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Maintenance mode is ACTIVE") {
		t.Fatalf("dashboard did not show maintenance state: %q", rec.Body.String())
	}
}

func TestScenarioUndefinedMaintenanceFlag(t *testing.T) {
	env := newTestEnv(t, "lockdown_title: DECK SEALED\n")
	rec := env.do(t, http.MethodGet, "/", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLockdownUsesSiteCopy(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\nlockdown_title: DECK SEALED\nretry_after_seconds: 120\n")
	rec := env.do(t, http.MethodGet, "/api/map/config", nil, nil, map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "120" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["title"] != "DECK SEALED" {
		t.Fatalf("title = %q", body["title"])
	}
}

func TestExemptRoutesDuringMaintenance(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	for _, path := range []string{"/health", "/metrics", "/admin/login", "/api/clearance"} {
		rec := env.do(t, http.MethodGet, path, nil, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestClearanceEndpoint(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	cookies := env.login(t, "ghost")
	rec := env.do(t, http.MethodGet, "/api/clearance", nil, cookies, nil)
	var state models.ViewerClearanceState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := models.ViewerClearanceState{IsGhostAdmin: true, MaintenanceModeActive: true}
	if state != want {
		t.Fatalf("state = %+v, want %+v", state, want)
	}
}

func TestMaintenanceToggle(t *testing.T) {
	env := newTestEnv(t, "")

	ops := env.login(t, "ops")
	rec := env.do(t, http.MethodPost, "/admin/maintenance", map[string]bool{"active": true}, ops, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-ghost toggle status = %d, want 403", rec.Code)
	}
	if env.site.MaintenanceActive() {
		t.Fatal("non-ghost admin changed maintenance mode")
	}

	ghost := env.login(t, "ghost")
	rec = env.do(t, http.MethodPost, "/admin/maintenance", map[string]any{}, ghost, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing flag status = %d, want 400", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/admin/maintenance", map[string]bool{"active": true}, ghost, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ghost toggle status = %d body %s", rec.Code, rec.Body.String())
	}
	if !env.site.MaintenanceActive() {
		t.Fatal("maintenance not active after toggle")
	}
	if got := env.site.Snapshot().UpdatedBy; got != "ghost" {
		t.Fatalf("UpdatedBy = %q, want ghost", got)
	}

	// the same ops session is now locked out
	if rec := env.do(t, http.MethodGet, "/admin", nil, ops, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ops during maintenance status = %d, want 503", rec.Code)
	}
}

func TestHeartbeatDuringMaintenance(t *testing.T) {
	env := newTestEnv(t, "maintenance_mode: true\n")
	vendor, err := env.store.CreateVendor(context.Background(), "relay")
	if err != nil {
		t.Fatal(err)
	}
	tok, err := env.tokens.Issue(vendor.ID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodPost, "/api/vendor/heartbeat", nil, nil, map[string]string{"Authorization": "Bearer " + tok})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var resp heartbeatResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.VendorID != vendor.ID || resp.LastSeen == "" {
		t.Fatalf("resp = %+v", resp)
	}

	if rec := env.do(t, http.MethodPost, "/api/vendor/heartbeat", nil, nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	ghostTok, _ := env.tokens.Issue("vnd--missing", time.Hour)
	rec = env.do(t, http.MethodPost, "/api/vendor/heartbeat", nil, nil, map[string]string{"Authorization": "Bearer " + ghostTok})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown vendor status = %d, want 404", rec.Code)
	}
}

func TestVendorsListing(t *testing.T) {
	env := newTestEnv(t, "")
	if _, err := env.store.CreateVendor(context.Background(), "relay"); err != nil {
		t.Fatal(err)
	}
	rec := env.do(t, http.MethodGet, "/api/vendors", nil, env.login(t, "ops"), nil)
	var body struct {
		Vendors []models.VendorPresence `json:"vendors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Vendors) != 1 || body.Vendors[0].Online {
		t.Fatalf("vendors = %+v", body.Vendors)
	}
}

func TestSMSTest(t *testing.T) {
	env := newTestEnv(t, "")
	cookies := env.login(t, "ops")

	rec := env.do(t, http.MethodPost, "/admin/sms/test", map[string]string{"to": "555"}, cookies, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid number status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/admin/sms/test", map[string]string{"to": "+15551234567"}, cookies, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	env.sender.err = &sms.ProviderError{StatusCode: 400, Code: 21211, Message: "bad"}
	rec = env.do(t, http.MethodPost, "/admin/sms/test", map[string]string{"to": "+15551234567"}, cookies, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("provider failure status = %d, want 502", rec.Code)
	}

	tests, err := env.store.RecentSMSTests(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 2 {
		t.Fatalf("recorded %d sms tests, want 2", len(tests))
	}
	var statuses []string
	for _, tt := range tests {
		statuses = append(statuses, tt.Status)
	}
	joined := strings.Join(statuses, ",")
	if !strings.Contains(joined, "failed") || !strings.Contains(joined, "queued") {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestLoginFailureForm(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("username=ops&password=nope"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodGet, "/admin", nil, nil, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != loginPath {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestWriteErrorFallsBackTo500(t *testing.T) {
	a := &API{Deps: Deps{Log: zerolog.Nop()}}
	rec := httptest.NewRecorder()
	a.writeError(rec, errors.New("disk on fire"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
