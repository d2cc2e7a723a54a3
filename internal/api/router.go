package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/files"
	"github.com/harrylevesque/sectorgate/internal/gate"
	"github.com/harrylevesque/sectorgate/internal/heartbeat"
	"github.com/harrylevesque/sectorgate/internal/mapbox"
	"github.com/harrylevesque/sectorgate/internal/metrics"
	"github.com/harrylevesque/sectorgate/internal/models"
	"github.com/harrylevesque/sectorgate/internal/sms"
	"github.com/harrylevesque/sectorgate/internal/utils"
)

const loginPath = "/admin/login"

// SMSTestLog persists SMS test outcomes and lists recent ones.
type SMSTestLog interface {
	RecordSMSTest(ctx context.Context, t models.SMSTest) (models.SMSTest, error)
	RecentSMSTests(ctx context.Context, limit int) ([]models.SMSTest, error)
}

// Deps are the collaborators the HTTP layer needs. SMS may be nil when no
// provider is configured.
type Deps struct {
	Auth      *auth.Auth
	Tokens    *auth.VendorTokens
	Site      *files.SiteStore
	SMSLog    SMSTestLog
	Heartbeat *heartbeat.Service
	SMS       sms.Sender
	Map       mapbox.Config
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
	Now       func() time.Time
}

type API struct {
	Deps
}

// exemptFromGate lists what stays reachable during maintenance: sign-in so
// ghost admins can get through, probes, the vendor ping and the clearance
// lookup itself.
func exemptFromGate(path string) bool {
	switch path {
	case "/health", "/metrics", loginPath, "/api/clearance", "/api/vendor/heartbeat":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

func NewRouter(d Deps) *mux.Router {
	if d.Now == nil {
		d.Now = time.Now
	}
	a := &API{Deps: d}

	r := mux.NewRouter()
	r.Use(utils.RequestLogger(d.Log, routeTemplate, func(req *http.Request, route string, status int) {
		if d.Metrics != nil {
			d.Metrics.HTTPRequest(req.Method, route, status)
		}
	}))
	r.Use(gate.Middleware(a.clearanceState, http.HandlerFunc(a.lockdownHandler), gate.Options{
		Exempt: exemptFromGate,
		OnDecision: func(blocked bool) {
			if d.Metrics != nil {
				d.Metrics.GateDecision(blocked)
			}
		},
	}))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")
	}

	r.HandleFunc("/", a.HomeHandler).Methods("GET")
	r.HandleFunc(loginPath, a.LoginPageHandler).Methods("GET")
	r.HandleFunc(loginPath, a.LoginHandler).Methods("POST")

	requireAdmin := d.Auth.RequireAdmin(loginPath)
	r.Handle("/admin", requireAdmin(http.HandlerFunc(a.DashboardHandler))).Methods("GET")
	r.Handle("/admin/logout", requireAdmin(http.HandlerFunc(a.LogoutHandler))).Methods("POST")
	r.Handle("/admin/maintenance", requireAdmin(http.HandlerFunc(a.MaintenanceHandler))).Methods("POST")
	r.Handle("/admin/sms/test", requireAdmin(http.HandlerFunc(a.SMSTestHandler))).Methods("POST")

	r.HandleFunc("/api/clearance", a.ClearanceHandler).Methods("GET")
	r.Handle("/api/map/config", mapbox.Handler(d.Map)).Methods("GET")
	r.Handle("/api/vendor/heartbeat", d.Tokens.RequireVendor(http.HandlerFunc(a.HeartbeatHandler))).Methods("POST")
	r.Handle("/api/vendors", requireAdmin(http.HandlerFunc(a.VendorsHandler))).Methods("GET")

	return r
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return tpl
}

// clearanceState is the single place the guard's input is assembled.
func (a *API) clearanceState(r *http.Request) models.ViewerClearanceState {
	return models.ViewerClearanceState{
		IsGhostAdmin:          a.Auth.IsGhostAdmin(r),
		MaintenanceModeActive: a.Site.MaintenanceActive(),
	}
}

func (a *API) lockdownHandler(w http.ResponseWriter, r *http.Request) {
	site := a.Site.Snapshot()
	gate.Lockdown{
		Title:      site.LockdownTitle,
		Message:    site.LockdownMessage,
		RetryAfter: time.Duration(site.RetryAfterSeconds) * time.Second,
	}.ServeHTTP(w, r)
}
