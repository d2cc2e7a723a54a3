package api

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/files"
	"github.com/harrylevesque/sectorgate/internal/gate"
	"github.com/harrylevesque/sectorgate/internal/heartbeat"
	"github.com/harrylevesque/sectorgate/internal/models"
	"github.com/harrylevesque/sectorgate/internal/sms"
	"github.com/harrylevesque/sectorgate/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	loginPage     = parsePage("login.html")
	homePage      = parsePage("home.html")
	dashboardPage = parsePage("dashboard.html")
)

func parsePage(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

func (a *API) render(w http.ResponseWriter, status int, page *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.ExecuteTemplate(w, page.Name(), data); err != nil {
		a.Log.Error().Err(err).Str("template", page.Name()).Msg("render failed")
	}
}

// JSONResponse writes a JSON response.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to status codes.
func (a *API) writeError(w http.ResponseWriter, err error) {
	var status int
	var msg string
	var perr *sms.ProviderError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrSessionNotFound):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, heartbeat.ErrVendorUnknown):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, sms.ErrInvalidNumber):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, sms.ErrNotConfigured):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &perr):
		status, msg = http.StatusBadGateway, perr.Error()
	default:
		status, msg = utils.StatusOf(err)
	}
	if status >= 500 {
		a.Log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	JSONResponse(w, status, map[string]string{"error": msg})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

type pageData struct {
	Title string
	Error string
}

// HomeHandler is the public landing page; it sits behind the gate like every
// other page.
func (a *API) HomeHandler(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, homePage, pageData{Title: "Sector operations"})
}

func (a *API) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := a.Auth.CurrentAdmin(r); err == nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.render(w, http.StatusOK, loginPage, pageData{Title: "Admin sign-in"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	asJSON := wantsJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, utils.Wrap(http.StatusBadRequest, "invalid JSON body", err))
			return
		}
	} else {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	admin, err := a.Auth.Login(w, r, req.Username, req.Password)
	if err != nil {
		a.Log.Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("admin login failed")
		if asJSON {
			a.writeError(w, err)
			return
		}
		a.render(w, http.StatusUnauthorized, loginPage, pageData{Title: "Admin sign-in", Error: "Invalid username or password."})
		return
	}

	a.Log.Info().Str("admin_id", admin.ID).Bool("ghost", admin.GhostClearance).Msg("admin signed in")
	if asJSON {
		JSONResponse(w, http.StatusOK, admin)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (a *API) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Auth.Logout(w, r); err != nil {
		a.writeError(w, err)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

type dashboardData struct {
	Title      string
	Admin      models.Admin
	Clearance  models.ViewerClearanceState
	Site       files.SiteSettings
	SiteErr    error
	Vendors    []models.VendorPresence
	SMSTests   []models.SMSTest
	SMSEnabled bool
}

func (a *API) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	state, ok := gate.StateFromContext(r.Context())
	if !ok {
		state = a.clearanceState(r)
	}

	vendors, err := a.Heartbeat.Presence(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	tests, err := a.SMSLog.RecentSMSTests(r.Context(), 10)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.render(w, http.StatusOK, dashboardPage, dashboardData{
		Title:      "SECTORGATE dashboard",
		Admin:      admin,
		Clearance:  state,
		Site:       a.Site.Snapshot(),
		SiteErr:    a.Site.Err(),
		Vendors:    vendors,
		SMSTests:   tests,
		SMSEnabled: a.SMS != nil,
	})
}

// ClearanceHandler reports the viewer's clearance state.
func (a *API) ClearanceHandler(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, a.clearanceState(r))
}

type maintenanceRequest struct {
	Active *bool `json:"active"`
}

// MaintenanceHandler toggles maintenance mode. Ghost clearance required.
func (a *API) MaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	if !admin.GhostClearance {
		a.writeError(w, utils.New(http.StatusForbidden, "ghost clearance required"))
		return
	}

	var req maintenanceRequest
	asJSON := wantsJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, utils.Wrap(http.StatusBadRequest, "invalid JSON body", err))
			return
		}
	} else if raw := r.PostFormValue("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeError(w, utils.Wrap(http.StatusBadRequest, "active must be a boolean", err))
			return
		}
		req.Active = &v
	}
	if req.Active == nil {
		a.writeError(w, utils.New(http.StatusBadRequest, "active is required"))
		return
	}

	settings, err := a.Site.SetMaintenance(*req.Active, admin.Username)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.Log.Warn().Str("admin_id", admin.ID).Bool("maintenance", *req.Active).Msg("maintenance mode changed")

	if asJSON {
		JSONResponse(w, http.StatusOK, map[string]any{
			"maintenance_mode": settings.Maintenance(),
			"updated_by":       settings.UpdatedBy,
			"updated_at":       settings.UpdatedAt,
		})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

type heartbeatResponse struct {
	VendorID string `json:"vendor_id"`
	LastSeen string `json:"last_seen"`
}

func (a *API) HeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	vendorID := auth.VendorIDFromContext(r.Context())
	at, err := a.Heartbeat.Ping(r.Context(), vendorID, r.RemoteAddr)
	if err != nil {
		if a.Metrics != nil {
			a.Metrics.Heartbeat("error")
		}
		a.writeError(w, err)
		return
	}
	if a.Metrics != nil {
		a.Metrics.Heartbeat("ok")
	}
	JSONResponse(w, http.StatusOK, heartbeatResponse{VendorID: vendorID, LastSeen: at.Format("2006-01-02T15:04:05.000Z07:00")})
}

func (a *API) VendorsHandler(w http.ResponseWriter, r *http.Request) {
	vendors, err := a.Heartbeat.Presence(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	if vendors == nil {
		vendors = []models.VendorPresence{}
	}
	JSONResponse(w, http.StatusOK, map[string]any{"vendors": vendors})
}

type smsTestRequest struct {
	To string `json:"to"`
}

const smsTestBody = "SECTORGATE test message. No action required."

// SMSTestHandler sends a fixed test message and records the outcome.
func (a *API) SMSTestHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	var req smsTestRequest
	asJSON := wantsJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, utils.Wrap(http.StatusBadRequest, "invalid JSON body", err))
			return
		}
	} else {
		req.To = r.PostFormValue("to")
	}
	req.To = strings.TrimSpace(req.To)

	if err := sms.ValidateNumber(req.To); err != nil {
		a.writeError(w, err)
		return
	}
	if a.SMS == nil {
		a.writeError(w, sms.ErrNotConfigured)
		return
	}

	record := models.SMSTest{To: req.To, AdminID: admin.ID, CreatedAt: a.Now().UTC()}
	receipt, sendErr := a.SMS.Send(r.Context(), req.To, smsTestBody)
	if sendErr != nil {
		record.Status = "failed"
		record.Error = sendErr.Error()
	} else {
		record.Status = receipt.Status
		record.ProviderID = receipt.ProviderID
	}
	if a.Metrics != nil {
		if sendErr != nil {
			a.Metrics.SMSTest("failed")
		} else {
			a.Metrics.SMSTest("sent")
		}
	}
	if _, err := a.SMSLog.RecordSMSTest(r.Context(), record); err != nil {
		a.Log.Error().Err(err).Msg("record sms test failed")
	}

	if sendErr != nil {
		a.writeError(w, sendErr)
		return
	}
	if asJSON {
		JSONResponse(w, http.StatusOK, receipt)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
