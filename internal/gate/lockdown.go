package gate

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTitle   = "SECTOR LOCKDOWN"
	DefaultMessage = "Maintenance in progress. Access restricted to ghost administrators."
)

var lockdownTemplate = template.Must(template.New("lockdown").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;background:#050505;color:#e11d48;font-family:ui-monospace,monospace}
main{max-width:36rem;padding:2rem;border:1px solid #e11d48;text-align:center}
h1{letter-spacing:.3em;margin:0 0 1rem}
p{color:#a3a3a3}
</style>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</main>
</body>
</html>
`))

// Lockdown is the terminal view served in place of gated content.
type Lockdown struct {
	Title      string
	Message    string
	RetryAfter time.Duration
}

func (l Lockdown) withDefaults() Lockdown {
	if strings.TrimSpace(l.Title) == "" {
		l.Title = DefaultTitle
	}
	if strings.TrimSpace(l.Message) == "" {
		l.Message = DefaultMessage
	}
	return l
}

func (l Lockdown) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l = l.withDefaults()
	w.Header().Set("Cache-Control", "no-store")
	if l.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(l.RetryAfter/time.Second)))
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "maintenance",
			"title":   l.Title,
			"message": l.Message,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	lockdownTemplate.Execute(w, l)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
