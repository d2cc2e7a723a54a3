// Package gate implements the global maintenance guard.
//
// The guard wraps an arbitrary http.Handler and, on every request, serves
// either that handler or a lockdown view. The decision depends only on the
// viewer's clearance state, which is passed in explicitly through a StateFunc.
package gate

import (
	"net/http"

	"github.com/harrylevesque/sectorgate/internal/models"
)

// Blocks reports whether the lockdown view must replace the wrapped content.
// Only a non-ghost viewer during active maintenance is blocked.
func Blocks(state models.ViewerClearanceState) bool {
	return state.MaintenanceModeActive && !state.IsGhostAdmin
}

// StateFunc resolves the clearance state for a request.
type StateFunc func(r *http.Request) models.ViewerClearanceState

// Options tune a Guard. The zero value gates every path and observes nothing.
type Options struct {
	// Exempt paths bypass the decision entirely (login page, assets, probes).
	Exempt func(path string) bool
	// OnDecision is called after each gated decision with blocked=true when
	// the lockdown view was served.
	OnDecision func(blocked bool)
}

// Guard serves exactly one of next or lockdown per request.
type Guard struct {
	state    StateFunc
	next     http.Handler
	lockdown http.Handler
	opts     Options
}

// NewGuard wraps next. A nil state func yields the zero state, which never
// blocks.
func NewGuard(state StateFunc, next, lockdown http.Handler, opts Options) *Guard {
	if state == nil {
		state = func(*http.Request) models.ViewerClearanceState { return models.ViewerClearanceState{} }
	}
	if lockdown == nil {
		lockdown = Lockdown{}
	}
	return &Guard{state: state, next: next, lockdown: lockdown, opts: opts}
}

func (g *Guard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.opts.Exempt != nil && g.opts.Exempt(r.URL.Path) {
		g.next.ServeHTTP(w, r)
		return
	}

	state := g.state(r)
	r = r.WithContext(WithState(r.Context(), state))
	blocked := Blocks(state)
	if g.opts.OnDecision != nil {
		g.opts.OnDecision(blocked)
	}
	if blocked {
		g.lockdown.ServeHTTP(w, r)
		return
	}
	g.next.ServeHTTP(w, r)
}

// Middleware adapts the guard to mux.MiddlewareFunc shape.
func Middleware(state StateFunc, lockdown http.Handler, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewGuard(state, next, lockdown, opts)
	}
}
