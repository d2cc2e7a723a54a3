package gate

import (
	"context"

	"github.com/harrylevesque/sectorgate/internal/models"
)

type stateContextKey struct{}

// WithState stores the resolved clearance state in ctx.
func WithState(ctx context.Context, state models.ViewerClearanceState) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, stateContextKey{}, state)
}

// StateFromContext returns the state stored by the guard. The second result
// is false when the guard has not run; the zero state is returned then.
func StateFromContext(ctx context.Context) (models.ViewerClearanceState, bool) {
	if ctx == nil {
		return models.ViewerClearanceState{}, false
	}
	state, ok := ctx.Value(stateContextKey{}).(models.ViewerClearanceState)
	return state, ok
}
