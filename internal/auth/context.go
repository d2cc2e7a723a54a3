package auth

import (
	"context"

	"github.com/harrylevesque/sectorgate/internal/models"
)

type adminContextKey struct{}

type vendorContextKey struct{}

func WithAdmin(ctx context.Context, admin models.Admin) context.Context {
	return context.WithValue(ctx, adminContextKey{}, admin)
}

func AdminFromContext(ctx context.Context) (models.Admin, bool) {
	if ctx == nil {
		return models.Admin{}, false
	}
	admin, ok := ctx.Value(adminContextKey{}).(models.Admin)
	return admin, ok
}

func WithVendorID(ctx context.Context, vendorID string) context.Context {
	return context.WithValue(ctx, vendorContextKey{}, vendorID)
}

// VendorIDFromContext returns "" when the request was not vendor-authenticated.
func VendorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(vendorContextKey{}).(string)
	return id
}
