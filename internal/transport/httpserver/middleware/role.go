package middleware

import (
	"context"
	"net/http"
	"strings"

	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/pkg/logger"
)

const ActingForHeader = "X-Acting-For"

type RoleResolver interface {
	CurrentRole(ctx context.Context, subject roledomain.Subject, actingFor string) (*roledomain.Descriptor, error)
}

// RoleContext resolves the caller's role for this request. The owner being
// viewed comes from the X-Acting-For header or the acting_for query parameter.
// A lookup failure degrades to the plain user role.
func RoleContext(roles RoleResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			actingFor := strings.TrimSpace(r.Header.Get(ActingForHeader))
			if actingFor == "" {
				actingFor = strings.TrimSpace(r.URL.Query().Get("acting_for"))
			}

			desc, err := roles.CurrentRole(r.Context(), roledomain.Subject{ID: user.ID, Email: user.Email}, actingFor)
			if err != nil {
				log.InternalError("roles: resolve current role failed", err, "user_id", user.ID, "acting_for", actingFor)
				desc = roledomain.DefaultDescriptor()
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), desc)))
		})
	}
}

func WithRole(ctx context.Context, desc *roledomain.Descriptor) context.Context {
	return context.WithValue(ctx, roleKey, desc)
}

// RoleFromContext never returns nil.
func RoleFromContext(ctx context.Context) *roledomain.Descriptor {
	desc, ok := ctx.Value(roleKey).(*roledomain.Descriptor)
	if !ok || desc == nil {
		return roledomain.DefaultDescriptor()
	}
	return desc
}
