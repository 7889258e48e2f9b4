package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/transport"
)

// RBACAuthorization guards routes by permission name.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !ra.checker.HasAnyPermission(user.Permissions, []string{permission}) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"required_permission", permission,
					"user_permissions", user.Permissions)
				ra.WriteAppError(w, internal.NewForbiddenError("insufficient permissions: "+permission, internal.ErrCodeInsufficientPermission))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireManagePayments() func(http.Handler) http.Handler {
	return ra.Middleware(PermissionManagePayments)
}

func (ra *RBACAuthorization) RequireRefundPayments() func(http.Handler) http.Handler {
	return ra.Middleware(PermissionRefundPayments)
}

func (ra *RBACAuthorization) RequireViewReports() func(http.Handler) http.Handler {
	return ra.Middleware(PermissionViewReports)
}
