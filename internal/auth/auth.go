package auth

import (
	"context"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

const (
	PermissionManagePayments = "manage_payments"
	PermissionRefundPayments = "refund_payments"
	PermissionViewReports    = "view_reports"
	PermissionAdmin          = "admin"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// User is the authenticated principal attached to a request.
type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"-"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	return u.HasAnyPermission([]string{permission})
}

// HasAnyPermission reports whether the user holds one of permissions. Admins
// hold every permission.
func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		if userPerm == PermissionAdmin {
			return true
		}
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	for _, p := range u.Permissions {
		if p == PermissionAdmin {
			return true
		}
	}
	return false
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidCredentials = internal.NewUnauthorizedError("invalid credentials", internal.ErrCodeInvalidCredentials)
	ErrInvalidToken       = internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	ErrTokenExpired       = internal.NewUnauthorizedError("token expired", internal.ErrCodeTokenExpired)
	ErrUserInactive       = internal.NewUnauthorizedError("user is inactive", internal.ErrCodeUserInactive)
)

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

// ContextWithUser stores the principal and its id for the service layer.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	ctx = context.WithValue(ctx, ContextUserKey, u)
	return internal.ContextWithUserID(ctx, u.ID)
}
