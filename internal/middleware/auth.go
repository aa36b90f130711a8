package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserNameKey  = "user_name"
	UserRoleKey  = "user_role"
	GateKey      = "permission_gate"
)

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserNameKey, claims.Name)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

// UserLookup loads the stored account of a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CurrentRole replaces the role claim of the token with the role stored for
// the user, so role changes apply to tokens that are already issued. It must
// run after Auth.
func CurrentRole(users UserLookup) drift.HandlerFunc {
	return func(c *drift.Context) {
		user, err := users.GetByID(c.Request.Context(), GetUserID(c))
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.Unauthorized("unknown user")
				return
			}
			c.InternalServerError("failed to load user")
			return
		}

		c.Set(UserRoleKey, user.Role)
		c.Next()
	}
}

// RoleResolver loads the permission set granted to a role.
type RoleResolver interface {
	ForRole(ctx context.Context, role string) (permissions.Set, error)
}

// Permissions builds the permission gate of the authenticated user. It must
// run after Auth.
func Permissions(resolver RoleResolver) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		set, err := resolver.ForRole(c.Request.Context(), GetUserRole(c))
		if err != nil {
			c.InternalServerError("failed to load permissions")
			return
		}

		c.Set(GateKey, permissions.NewGate(userID, set))
		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	return getString(c, UserEmailKey)
}

func GetUserName(c *drift.Context) string {
	return getString(c, UserNameKey)
}

func GetUserRole(c *drift.Context) string {
	return getString(c, UserRoleKey)
}

// GetGate returns the request's permission gate. Without one every check
// is denied.
func GetGate(c *drift.Context) *permissions.Gate {
	if v, ok := c.Get(GateKey); ok {
		if g, ok := v.(*permissions.Gate); ok {
			return g
		}
	}
	return nil
}

func getString(c *drift.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
