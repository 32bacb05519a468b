package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
	"github.com/oksasatya/rbac-dashboard/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxRoleKey   = "role"

	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Token is not valid"
	MsgAccessDenied = "Access denied"
)

// Identity is what a valid session token proves about the caller.
type Identity struct {
	UserID string
	Role   entity.Role
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by Auth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// bearerToken extracts <token> from "Bearer <token>".
func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Auth validates the session token from the Authorization header.
// It sets userID and role in the Gin context and the request context on success.
func Auth(tokens *helpers.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, MsgNoToken, nil)
			return
		}
		claims, err := tokens.Validate(token, helpers.PurposeSession)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, MsgInvalidToken, nil)
			return
		}

		id := Identity{UserID: claims.UserID, Role: claims.Role}
		c.Set(CtxUserIDKey, id.UserID)
		c.Set(CtxRoleKey, id.Role)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRoles must run after Auth. Roles outside allowed get 403.
func RequireRoles(allowed ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c.Request.Context())
		if !ok || !id.Role.In(allowed...) {
			response.Abort(c, http.StatusForbidden, MsgAccessDenied, nil)
			return
		}
		c.Next()
	}
}
