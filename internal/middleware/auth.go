package middleware

import (
	"strings"

	"pracas_backend/internal/access"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStatusRepo reports whether a user may still act. Tokens of deactivated
// users are rejected before they expire.
type UserStatusRepo interface {
	IsActive(userID uint) (bool, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}

// AuthMiddleware parses the bearer JWT and stores the Principal in the context.
func AuthMiddleware(secret string, users UserStatusRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if users != nil {
			active, err := users.IsActive(claims.UserID)
			if err != nil || !active {
				util.Unauthorized(c)
				c.Abort()
				return
			}
		}

		util.SetPrincipal(c, claims.Principal())
		c.Next()
	}
}

// RequireRoles lets the request through when the principal holds any of the
// roles.
func RequireRoles(roles ...access.Role) gin.HandlerFunc {
	return requireAccess(access.Requirement{Roles: roles})
}

// RequireGroups lets the request through when the principal holds any role
// of the groups.
func RequireGroups(groups ...access.RoleGroup) gin.HandlerFunc {
	return requireAccess(access.Requirement{Groups: groups})
}

func requireAccess(req access.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := util.GetPrincipal(c)
		if p.IsZero() {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !access.ContainsAny(p.Roles, req) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
