package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/response"
)

// RequireAdmin rejects requests whose token does not carry the admin flag.
// It must run after JWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.IsAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin lets a request through when the path parameter names
// the caller's own account, or when the caller is an admin.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.IsAdmin || (c.Param(param) != "" && c.Param(param) == claims.AccountID) {
			c.Next()
			return
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
