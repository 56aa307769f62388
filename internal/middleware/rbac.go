package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

// RequireAdminRoles enforces admin role access. Super admins pass every check.
func RequireAdminRoles(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextAdminKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		claims, ok := value.(*models.AdminClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireAuthenticated allows any caller other than the public role.
func RequireAuthenticated() gin.HandlerFunc {
	return requirePrincipal(func(*models.Principal) bool { return true })
}

// RequireUser allows only authenticated end users.
func RequireUser() gin.HandlerFunc {
	return requirePrincipal(func(p *models.Principal) bool {
		return p.Kind == models.PrincipalUser
	})
}

// RequireWriteAccess allows authenticated end users and full-access API tokens.
func RequireWriteAccess() gin.HandlerFunc {
	return requirePrincipal(func(p *models.Principal) bool {
		switch p.Kind {
		case models.PrincipalUser:
			return true
		case models.PrincipalAPIToken:
			return !p.ReadOnly
		}
		return false
	})
}

func requirePrincipal(allow func(*models.Principal) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, _ := c.Get(ContextPrincipalKey)
		principal, ok := value.(*models.Principal)
		if !ok || principal.Kind == models.PrincipalPublic {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !allow(principal) {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
