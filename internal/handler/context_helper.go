package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/middleware"
	"github.com/cmc-renewal/cms-api/internal/models"
)

func adminClaimsFromContext(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}

func principalFromContext(c *gin.Context) *models.Principal {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}
