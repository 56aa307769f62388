package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/pkg/logger"
)

// Audit logs successful mutating requests with the acting admin or principal.
func Audit(l *zap.Logger, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("resource_id", id))
		}
		if value, ok := c.Get(ContextAdminKey); ok {
			if claims, ok := value.(*models.AdminClaims); ok {
				fields = append(fields, zap.Int64("admin_id", claims.AdminID), zap.String("admin_role", string(claims.Role)))
			}
		}
		if value, ok := c.Get(ContextPrincipalKey); ok {
			if p, ok := value.(*models.Principal); ok {
				fields = append(fields, zap.String("principal", p.Kind), zap.Int64("principal_id", p.ID))
			}
		}

		logger.ForRequest(c, l).Info("audit", fields...)
	}
}
