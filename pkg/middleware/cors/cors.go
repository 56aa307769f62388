package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS middleware.
type Options struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

const (
	allowHeaders = "Content-Type, Authorization, Origin, Accept, X-Requested-With, X-Request-ID"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS"
)

// New returns a CORS middleware that reflects allowed origins. Origins may be listed with or
// without a scheme ("firebasestorage.googleapis.com" matches any scheme on that host).
func New(opts Options) gin.HandlerFunc {
	allowAll := len(opts.AllowedOrigins) == 0
	originSet := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		allowed := origin != "" && (allowAll || hasOrigin(originSet, origin))
		if allowed {
			header.Set("Access-Control-Allow-Origin", origin)
			if opts.AllowCredentials {
				header.Set("Access-Control-Allow-Credentials", "true")
			}
		} else if origin == "" && allowAll && !opts.AllowCredentials {
			header.Set("Access-Control-Allow-Origin", "*")
		}

		if c.Request.Method == http.MethodOptions {
			if allowed {
				header.Set("Access-Control-Allow-Headers", allowHeaders)
				header.Set("Access-Control-Allow-Methods", allowMethods)
				header.Set("Access-Control-Max-Age", "600")
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func hasOrigin(originSet map[string]struct{}, origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if _, ok := originSet[origin]; ok {
		return true
	}
	if idx := strings.Index(origin, "://"); idx >= 0 {
		_, ok := originSet[origin[idx+3:]]
		return ok
	}
	return false
}
