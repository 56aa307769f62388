package security

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures the security header middleware.
type Options struct {
	// Directives are merged over the default CSP directives; an empty list removes a directive.
	Directives     map[string][]string
	HSTSMaxAge     int
	ReferrerPolicy string
	FrameOptions   string

	// Cross-origin isolation headers are sent only when set.
	CrossOriginResourcePolicy string
	CrossOriginOpenerPolicy   string
	OriginAgentCluster        bool
}

var defaultDirectives = map[string][]string{
	"default-src":     {"'self'"},
	"base-uri":        {"'self'"},
	"font-src":        {"'self'", "https:", "data:"},
	"form-action":     {"'self'"},
	"frame-ancestors": {"'self'"},
	"img-src":         {"'self'", "data:"},
	"object-src":      {"'none'"},
	"script-src":      {"'self'"},
	"script-src-attr": {"'none'"},
	"style-src":       {"'self'", "https:", "'unsafe-inline'"},
}

// BuildCSP renders the Content-Security-Policy value with directives sorted by name.
func BuildCSP(overrides map[string][]string) string {
	merged := make(map[string][]string, len(defaultDirectives)+len(overrides))
	for k, v := range defaultDirectives {
		merged[k] = v
	}
	for k, v := range overrides {
		if len(v) == 0 {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+strings.Join(merged[name], " "))
	}
	return strings.Join(parts, "; ")
}

// New returns a middleware writing the security headers on every response.
func New(opts Options) gin.HandlerFunc {
	csp := BuildCSP(opts.Directives)
	referrer := opts.ReferrerPolicy
	if referrer == "" {
		referrer = "no-referrer"
	}
	frame := opts.FrameOptions
	if frame == "" {
		frame = "SAMEORIGIN"
	}
	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", opts.HSTSMaxAge)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", csp)
		if opts.CrossOriginOpenerPolicy != "" {
			h.Set("Cross-Origin-Opener-Policy", opts.CrossOriginOpenerPolicy)
		}
		if opts.CrossOriginResourcePolicy != "" {
			h.Set("Cross-Origin-Resource-Policy", opts.CrossOriginResourcePolicy)
		}
		if opts.OriginAgentCluster {
			h.Set("Origin-Agent-Cluster", "?1")
		}
		h.Set("Referrer-Policy", referrer)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Frame-Options", frame)
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("X-XSS-Protection", "0")
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// PoweredBy sets the X-Powered-By header; an empty value removes it.
func PoweredBy(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if value == "" {
			c.Writer.Header().Del("X-Powered-By")
		} else {
			c.Writer.Header().Set("X-Powered-By", value)
		}
		c.Next()
	}
}
