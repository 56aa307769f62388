package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBuildCSPMergesOverrides(t *testing.T) {
	csp := BuildCSP(map[string][]string{
		"media-src": {"'self'", "data:", "blob:", "storage.googleapis.com"},
		"style-src": {"'self'", "'unsafe-inline'"},
		"base-uri":  nil,
	})

	assert.Contains(t, csp, "media-src 'self' data: blob: storage.googleapis.com")
	assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
	assert.NotContains(t, csp, "base-uri")
	assert.NotContains(t, csp, "upgrade-insecure-requests")
	assert.Contains(t, csp, "default-src 'self'")
}

func TestBuildCSPIsDeterministic(t *testing.T) {
	overrides := map[string][]string{"img-src": {"'self'", "*"}, "frame-src": {"'self'", "*"}}
	assert.Equal(t, BuildCSP(overrides), BuildCSP(overrides))
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(Options{HSTSMaxAge: 31536000}), PoweredBy("cms-api"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "cms-api", w.Header().Get("X-Powered-By"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestCrossOriginHeadersOffByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(Options{}))
	r.GET("/uploads/*path", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/uploads/portfolio/images/a.png", nil)
	req.Header.Set("Origin", "https://www.culturemarketing.co.kr")
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Empty(t, w.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Empty(t, w.Header().Get("Origin-Agent-Cluster"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCrossOriginHeadersOptIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(Options{CrossOriginResourcePolicy: "same-site", CrossOriginOpenerPolicy: "same-origin", OriginAgentCluster: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "same-site", w.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Equal(t, "?1", w.Header().Get("Origin-Agent-Cluster"))
}
