package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cmc-renewal/cms-api/pkg/config"
	"github.com/cmc-renewal/cms-api/pkg/middleware/requestid"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.log")
	l, err := New(&config.Config{
		Env: config.EnvProduction,
		Log: config.LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	l.Info("notice feed ready", zap.String("feed", "notice"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"notice feed ready"`)
	assert.Contains(t, string(raw), `"service":"cms-api"`)
}

func TestGinMiddlewareLogsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(requestid.Middleware(), GinMiddleware(zap.New(core)))
	r.GET("/api/notices", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/notices?recruitCode=recruit-1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "recruitCode=recruit-1", first["query"])
	assert.NotEmpty(t, first["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
