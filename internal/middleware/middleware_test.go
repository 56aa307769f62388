package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/internal/service"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

type stubAdminAuth struct {
	claims *models.AdminClaims
}

func (s stubAdminAuth) ValidateToken(ctx context.Context, token string) (*models.AdminClaims, error) {
	if token != "admin-token" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token")
	}
	return s.claims, nil
}

type stubAPITokens struct{}

func (stubAPITokens) Authenticate(ctx context.Context, key string) (*models.APIToken, error) {
	switch key {
	case "read-key":
		return &models.APIToken{ID: 1, Type: models.APITokenReadOnly}, nil
	case "full-key":
		return &models.APIToken{ID: 2, Type: models.APITokenFullAccess}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token")
}

type stubUsers struct{}

func (stubUsers) ValidateToken(token string) (*models.UserClaims, error) {
	if token != "a.b.c" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token")
	}
	return &models.UserClaims{UserID: 7}, nil
}

func perform(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAdminJWTAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := stubAdminAuth{claims: &models.AdminClaims{AdminID: 1, Role: models.RoleEditor}}

	r := gin.New()
	r.GET("/me", AdminJWT(auth), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/tokens", AdminJWT(auth), RequireAdminRoles(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/content", AdminJWT(auth), RequireAdminRoles(models.RoleEditor), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/me", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/tokens", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/content", "Bearer admin-token").Code)

	auth.claims.Role = models.RoleSuperAdmin
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/tokens", "Bearer admin-token").Code)
}

func TestContentAuthPrincipals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen *models.Principal
	r := gin.New()
	r.Use(ContentAuth(stubAPITokens{}, stubUsers{}))
	r.GET("/read", func(c *gin.Context) {
		v, _ := c.Get(ContextPrincipalKey)
		seen = v.(*models.Principal)
		c.Status(http.StatusOK)
	})
	r.POST("/write", RequireWriteAccess(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", RequireUser(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/files", RequireAuthenticated(), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/read", "").Code)
	assert.Equal(t, models.PrincipalPublic, seen.Kind)

	require.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/read", "Bearer a.b.c").Code)
	assert.Equal(t, models.PrincipalUser, seen.Kind)
	assert.Equal(t, int64(7), seen.ID)

	require.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/read", "Bearer read-key").Code)
	assert.Equal(t, models.PrincipalAPIToken, seen.Kind)
	assert.True(t, seen.ReadOnly)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/read", "Bearer bogus").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/read", "Bearer x.y.z").Code)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodPost, "/write", "").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodPost, "/write", "Bearer read-key").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/write", "Bearer full-key").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/write", "Bearer a.b.c").Code)

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/files", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/files", "Bearer read-key").Code)

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/me", "Bearer full-key").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/me", "Bearer a.b.c").Code)
}

func TestRateLimitPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(1, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/login", "").Code)
	w := perform(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RateLimitError")

	other := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.1.1.1:4000"
	r.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/api/notices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/api/notices/1", "")
	perform(r, http.MethodGet, "/missing", "")

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestAuditLogsSuccessfulActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	auth := stubAdminAuth{claims: &models.AdminClaims{AdminID: 3, Role: models.RoleSuperAdmin}}

	r := gin.New()
	r.DELETE("/admin/api-tokens/:id", AdminJWT(auth), Audit(zap.New(core), "delete", "api-token"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/admin/api-tokens", AdminJWT(auth), Audit(zap.New(core), "create", "api-token"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	perform(r, http.MethodDelete, "/admin/api-tokens/9", "Bearer admin-token")
	perform(r, http.MethodPost, "/admin/api-tokens", "Bearer admin-token")

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "delete", fields["action"])
	assert.Equal(t, "9", fields["resource_id"])
	assert.Equal(t, int64(3), fields["admin_id"])
}
