package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaultsMirrorOriginalDeployment(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, 1337, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 24*time.Hour, cfg.Admin.JWTExpiration)
	assert.Equal(t, 30*24*time.Hour, cfg.UsersPermissions.JWTExpiration)
	assert.Equal(t, "/dashboard", cfg.Admin.PanelPath)
	assert.Equal(t, "localhost:1337", cfg.Admin.PublicURL)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.Host)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.Equal(t, "portfolio", cfg.Upload.BaseDir)
	assert.True(t, cfg.Upload.SortInStorage)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "https://cmc-renewal.vercel.app")
	assert.Equal(t, "recruit", cfg.Notices.RecruitPrefix)
	assert.Equal(t, []string{"recruit-1", "recruit-2"}, cfg.Notices.RecruitCodes)
	assert.Equal(t, []string{"full_name", "contact", "today_login", "login_ip", "ip", "nationality", "lang"}, cfg.UsersPermissions.AllowedFields)
	assert.Equal(t, []string{"'self'", "'unsafe-inline'"}, cfg.Security.Directives["style-src"])
}

func TestPublicURLOverride(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{"PUBLIC_URL": "https://cms.example.com"}))
	require.NoError(t, err)
	assert.Equal(t, "https://cms.example.com", cfg.Admin.PublicURL)
}

func TestProductionRequiresSecrets(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]interface{}{"ENV": EnvProduction}))
	require.Error(t, err)

	cfg, err := fromViper(newTestViper(map[string]interface{}{
		"ENV":              EnvProduction,
		"ADMIN_JWT_SECRET": "a",
		"JWT_SECRET":       "b",
		"API_TOKEN_SALT":   "c",
		"APP_KEYS":         "k1, k2",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, cfg.AppKeys)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("garbage", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
