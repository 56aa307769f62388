package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/internal/repository"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

type mockAdminRepo struct {
	admin            *models.AdminUser
	findErr          error
	lastLoginUpdated bool
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.admin == nil || m.admin.Email != email {
		return nil, sql.ErrNoRows
	}
	copy := *m.admin
	return &copy, nil
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	if m.admin == nil || m.admin.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *m.admin
	return &copy, nil
}

func (m *mockAdminRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAdmin(t *testing.T, password string) *models.AdminUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.AdminUser{
		ID:           7,
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Firstname:    "Site",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
}

func newAuthService(repo *mockAdminRepo) *AuthService {
	sessions := repository.NewSessionRepository(nil, nil)
	return NewAuthService(repo, sessions, nil, nil, AuthConfig{Secret: "admin-secret", Expiry: time.Hour, Issuer: "cms-api"})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAdminRepo{admin: newAdmin(t, "Password123!")}
	svc := newAuthService(repo)

	session, err := svc.Login(context.Background(), models.AdminLoginRequest{Email: "admin@example.com", Password: "Password123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, int64(7), session.User.ID)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.AdminID)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	repo := &mockAdminRepo{admin: newAdmin(t, "Password123!")}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Email: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Login(context.Background(), models.AdminLoginRequest{Email: "nobody@example.com", Password: "Password123!"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", appErrors.FromError(err).Message)
	assert.False(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	admin := newAdmin(t, "Password123!")
	admin.IsActive = false
	svc := newAuthService(&mockAdminRepo{admin: admin})

	_, err := svc.Login(context.Background(), models.AdminLoginRequest{Email: "admin@example.com", Password: "Password123!"})
	require.Error(t, err)
	assert.Equal(t, "User not active", appErrors.FromError(err).Message)
}

func TestAuthServiceRenewToken(t *testing.T) {
	svc := newAuthService(&mockAdminRepo{admin: newAdmin(t, "Password123!")})

	session, err := svc.Login(context.Background(), models.AdminLoginRequest{Email: "admin@example.com", Password: "Password123!"})
	require.NoError(t, err)

	renewed, err := svc.RenewToken(context.Background(), models.RenewTokenRequest{Token: session.Token})
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, renewed.Token)

	_, err = svc.RenewToken(context.Background(), models.RenewTokenRequest{Token: "garbage"})
	require.Error(t, err)
	assert.Equal(t, "Invalid token", appErrors.FromError(err).Message)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	svc := newAuthService(&mockAdminRepo{admin: newAdmin(t, "Password123!")})
	ctx := context.Background()

	session, err := svc.Login(ctx, models.AdminLoginRequest{Email: "admin@example.com", Password: "Password123!"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.ValidateToken(ctx, session.Token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	svc := newAuthService(&mockAdminRepo{admin: newAdmin(t, "Password123!")})
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	session, err := svc.Login(context.Background(), models.AdminLoginRequest{Email: "admin@example.com", Password: "Password123!"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(context.Background(), session.Token)
	require.Error(t, err)
}

func TestAuthServiceMe(t *testing.T) {
	svc := newAuthService(&mockAdminRepo{admin: newAdmin(t, "Password123!")})

	admin, err := svc.Me(context.Background(), &models.AdminClaims{AdminID: 7})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", admin.Email)

	_, err = svc.Me(context.Background(), &models.AdminClaims{AdminID: 8})
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}
