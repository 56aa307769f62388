package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type adminAuthService interface {
	Login(ctx context.Context, req models.AdminLoginRequest) (*models.AdminSession, error)
	RenewToken(ctx context.Context, req models.RenewTokenRequest) (*models.AdminSession, error)
	Logout(ctx context.Context, claims *models.AdminClaims) error
	Me(ctx context.Context, claims *models.AdminClaims) (*models.AdminUser, error)
}

// AuthHandler wires the admin panel authentication endpoints.
type AuthHandler struct {
	service adminAuthService
	info    models.AdminInformation
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc adminAuthService, info models.AdminInformation) *AuthHandler {
	return &AuthHandler{service: svc, info: info}
}

// Login godoc
// @Summary Authenticate admin
// @Description Authenticate an admin panel user by email and password
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.AdminLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// RenewToken godoc
// @Summary Renew admin token
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.RenewTokenRequest true "Token to renew"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/renew-token [post]
func (h *AuthHandler) RenewToken(c *gin.Context) {
	var req models.RenewTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid renew payload"))
		return
	}

	res, err := h.service.RenewToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Revoke the current admin token
// @Tags Admin
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := adminClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Me godoc
// @Summary Current admin
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := adminClaimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user)
}

// Information returns the admin panel deployment settings.
func (h *AuthHandler) Information(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.info)
}
