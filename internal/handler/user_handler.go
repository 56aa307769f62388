package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type userService interface {
	ParseRegistration(body map[string]interface{}) (models.RegisterInput, error)
	Register(ctx context.Context, input models.RegisterInput) (*models.UserAuthResponse, error)
	Login(ctx context.Context, req models.LocalLoginRequest) (*models.UserAuthResponse, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.UserAuthResponse, error)
}

// UserHandler serves the end-user authentication endpoints. Successful responses are not
// wrapped in the data envelope.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Register godoc
// @Summary Register end user
// @Description Accepts username, email, password and the allowed profile fields only.
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} models.UserAuthResponse
// @Failure 400 {object} response.Envelope
// @Router /auth/local/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	input, err := h.service.ParseRegistration(body)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, res)
}

// Login godoc
// @Summary Local login
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.LocalLoginRequest true "Credentials"
// @Success 200 {object} models.UserAuthResponse
// @Failure 400 {object} response.Envelope
// @Router /auth/local [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LocalLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, res)
}

// Me returns the authenticated end user.
func (h *UserHandler) Me(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil || principal.Kind != models.PrincipalUser {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.Me(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, user)
}

// ForgotPassword emails a reset code. It answers ok whether or not the address is known.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forgot password payload"))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, gin.H{"ok": true})
}

// ResetPassword exchanges a reset code for a new password and session.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset password payload"))
		return
	}

	res, err := h.service.ResetPassword(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, res)
}
