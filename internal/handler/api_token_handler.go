package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type apiTokenService interface {
	List(ctx context.Context) ([]models.APIToken, error)
	Create(ctx context.Context, req models.CreateAPITokenRequest) (*models.APITokenWithKey, error)
	Revoke(ctx context.Context, id int64) error
}

// APITokenHandler manages content API tokens from the admin panel.
type APITokenHandler struct {
	service apiTokenService
}

// NewAPITokenHandler creates a new handler.
func NewAPITokenHandler(svc apiTokenService) *APITokenHandler {
	return &APITokenHandler{service: svc}
}

// List godoc
// @Summary List API tokens
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/api-tokens [get]
func (h *APITokenHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Create godoc
// @Summary Create API token
// @Description The access key is only returned by this call.
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateAPITokenRequest true "Token"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/api-tokens [post]
func (h *APITokenHandler) Create(c *gin.Context) {
	var req models.CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid api token payload"))
		return
	}

	token, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, token)
}

// Revoke deletes a token.
func (h *APITokenHandler) Revoke(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "api token not found"))
		return
	}

	if err := h.service.Revoke(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
