package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type testMailer interface {
	SendTest(ctx context.Context, to string) (string, error)
}

type testEmailRequest struct {
	To string `json:"to" binding:"required,email"`
}

// EmailHandler exposes the email plugin's admin endpoint.
type EmailHandler struct {
	service testMailer
}

// NewEmailHandler creates a new handler.
func NewEmailHandler(svc testMailer) *EmailHandler {
	return &EmailHandler{service: svc}
}

// SendTest godoc
// @Summary Send a test email
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/email/test [post]
func (h *EmailHandler) SendTest(c *gin.Context) {
	var req testEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid recipient"))
		return
	}

	id, err := h.service.SendTest(c.Request.Context(), req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"id": id})
}
