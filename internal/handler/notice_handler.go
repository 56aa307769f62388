package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type noticeService interface {
	List(ctx context.Context, recruitCode string, q models.EntityQuery) ([]models.Entity, models.Pagination, error)
	FindOne(ctx context.Context, id string, q models.EntityQuery) (models.Entity, error)
}

// NoticeHandler serves one notice feed.
type NoticeHandler struct {
	service noticeService
}

// NewNoticeHandler creates a handler for the feed served by svc.
func NewNoticeHandler(svc noticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

// List godoc
// @Summary List notices
// @Description Lists published notices. Without recruitCode recruitment notices are excluded; with a recognised recruitCode only that category is returned.
// @Tags Notices
// @Produce json
// @Param recruitCode query string false "Recruitment category code (recruit-1, recruit-2)"
// @Param filters query string false "Bracketed filters, e.g. filters[title][$contains]=x"
// @Param sort query string false "Sort, e.g. publishedAt:desc"
// @Param pagination[page] query int false "Page"
// @Param pagination[pageSize] query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	q, err := sanitizeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, pagination, err := h.service.List(c.Request.Context(), c.Query("recruitCode"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, rows, &pagination)
}

// FindOne godoc
// @Summary Get notice
// @Tags Notices
// @Produce json
// @Param id path string true "Notice id or documentId"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [get]
func (h *NoticeHandler) FindOne(c *gin.Context) {
	q, err := sanitizeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	row, err := h.service.FindOne(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row)
}
