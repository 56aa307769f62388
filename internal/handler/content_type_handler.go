package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/service"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

// ContentTypeHandler exposes the registered schemas read-only.
type ContentTypeHandler struct {
	service *service.ContentTypeService
}

// NewContentTypeHandler creates a new handler.
func NewContentTypeHandler(svc *service.ContentTypeService) *ContentTypeHandler {
	return &ContentTypeHandler{service: svc}
}

func (h *ContentTypeHandler) ContentTypes(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.ContentTypes())
}

func (h *ContentTypeHandler) ContentType(c *gin.Context) {
	schema, err := h.service.ContentType(c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schema)
}

func (h *ContentTypeHandler) Components(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Components())
}

func (h *ContentTypeHandler) Component(c *gin.Context) {
	schema, err := h.service.Component(c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schema)
}
