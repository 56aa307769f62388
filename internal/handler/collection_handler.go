package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type contentFinder interface {
	Find(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, models.Pagination, error)
	FindOne(ctx context.Context, uid, id string, q models.EntityQuery) (models.Entity, error)
}

// CollectionHandler exposes the core find and findOne actions of one collection.
type CollectionHandler struct {
	uid     string
	content contentFinder
}

// NewCollectionHandler creates a handler for the collection uid.
func NewCollectionHandler(uid string, content contentFinder) *CollectionHandler {
	return &CollectionHandler{uid: uid, content: content}
}

// Find lists entries of the collection.
func (h *CollectionHandler) Find(c *gin.Context) {
	q, err := sanitizeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, pagination, err := h.content.Find(c.Request.Context(), h.uid, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, rows, &pagination)
}

// FindOne returns one entry by id or documentId.
func (h *CollectionHandler) FindOne(c *gin.Context) {
	q, err := sanitizeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	row, err := h.content.FindOne(c.Request.Context(), h.uid, c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row)
}
