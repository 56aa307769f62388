package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

// Envelope is the content API response contract: {data, meta, error}.
type Envelope struct {
	Data  interface{}      `json:"data"`
	Meta  *Meta            `json:"meta,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// Meta carries response metadata such as list pagination.
type Meta struct {
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// JSON sends data with an empty meta object.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Meta: &Meta{}})
}

// List sends a collection page with its pagination metadata.
func List(c *gin.Context, data interface{}, pagination *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Data: data, Meta: &Meta{Pagination: pagination}})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Raw sends a body without the envelope, as the auth endpoints do.
func Raw(c *gin.Context, status int, body interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, body)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		appErr = appErrors.Clone(appErrors.ErrInternal, "")
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(appErr.Status, Envelope{Data: nil, Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
