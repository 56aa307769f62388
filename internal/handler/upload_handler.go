package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/internal/service"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/response"
)

type uploadService interface {
	Upload(ctx context.Context, files []service.UploadFile) ([]models.Entity, error)
	List(ctx context.Context, q models.EntityQuery) ([]models.Entity, models.Pagination, error)
	FindOne(ctx context.Context, id string) (models.Entity, error)
	Remove(ctx context.Context, id string) (models.Entity, error)
}

// UploadHandler serves the media library endpoints. Responses are not enveloped.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(svc uploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Upload godoc
// @Summary Upload files
// @Tags Upload
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Success 201 {array} object
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Files are empty"))
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file "+fh.Filename))
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)
		files = append(files, service.UploadFile{
			Name: fh.Filename,
			MIME: fh.Header.Get("Content-Type"),
			Size: fh.Size,
			Body: f,
		})
	}

	out, err := h.service.Upload(c.Request.Context(), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusCreated, out)
}

// List returns the stored files.
func (h *UploadHandler) List(c *gin.Context) {
	q, err := sanitizeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, _, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, rows)
}

// FindOne returns one stored file.
func (h *UploadHandler) FindOne(c *gin.Context) {
	row, err := h.service.FindOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, row)
}

// Remove deletes a file from storage and the media library.
func (h *UploadHandler) Remove(c *gin.Context) {
	row, err := h.service.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, row)
}
