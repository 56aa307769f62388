package service

import (
	"context"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dchest/uniuri"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/storage"
)

type fileRepository interface {
	FindOne(ctx context.Context, uid, id string, q models.EntityQuery) (models.Entity, error)
	Create(ctx context.Context, uid string, values models.Entity) (models.Entity, error)
	Delete(ctx context.Context, uid string, id int64) error
}

// UploadFile is one file received by the upload endpoint.
type UploadFile struct {
	Name string
	MIME string
	Size int64
	Body io.Reader
}

// UploadConfig configures media storage.
type UploadConfig struct {
	Keys        storage.KeyBuilder
	MaxFileSize int64
}

// UploadService stores media on the configured provider and records it in the files collection.
type UploadService struct {
	repo     fileRepository
	content  *ContentService
	provider storage.Provider
	config   UploadConfig
	logger   *zap.Logger
	metrics  *MetricsService
	now      func() time.Time
}

// NewUploadService constructs an UploadService.
func NewUploadService(repo fileRepository, content *ContentService, provider storage.Provider, config UploadConfig, logger *zap.Logger, metrics *MetricsService) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		repo:     repo,
		content:  content,
		provider: provider,
		config:   config,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Upload stores every file and returns the created file records.
func (s *UploadService) Upload(ctx context.Context, files []UploadFile) ([]models.Entity, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Files are empty")
	}
	for _, f := range files {
		if s.config.MaxFileSize > 0 && f.Size > s.config.MaxFileSize {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, f.Name+" exceeds size limit")
		}
	}

	out := make([]models.Entity, 0, len(files))
	for _, f := range files {
		entity, err := s.store(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return s.content.SanitizeOutput(models.FileUID, out), nil
}

func (s *UploadService) store(ctx context.Context, f UploadFile) (models.Entity, error) {
	ext := strings.ToLower(path.Ext(f.Name))
	hash := fileHash(strings.TrimSuffix(f.Name, path.Ext(f.Name)))
	key := s.config.Keys.Build(hash, ext, f.MIME, s.now())

	url, err := s.provider.Put(ctx, storage.Object{Key: key, Body: f.Body, Size: f.Size, ContentType: f.MIME})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	entity, err := s.repo.Create(ctx, models.FileUID, models.Entity{
		"name":       f.Name,
		"hash":       hash,
		"ext":        ext,
		"mime":       f.MIME,
		"size":       kilobytes(f.Size),
		"url":        url,
		"provider":   s.provider.Name(),
		"folderPath": "/",
		"objectKey":  key,
	})
	if err != nil {
		if delErr := s.provider.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, mapStoreError(err, "failed to record file")
	}

	s.metrics.RecordUpload(s.provider.Name(), storage.Kind(f.MIME))
	s.logger.Info("file uploaded", zap.String("key", key), zap.Int64("size", f.Size))
	return entity, nil
}

// List returns one page of uploaded files.
func (s *UploadService) List(ctx context.Context, q models.EntityQuery) ([]models.Entity, models.Pagination, error) {
	return s.content.Find(ctx, models.FileUID, q)
}

// FindOne returns one uploaded file.
func (s *UploadService) FindOne(ctx context.Context, id string) (models.Entity, error) {
	return s.content.FindOne(ctx, models.FileUID, id, models.EntityQuery{})
}

// Remove deletes the stored object and its file record, returning the removed record.
func (s *UploadService) Remove(ctx context.Context, id string) (models.Entity, error) {
	numeric, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	file, err := s.repo.FindOne(ctx, models.FileUID, id, models.EntityQuery{})
	if err != nil {
		return nil, mapStoreError(err, "failed to load file")
	}

	if key := file.String("objectKey"); key != "" {
		if err := s.provider.Delete(ctx, key); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stored object")
		}
	}
	if err := s.repo.Delete(ctx, models.FileUID, numeric); err != nil {
		return nil, mapStoreError(err, "failed to delete file")
	}
	s.logger.Info("file removed", zap.Int64("file_id", numeric))
	return s.content.SanitizeOutput(models.FileUID, []models.Entity{file})[0], nil
}

// fileHash slugs name and appends a random suffix, e.g. "team_photo_a1b2c3d4e5".
func fileHash(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	suffix := strings.ToLower(uniuri.NewLen(10))
	if slug == "" {
		return suffix
	}
	return slug + "_" + suffix
}

func kilobytes(size int64) float64 {
	return math.Round(float64(size)/1024*100) / 100
}
