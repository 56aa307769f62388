package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

type entityStore interface {
	FindMany(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, error)
	FindPage(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, models.Pagination, error)
	FindOne(ctx context.Context, uid, id string, q models.EntityQuery) (models.Entity, error)
}

// ContentService implements the core find and findOne actions of a collection.
type ContentService struct {
	repo     entityStore
	registry *models.Registry
	policy   *bluemonday.Policy
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewContentService constructs a ContentService.
func NewContentService(repo entityStore, registry *models.Registry, logger *zap.Logger, metrics *MetricsService) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		repo:     repo,
		registry: registry,
		policy:   bluemonday.UGCPolicy(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Find returns one sanitized page of uid.
func (s *ContentService) Find(ctx context.Context, uid string, q models.EntityQuery) ([]models.Entity, models.Pagination, error) {
	if _, ok := s.registry.ContentType(uid); !ok {
		return nil, models.Pagination{}, unknownCollection(uid)
	}
	start := time.Now()
	entities, pagination, err := s.repo.FindPage(ctx, uid, q)
	s.metrics.ObserveDBQuery(uid+".findPage", time.Since(start))
	if err != nil {
		return nil, models.Pagination{}, mapStoreError(err, "failed to query "+uid)
	}
	return s.SanitizeOutput(uid, entities), pagination, nil
}

// FindOne returns the sanitized record of uid identified by id.
func (s *ContentService) FindOne(ctx context.Context, uid, id string, q models.EntityQuery) (models.Entity, error) {
	if _, ok := s.registry.ContentType(uid); !ok {
		return nil, unknownCollection(uid)
	}
	start := time.Now()
	entity, err := s.repo.FindOne(ctx, uid, id, q)
	s.metrics.ObserveDBQuery(uid+".findOne", time.Since(start))
	if err != nil {
		return nil, mapStoreError(err, "failed to load "+uid)
	}
	out := s.SanitizeOutput(uid, []models.Entity{entity})
	return out[0], nil
}

// SanitizeOutput strips private attributes and cleans rich text, following populated relations.
func (s *ContentService) SanitizeOutput(uid string, entities []models.Entity) []models.Entity {
	ct, ok := s.registry.ContentType(uid)
	if !ok {
		return entities
	}
	out := make([]models.Entity, len(entities))
	for i, e := range entities {
		out[i] = s.sanitizeEntity(ct, e)
	}
	return out
}

func (s *ContentService) sanitizeEntity(ct *models.ContentType, e models.Entity) models.Entity {
	if e == nil {
		return nil
	}
	clean := make(models.Entity, len(e))
	for name, v := range e {
		attr, ok := ct.Attribute(name)
		if !ok || attr.Private {
			continue
		}
		switch {
		case attr.Type == models.AttrRichText:
			if html, ok := v.(string); ok {
				v = s.policy.Sanitize(html)
			}
		case attr.Type == models.AttrRelation:
			if nested, ok := v.(models.Entity); ok {
				if target, ok := s.registry.ContentType(attr.Target); ok {
					v = s.sanitizeEntity(target, nested)
				}
			}
		}
		clean[name] = v
	}
	return clean
}

// mapStoreError keeps typed errors and wraps everything else as an internal error.
func mapStoreError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func unknownCollection(uid string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown collection %s", uid))
}
