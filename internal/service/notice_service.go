package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

// NoticeConfig controls how recruit codes split a notice feed.
type NoticeConfig struct {
	RecruitPrefix string
	RecruitCodes  []string
}

// NoticeService lists one notice feed, adding the category filter derived from the recruit code.
type NoticeService struct {
	feed         models.NoticeFeed
	repo         entityStore
	content      *ContentService
	prefix       string
	recruitCodes []string
	logger       *zap.Logger
	metrics      *MetricsService
}

// NewNoticeService constructs a NoticeService for feed.
func NewNoticeService(feed models.NoticeFeed, repo entityStore, content *ContentService, cfg NoticeConfig, logger *zap.Logger, metrics *MetricsService) *NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecruitPrefix == "" {
		cfg.RecruitPrefix = "recruit"
	}
	if len(cfg.RecruitCodes) == 0 {
		cfg.RecruitCodes = []string{"recruit-1", "recruit-2"}
	}
	return &NoticeService{
		feed:         feed,
		repo:         repo,
		content:      content,
		prefix:       cfg.RecruitPrefix,
		recruitCodes: cfg.RecruitCodes,
		logger:       logger.With(zap.String("feed", feed.Name)),
		metrics:      metrics,
	}
}

// Feed returns the feed served by the service.
func (s *NoticeService) Feed() models.NoticeFeed {
	return s.feed
}

// ResolveCategoryFilter derives the category filter for recruitCode.
// An empty code excludes recruitment categories, a recognised code selects that category,
// and any other code yields no filter without querying categories.
func (s *NoticeService) ResolveCategoryFilter(ctx context.Context, recruitCode string) (filter.Expr, error) {
	relation := s.feed.CategoryRelation
	nameField := s.feed.CategoryNameField()

	switch {
	case recruitCode == "":
		names, err := s.categoryNames(ctx, filter.StartsWith("code", s.prefix))
		if err != nil {
			return nil, err
		}
		s.metrics.RecordCategoryResolution(s.feed.Name, models.CategoryModeGeneral)
		return filter.Or{filter.IsNull(relation), filter.NotIn(nameField, names)}, nil

	case lo.Contains(s.recruitCodes, recruitCode):
		names, err := s.categoryNames(ctx, filter.Eq("code", recruitCode))
		if err != nil {
			return nil, err
		}
		s.metrics.RecordCategoryResolution(s.feed.Name, models.CategoryModeRecruit)
		return filter.In(nameField, names), nil
	}

	s.logger.Warn("unrecognized recruit code, listing without category filter", zap.String("recruit_code", recruitCode))
	s.metrics.RecordCategoryResolution(s.feed.Name, models.CategoryModeUnrecognized)
	return nil, nil
}

func (s *NoticeService) categoryNames(ctx context.Context, where filter.Expr) ([]string, error) {
	start := time.Now()
	categories, err := s.repo.FindMany(ctx, s.feed.CategoryUID, models.EntityQuery{
		Filters: where,
		Fields:  []string{"name"},
	})
	s.metrics.ObserveDBQuery(s.feed.CategoryUID+".findMany", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve notice categories")
	}
	return lo.Map(categories, func(c models.Entity, _ int) string { return c.String("name") }), nil
}

// List resolves the category filter, composes it with the caller's filters and returns one page.
func (s *NoticeService) List(ctx context.Context, recruitCode string, q models.EntityQuery) ([]models.Entity, models.Pagination, error) {
	category, err := s.ResolveCategoryFilter(ctx, recruitCode)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	composed := filter.Compose(q.Filters, category)
	if ce := s.logger.Check(zap.DebugLevel, "notice filters composed"); ce != nil {
		ce.Write(
			zap.String("recruit_code", recruitCode),
			zap.String("base_filters", renderFilter(q.Filters)),
			zap.String("category_filter", renderFilter(category)),
			zap.String("filters", renderFilter(composed)),
		)
	}

	q.Filters = composed
	return s.content.Find(ctx, s.feed.NoticeUID, q)
}

// FindOne returns one notice of the feed. The category filter does not apply.
func (s *NoticeService) FindOne(ctx context.Context, id string, q models.EntityQuery) (models.Entity, error) {
	return s.content.FindOne(ctx, s.feed.NoticeUID, id, q)
}

func renderFilter(e filter.Expr) string {
	raw, err := json.Marshal(filter.ToMap(e))
	if err != nil {
		return ""
	}
	return string(raw)
}
