package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/tokens"
)

type apiTokenRepository interface {
	List(ctx context.Context) ([]models.APIToken, error)
	FindByAccessKey(ctx context.Context, hash string) (*models.APIToken, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, token *models.APIToken) error
	Delete(ctx context.Context, id int64) error
	TouchLastUsed(ctx context.Context, id int64, ts time.Time) error
}

const accessKeyBytes = 128

// APITokenService manages content API tokens. Keys are only stored as salted digests.
type APITokenService struct {
	repo      apiTokenRepository
	hasher    *tokens.Hasher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAPITokenService constructs an APITokenService.
func NewAPITokenService(repo apiTokenRepository, hasher *tokens.Hasher, validate *validator.Validate, logger *zap.Logger) *APITokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &APITokenService{repo: repo, hasher: hasher, validator: validate, logger: logger, now: time.Now}
}

// List returns every token without its key.
func (s *APITokenService) List(ctx context.Context) ([]models.APIToken, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list api tokens")
	}
	return list, nil
}

// Create issues a token. The plaintext key is only part of this response.
func (s *APITokenService) Create(ctx context.Context, req models.CreateAPITokenRequest) (*models.APITokenWithKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid api token payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check api token name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Name already taken")
	}

	key, err := tokens.Generate(accessKeyBytes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access key")
	}

	token := &models.APIToken{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AccessKey:   s.hasher.Hash(key),
		Lifespan:    req.Lifespan,
	}
	if req.Lifespan != nil {
		expires := s.now().UTC().Add(time.Duration(*req.Lifespan) * time.Millisecond)
		token.ExpiresAt = &expires
	}

	if err := s.repo.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create api token")
	}
	s.logger.Info("api token created", zap.Int64("token_id", token.ID), zap.String("type", string(token.Type)))
	return &models.APITokenWithKey{APIToken: token, AccessKey: key}, nil
}

// Revoke deletes the token with id.
func (s *APITokenService) Revoke(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "api token not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete api token")
	}
	return nil
}

// Authenticate resolves a plaintext key into its token.
func (s *APITokenService) Authenticate(ctx context.Context, key string) (*models.APIToken, error) {
	if key == "" {
		return nil, appErrors.ErrUnauthorized
	}
	token, err := s.repo.FindByAccessKey(ctx, s.hasher.Hash(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load api token")
	}
	now := s.now().UTC()
	if token.Expired(now) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Token expired")
	}
	if err := s.repo.TouchLastUsed(ctx, token.ID, now); err != nil {
		s.logger.Warn("failed to record api token usage", zap.Int64("token_id", token.ID), zap.Error(err))
	}
	return token, nil
}
