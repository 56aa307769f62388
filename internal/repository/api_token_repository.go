package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cmc-renewal/cms-api/internal/models"
)

const apiTokenColumns = `id, name, description, type, access_key, lifespan, expires_at, last_used_at, created_at, updated_at`

// APITokenRepository provides database access for content API tokens.
type APITokenRepository struct {
	db *sqlx.DB
}

// NewAPITokenRepository creates a new instance of APITokenRepository.
func NewAPITokenRepository(db *sqlx.DB) *APITokenRepository {
	return &APITokenRepository{db: db}
}

// List returns all tokens ordered by creation.
func (r *APITokenRepository) List(ctx context.Context) ([]models.APIToken, error) {
	const query = `SELECT ` + apiTokenColumns + ` FROM api_tokens ORDER BY created_at ASC, id ASC`
	tokens := make([]models.APIToken, 0)
	if err := r.db.SelectContext(ctx, &tokens, query); err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	return tokens, nil
}

// FindByAccessKey returns the token whose hashed key matches.
func (r *APITokenRepository) FindByAccessKey(ctx context.Context, hash string) (*models.APIToken, error) {
	const query = `SELECT ` + apiTokenColumns + ` FROM api_tokens WHERE access_key = $1 LIMIT 1`
	var token models.APIToken
	if err := r.db.GetContext(ctx, &token, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find api token: %w", err)
	}
	return &token, nil
}

// ExistsByName reports whether a token with name exists.
func (r *APITokenRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM api_tokens WHERE name = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check api token name: %w", err)
	}
	return exists, nil
}

// Create inserts token and fills its generated id.
func (r *APITokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now
	const query = `INSERT INTO api_tokens (name, description, type, access_key, lifespan, expires_at, created_at, updated_at) ` +
		`VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &token.ID, query,
		token.Name, token.Description, token.Type, token.AccessKey, token.Lifespan, token.ExpiresAt, now, now); err != nil {
		return fmt.Errorf("create api token: %w", err)
	}
	return nil
}

// Delete removes a token; it returns sql.ErrNoRows when none matched.
func (r *APITokenRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api token rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchLastUsed records token usage.
func (r *APITokenRepository) TouchLastUsed(ctx context.Context, id int64, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("touch api token: %w", err)
	}
	return nil
}
