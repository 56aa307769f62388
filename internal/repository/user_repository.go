package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cmc-renewal/cms-api/internal/models"
)

const userColumns = `id, document_id, username, email, provider, password, reset_password_token, reset_password_expires, ` +
	`confirmed, blocked, role, full_name, contact, today_login, login_ip, ip, nationality, lang, created_at, updated_at`

// UserRepository provides database access for users-permissions accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByIdentifier returns a local-provider user by email or username.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM up_users WHERE provider = 'local' AND (LOWER(email) = LOWER($1) OR username = $1) LIMIT 1`
	return r.get(ctx, "find user by identifier", query, identifier)
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM up_users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return r.get(ctx, "find user by email", query, email)
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM up_users WHERE id = $1 LIMIT 1`
	return r.get(ctx, "find user by id", query, id)
}

// FindByResetToken returns the user holding the hashed reset token.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM up_users WHERE reset_password_token = $1 LIMIT 1`
	return r.get(ctx, "find user by reset token", query, tokenHash)
}

func (r *UserRepository) get(ctx context.Context, op, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// ExistsByEmailOrUsername reports whether either value is taken.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM up_users WHERE LOWER(email) = LOWER($1) OR username = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, username); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new user and fills its generated id.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.DocumentID == "" {
		user.DocumentID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `INSERT INTO up_users (document_id, username, email, provider, password, confirmed, blocked, role, full_name, contact, today_login, login_ip, ip, nationality, lang, created_at, updated_at) ` +
		`VALUES (:document_id, :username, :email, :provider, :password, :confirmed, :blocked, :role, :full_name, :contact, :today_login, :login_ip, :ip, :nationality, :lang, :created_at, :updated_at) RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&user.ID); err != nil {
			return fmt.Errorf("scan user id: %w", err)
		}
	}
	return rows.Err()
}

// RecordLogin stores the login address and day.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, ip, day string) error {
	const query = `UPDATE up_users SET login_ip = $2, today_login = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ip, day, time.Now().UTC()); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// SetResetToken stores the hashed reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	const query = `UPDATE up_users SET reset_password_token = $2, reset_password_expires = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tokenHash, expires, time.Now().UTC()); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash and clears any reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE up_users SET password = $2, reset_password_token = NULL, reset_password_expires = NULL, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
