package models

import "time"

// APITokenType is the access scope of an API token.
type APITokenType string

const (
	APITokenReadOnly   APITokenType = "read-only"
	APITokenFullAccess APITokenType = "full-access"
)

// APIToken is a content API access token. The key is stored as a salted digest.
type APIToken struct {
	ID          int64        `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Type        APITokenType `db:"type" json:"type"`
	AccessKey   string       `db:"access_key" json:"-"`
	Lifespan    *int64       `db:"lifespan" json:"lifespan"`
	ExpiresAt   *time.Time   `db:"expires_at" json:"expiresAt"`
	LastUsedAt  *time.Time   `db:"last_used_at" json:"lastUsedAt"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the token is past its expiry at now.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// CreateAPITokenRequest creates a token. Lifespan is in milliseconds; nil never expires.
type CreateAPITokenRequest struct {
	Name        string       `json:"name" validate:"required,max=100"`
	Description string       `json:"description" validate:"max=256"`
	Type        APITokenType `json:"type" validate:"required,oneof=read-only full-access"`
	Lifespan    *int64       `json:"lifespan" validate:"omitempty,oneof=604800000 2592000000 7776000000"`
}

// APITokenWithKey is returned once, on creation.
type APITokenWithKey struct {
	*APIToken
	AccessKey string `json:"accessKey"`
}

// Principal is the caller of a content API request.
type Principal struct {
	Kind     string
	ID       int64
	Role     string
	Token    *APIToken
	ReadOnly bool
}

// Principal kinds.
const (
	PrincipalPublic   = "public"
	PrincipalAPIToken = "api-token"
	PrincipalUser     = "user"
)
