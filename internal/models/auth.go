package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role code of an admin panel user.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "strapi-super-admin"
	RoleEditor     AdminRole = "strapi-editor"
	RoleAuthor     AdminRole = "strapi-author"
)

// AdminUser represents an admin panel account stored in admin_users.
type AdminUser struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password" json:"-"`
	Firstname    string     `db:"firstname" json:"firstname"`
	Lastname     *string    `db:"lastname" json:"lastname"`
	Role         AdminRole  `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	Blocked      bool       `db:"blocked" json:"blocked"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// AdminLoginRequest holds admin panel credentials.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RenewTokenRequest exchanges a valid admin token for a fresh one.
type RenewTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// AdminSession is returned by login and renew.
type AdminSession struct {
	Token string     `json:"token"`
	User  *AdminUser `json:"user,omitempty"`
}

// AdminClaims is the admin JWT payload. RegisteredClaims.ID carries the revocable jti.
type AdminClaims struct {
	AdminID int64     `json:"id"`
	Email   string    `json:"email"`
	Role    AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// AdminInformation describes the admin panel deployment.
type AdminInformation struct {
	PanelPath      string `json:"panelPath"`
	PublicURL      string `json:"url"`
	Environment    string `json:"currentEnvironment"`
	PreviewEnabled bool   `json:"previewEnabled"`
	AutoReload     bool   `json:"autoReload"`
}
