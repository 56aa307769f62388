package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default users-permissions role assigned on registration.
const RoleAuthenticated = "authenticated"

// User is a users-permissions end user stored in up_users.
type User struct {
	ID                   int64      `db:"id" json:"id"`
	DocumentID           string     `db:"document_id" json:"documentId"`
	Username             string     `db:"username" json:"username"`
	Email                string     `db:"email" json:"email"`
	Provider             string     `db:"provider" json:"provider"`
	PasswordHash         string     `db:"password" json:"-"`
	ResetPasswordToken   *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpires *time.Time `db:"reset_password_expires" json:"-"`
	Confirmed            bool       `db:"confirmed" json:"confirmed"`
	Blocked              bool       `db:"blocked" json:"blocked"`
	Role                 string     `db:"role" json:"-"`
	FullName             *string    `db:"full_name" json:"full_name"`
	Contact              *string    `db:"contact" json:"contact"`
	TodayLogin           *string    `db:"today_login" json:"today_login"`
	LoginIP              *string    `db:"login_ip" json:"login_ip"`
	IP                   *string    `db:"ip" json:"ip"`
	Nationality          *string    `db:"nationality" json:"nationality"`
	Lang                 *string    `db:"lang" json:"lang"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// RegisterInput is a validated registration payload. Extra holds the allowed custom fields.
type RegisterInput struct {
	Username string `validate:"required,min=3,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
	Extra    map[string]string
}

// LocalLoginRequest authenticates by email or username.
type LocalLoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Code                 string `json:"code" validate:"required"`
	Password             string `json:"password" validate:"required,min=6,max=72"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

// UserAuthResponse is returned by register, login and reset.
type UserAuthResponse struct {
	JWT  string `json:"jwt"`
	User *User  `json:"user"`
}

// UserClaims is the end-user JWT payload.
type UserClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}
