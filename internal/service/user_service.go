package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/mailer"
	"github.com/cmc-renewal/cms-api/pkg/tokens"
)

type userRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	RecordLogin(ctx context.Context, id int64, ip, day string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type mailQueue interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// UserConfig configures end-user authentication.
type UserConfig struct {
	Secret             string
	Expiry             time.Duration
	AllowedFields      []string
	ResetPasswordURL   string
	ResetTokenLifetime time.Duration
}

// registerCoreFields are always accepted on registration.
var registerCoreFields = []string{"username", "email", "password"}

// UserService implements the users-permissions local provider.
type UserService struct {
	repo      userRepository
	mail      mailQueue
	hasher    *tokens.Hasher
	validator *validator.Validate
	logger    *zap.Logger
	config    UserConfig
	now       func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, mail mailQueue, hasher *tokens.Hasher, validate *validator.Validate, logger *zap.Logger, config UserConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 30 * 24 * time.Hour
	}
	if config.ResetTokenLifetime <= 0 {
		config.ResetTokenLifetime = time.Hour
	}
	return &UserService{repo: repo, mail: mail, hasher: hasher, validator: validate, logger: logger, config: config, now: time.Now}
}

// ParseRegistration accepts the core fields plus the configured custom fields; any other key is rejected.
func (s *UserService) ParseRegistration(body map[string]interface{}) (models.RegisterInput, error) {
	input := models.RegisterInput{Extra: map[string]string{}}
	for key, raw := range body {
		core := lo.Contains(registerCoreFields, key)
		if !core && !lo.Contains(s.config.AllowedFields, key) {
			return models.RegisterInput{}, appErrors.Clone(appErrors.ErrValidation, "Invalid parameters")
		}
		value, err := scalarString(raw)
		if err != nil {
			return models.RegisterInput{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a string", key))
		}
		switch key {
		case "username":
			input.Username = value
		case "email":
			input.Email = strings.ToLower(value)
		case "password":
			input.Password = value
		default:
			input.Extra[key] = value
		}
	}
	return input, nil
}

func scalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported value %T", v)
}

// Register creates a confirmed local user and signs them in.
func (s *UserService) Register(ctx context.Context, input models.RegisterInput) (*models.UserAuthResponse, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	taken, err := s.repo.ExistsByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user")
	}
	if taken {
		return nil, appErrors.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		Provider:     "local",
		PasswordHash: string(hash),
		Confirmed:    true,
		Role:         models.RoleAuthenticated,
	}
	applyExtraFields(user, input.Extra)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return s.respond(user)
}

func applyExtraFields(user *models.User, extra map[string]string) {
	targets := map[string]**string{
		"full_name":   &user.FullName,
		"contact":     &user.Contact,
		"today_login": &user.TodayLogin,
		"login_ip":    &user.LoginIP,
		"ip":          &user.IP,
		"nationality": &user.Nationality,
		"lang":        &user.Lang,
	}
	for key, value := range extra {
		if target, ok := targets[key]; ok {
			v := value
			*target = &v
		}
	}
}

// Login authenticates by email or username and records the login address and day.
func (s *UserService) Login(ctx context.Context, req models.LocalLoginRequest) (*models.UserAuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, appErrors.ErrBlockedAccount
	}

	day := s.now().Format("2006-01-02")
	if err := s.repo.RecordLogin(ctx, user.ID, req.IP, day); err != nil {
		s.logger.Warn("failed to record user login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LoginIP = &req.IP
		user.TodayLogin = &day
	}
	return s.respond(user)
}

// Me returns the user identified by the token claims.
func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Blocked {
		return nil, appErrors.ErrBlockedAccount
	}
	return user, nil
}

// ForgotPassword emails a reset code. Unknown addresses succeed silently.
func (s *UserService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.Blocked {
		return nil
	}

	code, err := tokens.Generate(64)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset code")
	}
	expires := s.now().UTC().Add(s.config.ResetTokenLifetime)
	if err := s.repo.SetResetToken(ctx, user.ID, s.hasher.Hash(code), expires); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reset code")
	}

	link := s.resetLink(code)
	if _, err := s.mail.Send(ctx, mailer.Message{
		To:      []string{user.Email},
		Subject: "Reset password",
		Text:    "We heard that you lost your password. Use the following link to reset it:\n\n" + link,
		HTML:    `<p>We heard that you lost your password. Sorry about that!</p><p>Use the following link to reset it:</p><p><a href="` + link + `">` + link + `</a></p>`,
	}); err != nil {
		return err
	}
	return nil
}

func (s *UserService) resetLink(code string) string {
	u, err := url.Parse(s.config.ResetPasswordURL)
	if err != nil || s.config.ResetPasswordURL == "" {
		return code
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// ResetPassword sets a new password using a reset code and signs the user in.
func (s *UserService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.UserAuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		if strings.Contains(err.Error(), "eqfield") {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Passwords do not match")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	user, err := s.repo.FindByResetToken(ctx, s.hasher.Hash(req.Code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Incorrect code provided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user.ResetPasswordExpires != nil && !s.now().Before(*user.ResetPasswordExpires) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Incorrect code provided")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	return s.respond(user)
}

// ValidateToken parses an end-user JWT.
func (s *UserService) ValidateToken(tokenString string) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *UserService) respond(user *models.User) (*models.UserAuthResponse, error) {
	issuedAt := s.now().UTC()
	claims := &models.UserClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	return &models.UserAuthResponse{JWT: signed, User: user}, nil
}
