package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Host      string
	Port      int
	URL       string
	AppKeys   []string
	PoweredBy string

	Database         DatabaseConfig
	Redis            RedisConfig
	Log              LogConfig
	Admin            AdminConfig
	UsersPermissions UsersPermissionsConfig
	Email            EmailConfig
	Upload           UploadConfig
	Security         SecurityConfig
	CORS             CORSConfig
	Notices          NoticesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AdminConfig configures the admin panel authentication.
type AdminConfig struct {
	JWTSecret      string
	JWTExpiration  time.Duration
	APITokenSalt   string
	PanelPath      string
	PublicURL      string
	PreviewEnabled bool
	AutoReload     bool
}

// UsersPermissionsConfig configures end-user authentication.
type UsersPermissionsConfig struct {
	JWTSecret          string
	JWTExpiration      time.Duration
	AllowedFields      []string
	ResetPasswordURL   string
	ResetTokenLifetime time.Duration
}

// EmailConfig configures the SMTP provider.
type EmailConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	DefaultFrom    string
	DefaultReplyTo string
	Workers        int
	MaxRetries     int
	RetryDelay     time.Duration
}

// UploadConfig configures the S3-compatible media provider.
type UploadConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	BaseDir       string
	SortInStorage bool
	MaxFileSize   int64
	Debug         bool
}

// SecurityConfig holds the security header policy.
type SecurityConfig struct {
	Directives     map[string][]string
	HSTSMaxAge     int
	ReferrerPolicy string
	FrameOptions   string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// NoticesConfig controls the recruitment category split of the notice feeds.
type NoticesConfig struct {
	RecruitPrefix string
	RecruitCodes  []string
}

// cspDirectives lists the directives configurable through CSP_* variables.
var cspDirectives = []string{"connect-src", "script-src", "img-src", "frame-src", "style-src", "media-src"}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Host = v.GetString("HOST")
	cfg.Port = v.GetInt("PORT")
	cfg.URL = v.GetString("URL")
	cfg.AppKeys = splitAndTrim(v.GetString("APP_KEYS"))
	cfg.PoweredBy = v.GetString("POWERED_BY")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	publicURL := v.GetString("PUBLIC_URL")
	if publicURL == "" {
		publicURL = fmt.Sprintf("localhost:%d", cfg.Port)
	}
	cfg.Admin = AdminConfig{
		JWTSecret:      v.GetString("ADMIN_JWT_SECRET"),
		JWTExpiration:  parseDuration(v.GetString("ADMIN_JWT_EXPIRATION"), 24*time.Hour),
		APITokenSalt:   v.GetString("API_TOKEN_SALT"),
		PanelPath:      v.GetString("ADMIN_PATH"),
		PublicURL:      publicURL,
		PreviewEnabled: v.GetBool("ADMIN_PREVIEW_ENABLED"),
		AutoReload:     v.GetBool("ADMIN_AUTO_RELOAD"),
	}

	cfg.UsersPermissions = UsersPermissionsConfig{
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTExpiration:      parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
		AllowedFields:      splitAndTrim(v.GetString("REGISTER_ALLOWED_FIELDS")),
		ResetPasswordURL:   v.GetString("RESET_PASSWORD_URL"),
		ResetTokenLifetime: parseDuration(v.GetString("RESET_PASSWORD_TOKEN_TTL"), time.Hour),
	}

	cfg.Email = EmailConfig{
		Host:           v.GetString("SMTP_HOST"),
		Port:           v.GetInt("SMTP_PORT"),
		Username:       v.GetString("SMTP_USERNAME"),
		Password:       v.GetString("SMTP_PASSWORD"),
		DefaultFrom:    v.GetString("EMAIL_DEFAULT_FROM"),
		DefaultReplyTo: v.GetString("EMAIL_DEFAULT_REPLY_TO"),
		Workers:        v.GetInt("EMAIL_WORKERS"),
		MaxRetries:     v.GetInt("EMAIL_MAX_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("EMAIL_RETRY_DELAY"), 5*time.Second),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 200 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{
		Bucket:        v.GetString("FIREBASE_STORAGE_BUCKET"),
		Endpoint:      v.GetString("UPLOAD_ENDPOINT"),
		Region:        v.GetString("UPLOAD_REGION"),
		AccessKey:     v.GetString("UPLOAD_ACCESS_KEY"),
		SecretKey:     v.GetString("UPLOAD_SECRET_KEY"),
		PublicBaseURL: v.GetString("UPLOAD_PUBLIC_BASE_URL"),
		BaseDir:       v.GetString("UPLOAD_BASE_DIR"),
		SortInStorage: v.GetBool("UPLOAD_SORT_IN_STORAGE"),
		MaxFileSize:   maxUpload,
		Debug:         v.GetBool("UPLOAD_DEBUG"),
	}

	directives := make(map[string][]string, len(cspDirectives))
	for _, name := range cspDirectives {
		key := "CSP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		directives[name] = splitAndTrim(v.GetString(key))
	}
	cfg.Security = SecurityConfig{
		Directives:     directives,
		HSTSMaxAge:     v.GetInt("HSTS_MAX_AGE"),
		ReferrerPolicy: v.GetString("REFERRER_POLICY"),
		FrameOptions:   v.GetString("FRAME_OPTIONS"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins:   splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
	}

	cfg.Notices = NoticesConfig{
		RecruitPrefix: v.GetString("NOTICE_RECRUIT_PREFIX"),
		RecruitCodes:  splitAndTrim(v.GetString("NOTICE_RECRUIT_CODES")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env != EnvProduction {
		return nil
	}
	if c.Admin.JWTSecret == "" || c.Admin.JWTSecret == devSecret {
		return errors.New("ADMIN_JWT_SECRET must be set in production")
	}
	if c.UsersPermissions.JWTSecret == "" || c.UsersPermissions.JWTSecret == devSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Admin.APITokenSalt == "" || c.Admin.APITokenSalt == devSecret {
		return errors.New("API_TOKEN_SALT must be set in production")
	}
	if len(c.AppKeys) == 0 {
		return errors.New("APP_KEYS must be set in production")
	}
	return nil
}

const devSecret = "dev_secret"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 1337)
	v.SetDefault("URL", "")
	v.SetDefault("APP_KEYS", "")
	v.SetDefault("POWERED_BY", "cms-api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("ADMIN_JWT_SECRET", devSecret)
	v.SetDefault("ADMIN_JWT_EXPIRATION", "24h")
	v.SetDefault("API_TOKEN_SALT", devSecret)
	v.SetDefault("ADMIN_PATH", "/dashboard")
	v.SetDefault("PUBLIC_URL", "")
	v.SetDefault("ADMIN_PREVIEW_ENABLED", false)
	v.SetDefault("ADMIN_AUTO_RELOAD", false)

	v.SetDefault("JWT_SECRET", devSecret)
	v.SetDefault("JWT_EXPIRATION", "720h")
	v.SetDefault("REGISTER_ALLOWED_FIELDS", "full_name,contact,today_login,login_ip,ip,nationality,lang")
	v.SetDefault("RESET_PASSWORD_URL", "http://localhost:8598/reset-password")
	v.SetDefault("RESET_PASSWORD_TOKEN_TTL", "1h")

	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("EMAIL_DEFAULT_FROM", "dev.lsw91@gmail.com")
	v.SetDefault("EMAIL_DEFAULT_REPLY_TO", "dev.lsw91@gmail.com")
	v.SetDefault("EMAIL_WORKERS", 2)
	v.SetDefault("EMAIL_MAX_RETRIES", 3)
	v.SetDefault("EMAIL_RETRY_DELAY", "5s")

	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("UPLOAD_ENDPOINT", "https://storage.googleapis.com")
	v.SetDefault("UPLOAD_REGION", "auto")
	v.SetDefault("UPLOAD_ACCESS_KEY", "")
	v.SetDefault("UPLOAD_SECRET_KEY", "")
	v.SetDefault("UPLOAD_PUBLIC_BASE_URL", "")
	v.SetDefault("UPLOAD_BASE_DIR", "portfolio")
	v.SetDefault("UPLOAD_SORT_IN_STORAGE", true)
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 200*1024*1024)
	v.SetDefault("UPLOAD_DEBUG", false)

	v.SetDefault("CSP_CONNECT_SRC", "'self',https://api.github.com,https://proxy-event.ckeditor.com,https:,https://analytics.strapi.io,https://www.google.com")
	v.SetDefault("CSP_SCRIPT_SRC", "'self',https://cdn.ckeditor.com,https://www.google.com,https://www.gstatic.com")
	v.SetDefault("CSP_IMG_SRC", "'self',data:,*,https://analytics.strapi.io")
	v.SetDefault("CSP_FRAME_SRC", "'self',*")
	v.SetDefault("CSP_STYLE_SRC", "'self','unsafe-inline'")
	v.SetDefault("CSP_MEDIA_SRC", "'self',data:,blob:,storage.googleapis.com,http://culturemarketing.co.kr,dl.airtable.com")
	v.SetDefault("HSTS_MAX_AGE", 31536000)
	v.SetDefault("REFERRER_POLICY", "no-referrer")
	v.SetDefault("FRAME_OPTIONS", "SAMEORIGIN")

	v.SetDefault("ALLOWED_ORIGINS", "https://www.culturemarketing.co.kr,https://culturemarketing.co.kr,http://localhost:8598,http://127.0.0.1:8598,https://cmc-renewal.vercel.app,https://storage.googleapis.com,https://www.google.com,firebasestorage.googleapis.com")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)

	v.SetDefault("NOTICE_RECRUIT_PREFIX", "recruit")
	v.SetDefault("NOTICE_RECRUIT_CODES", "recruit-1,recruit-2")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
