package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/cmc-renewal/cms-api/internal/handler"
	"github.com/cmc-renewal/cms-api/internal/middleware"
	"github.com/cmc-renewal/cms-api/internal/models"
	"github.com/cmc-renewal/cms-api/internal/repository"
	"github.com/cmc-renewal/cms-api/internal/service"
	"github.com/cmc-renewal/cms-api/pkg/config"
	"github.com/cmc-renewal/cms-api/pkg/logger"
	"github.com/cmc-renewal/cms-api/pkg/mailer"
	corsmiddleware "github.com/cmc-renewal/cms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cmc-renewal/cms-api/pkg/middleware/requestid"
	securitymiddleware "github.com/cmc-renewal/cms-api/pkg/middleware/security"
	"github.com/cmc-renewal/cms-api/pkg/response"
	"github.com/cmc-renewal/cms-api/pkg/storage"
	"github.com/cmc-renewal/cms-api/pkg/tokens"
)

// dependencies are the external resources the router is assembled over.
type dependencies struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sqlx.DB
	sessions *repository.SessionRepository
	provider storage.Provider
	sender   mailer.Sender
}

// application is the assembled router plus the background services main must start and stop.
type application struct {
	router *gin.Engine
	email  *service.EmailService
}

func newApplication(deps dependencies) *application {
	cfg, logr := deps.cfg, deps.logger
	validate := validator.New()
	metrics := service.NewMetricsService()
	registry := models.DefaultRegistry()

	entities := repository.NewEntityRepository(deps.db, registry)
	content := service.NewContentService(entities, registry, logr, metrics)
	noticeCfg := service.NoticeConfig{RecruitPrefix: cfg.Notices.RecruitPrefix, RecruitCodes: cfg.Notices.RecruitCodes}
	notices := service.NewNoticeService(models.NoticeFeedKo, entities, content, noticeCfg, logr, metrics)
	noticesEn := service.NewNoticeService(models.NoticeFeedEn, entities, content, noticeCfg, logr, metrics)

	emailSvc := service.NewEmailService(deps.sender, service.EmailConfig{
		Workers:    cfg.Email.Workers,
		MaxRetries: cfg.Email.MaxRetries,
		RetryDelay: cfg.Email.RetryDelay,
	}, validate, logr, metrics)

	hasher := tokens.NewHasher(cfg.Admin.APITokenSalt)
	authSvc := service.NewAuthService(repository.NewAdminRepository(deps.db), deps.sessions, validate, logr, service.AuthConfig{
		Secret: cfg.Admin.JWTSecret,
		Expiry: cfg.Admin.JWTExpiration,
		Issuer: "cms-api",
	})
	apiTokenSvc := service.NewAPITokenService(repository.NewAPITokenRepository(deps.db), hasher, validate, logr)
	userSvc := service.NewUserService(repository.NewUserRepository(deps.db), emailSvc, hasher, validate, logr, service.UserConfig{
		Secret:             cfg.UsersPermissions.JWTSecret,
		Expiry:             cfg.UsersPermissions.JWTExpiration,
		AllowedFields:      cfg.UsersPermissions.AllowedFields,
		ResetPasswordURL:   cfg.UsersPermissions.ResetPasswordURL,
		ResetTokenLifetime: cfg.UsersPermissions.ResetTokenLifetime,
	})
	uploadSvc := service.NewUploadService(entities, content, deps.provider, service.UploadConfig{
		Keys:        storage.KeyBuilder{BaseDir: cfg.Upload.BaseDir, SortInStorage: cfg.Upload.SortInStorage},
		MaxFileSize: cfg.Upload.MaxFileSize,
	}, logr, metrics)

	noticeHandler := handler.NewNoticeHandler(notices)
	noticeEnHandler := handler.NewNoticeHandler(noticesEn)
	categoryHandler := handler.NewCollectionHandler(models.CategoryUID, content)
	categoryEnHandler := handler.NewCollectionHandler(models.CategoryEnUID, content)
	authHandler := handler.NewAuthHandler(authSvc, models.AdminInformation{
		PanelPath:      cfg.Admin.PanelPath,
		PublicURL:      cfg.Admin.PublicURL,
		Environment:    cfg.Env,
		PreviewEnabled: cfg.Admin.PreviewEnabled,
		AutoReload:     cfg.Admin.AutoReload,
	})
	apiTokenHandler := handler.NewAPITokenHandler(apiTokenSvc)
	userHandler := handler.NewUserHandler(userSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	emailHandler := handler.NewEmailHandler(emailSvc)
	contentTypeHandler := handler.NewContentTypeHandler(service.NewContentTypeService(registry))
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]func(context.Context) error{
		"database": deps.db.PingContext,
		"sessions": deps.sessions.Ping,
	})

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.ForRequest(c, logr).Error("panic recovered", zap.Any("panic", recovered))
		response.Error(c, fmt.Errorf("panic: %v", recovered))
	}))
	r.Use(securitymiddleware.New(securitymiddleware.Options{
		Directives:     cfg.Security.Directives,
		HSTSMaxAge:     cfg.Security.HSTSMaxAge,
		ReferrerPolicy: cfg.Security.ReferrerPolicy,
		FrameOptions:   cfg.Security.FrameOptions,
	}))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))
	r.Use(securitymiddleware.PoweredBy(cfg.PoweredBy))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if local, ok := deps.provider.(*storage.LocalProvider); ok {
		r.Static("/uploads", local.Dir())
	}

	authLimit := middleware.RateLimit(10, 5)

	api := r.Group("/api")
	api.Use(middleware.ContentAuth(apiTokenSvc, userSvc))
	{
		api.GET("/notices", noticeHandler.List)
		api.GET("/notices/:id", noticeHandler.FindOne)
		api.GET("/notice-ens", noticeEnHandler.List)
		api.GET("/notice-ens/:id", noticeEnHandler.FindOne)
		api.GET("/categories", categoryHandler.Find)
		api.GET("/categories/:id", categoryHandler.FindOne)
		api.GET("/category-ens", categoryEnHandler.Find)
		api.GET("/category-ens/:id", categoryEnHandler.FindOne)

		api.POST("/auth/local/register", authLimit, userHandler.Register)
		api.POST("/auth/local", authLimit, userHandler.Login)
		api.POST("/auth/forgot-password", authLimit, userHandler.ForgotPassword)
		api.POST("/auth/reset-password", authLimit, userHandler.ResetPassword)
		api.GET("/users/me", middleware.RequireUser(), userHandler.Me)

		upload := api.Group("/upload", middleware.RequireAuthenticated())
		upload.POST("", middleware.RequireWriteAccess(), middleware.Audit(logr, "create", "file"), uploadHandler.Upload)
		upload.GET("/files", uploadHandler.List)
		upload.GET("/files/:id", uploadHandler.FindOne)
		upload.DELETE("/files/:id", middleware.RequireWriteAccess(), middleware.Audit(logr, "delete", "file"), uploadHandler.Remove)

		ctb := api.Group("/content-type-builder")
		ctb.GET("/content-types", contentTypeHandler.ContentTypes)
		ctb.GET("/content-types/:uid", contentTypeHandler.ContentType)
		ctb.GET("/components", contentTypeHandler.Components)
		ctb.GET("/components/:uid", contentTypeHandler.Component)
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", authLimit, authHandler.Login)
		admin.POST("/renew-token", authLimit, authHandler.RenewToken)
		admin.GET("/information", authHandler.Information)

		secured := admin.Group("", middleware.AdminJWT(authSvc))
		secured.POST("/logout", authHandler.Logout)
		secured.GET("/users/me", authHandler.Me)

		super := secured.Group("", middleware.RequireAdminRoles())
		super.GET("/api-tokens", apiTokenHandler.List)
		super.POST("/api-tokens", middleware.Audit(logr, "create", "api-token"), apiTokenHandler.Create)
		super.DELETE("/api-tokens/:id", middleware.Audit(logr, "delete", "api-token"), apiTokenHandler.Revoke)
		super.POST("/email/test", middleware.Audit(logr, "send", "email"), emailHandler.SendTest)
	}

	return &application{router: r, email: emailSvc}
}
