package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/cmc-renewal/cms-api/api/swagger"
	"github.com/cmc-renewal/cms-api/internal/repository"
	"github.com/cmc-renewal/cms-api/pkg/cache"
	"github.com/cmc-renewal/cms-api/pkg/config"
	"github.com/cmc-renewal/cms-api/pkg/database"
	"github.com/cmc-renewal/cms-api/pkg/logger"
	"github.com/cmc-renewal/cms-api/pkg/mailer"
	"github.com/cmc-renewal/cms-api/pkg/storage"
)

// @title CMS API
// @version 1.0.0
// @description Headless content API with category-filtered notice feeds
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, admin token revocation kept in memory", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	provider, err := newProvider(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init upload provider", zap.Error(err))
	}

	app := newApplication(dependencies{
		cfg:      cfg,
		logger:   logr,
		db:       db,
		sessions: repository.NewSessionRepository(redisClient, logr),
		provider: provider,
		sender:   mailer.NewSMTP(cfg.Email),
	})
	// Stopped after the server drains, not on signal.
	app.email.Start(context.Background())

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upload_provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	app.email.Stop()
}

// newProvider stores media in the configured bucket, or on local disk when no bucket is set.
func newProvider(ctx context.Context, cfg *config.Config, logr *zap.Logger) (storage.Provider, error) {
	if cfg.Upload.Bucket == "" {
		local, err := storage.NewLocalProvider("", "")
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	client, err := storage.NewS3Client(ctx, cfg.Upload)
	if err != nil {
		return nil, err
	}
	return storage.NewS3Provider(client, cfg.Upload, logr), nil
}
