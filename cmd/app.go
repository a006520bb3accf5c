package main

import (
	"context"
	"errors"
	"time"

	"edubot/config"
	"edubot/internal/domain"
	"edubot/internal/repository"
	"edubot/internal/stream"
	"edubot/internal/usecase"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errAdminOnly = errors.New("This action requires an ADMIN account.")

// app is the wired client: store, gateway and usecases.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	gateway  domain.Gateway
	revealer *stream.Revealer
	auth     domain.AuthUsecase
	content  domain.ContentUsecase
	chat     domain.ChatUsecase
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	db, err := config.OpenStore(cfg.StoreDSN)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	gateway := repository.NewGatewayRepository(cfg.APIBaseURL, nil, log.Named("gateway"))
	session := repository.NewSessionRepository(db)
	files := repository.NewFileSource()

	revealer := stream.New(
		time.Duration(cfg.Stream.WordDelayMS)*time.Millisecond,
		time.Duration(cfg.Stream.SentenceDelayMS)*time.Millisecond,
	)

	// Initialize usecases
	auth := usecase.NewAuthUsecase(gateway, session, log.Named("auth"))
	content := usecase.NewContentUsecase(gateway, auth, files, log.Named("content"))
	chat := usecase.NewChatUsecase(gateway, auth, revealer, log.Named("chat"))

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		gateway:  gateway,
		revealer: revealer,
		auth:     auth,
		content:  content,
		chat:     chat,
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// online fails fast when no gateway URL is configured.
func (a *app) online() error {
	return a.cfg.Validate()
}

// requireAdmin returns the current profile if it is an admin.
func (a *app) requireAdmin(ctx context.Context) (*domain.Profile, error) {
	p, err := a.auth.Current(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role != domain.RoleAdmin {
		return nil, errAdminOnly
	}
	return p, nil
}
