// Command cleanup purges expired captchas and password reset tokens. It
// runs once and exits; schedule it externally.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/database"
	"github.com/iliyamo/adopter-login-api/internal/logger"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-cleanup", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	stores, closeStores, err := database.OpenStores(cfg, zl)
	if err != nil {
		zl.Fatal("store init failed", zap.Error(err))
	}
	defer closeStores()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	captchas, err := service.NewCaptchaService(stores.Captchas(), cfg, zl).Cleanup(ctx)
	if err != nil {
		zl.Error("captcha cleanup failed", zap.Error(err))
	}
	tokens, err := service.NewPasswordService(stores.Users(), service.NopNotifier{}, cfg, zl).CleanupExpiredTokens(ctx)
	if err != nil {
		zl.Error("reset token cleanup failed", zap.Error(err))
	}
	zl.Info("cleanup done", zap.Int64("captchas", captchas), zap.Int64("reset_tokens", tokens))
}
