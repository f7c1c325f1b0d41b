// Command mailer consumes queued account emails and sends them over SMTP.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/logger"
	"github.com/iliyamo/adopter-login-api/internal/mailer"
	"github.com/iliyamo/adopter-login-api/internal/queue"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-mailer", cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	sender := mailer.NewSMTPSender(cfg, zl)
	if !sender.Configured() {
		zl.Warn("smtp credentials missing, consumed emails will be dropped")
	}
	consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.EmailQueue, mailer.New(mailer.NewRenderer(cfg), sender), zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("consumer stopped", zap.Error(err))
	}
	zl.Info("stopped")
}
