package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/database"
	"github.com/iliyamo/adopter-login-api/internal/handler"
	"github.com/iliyamo/adopter-login-api/internal/logger"
	"github.com/iliyamo/adopter-login-api/internal/mailer"
	"github.com/iliyamo/adopter-login-api/internal/queue"
	"github.com/iliyamo/adopter-login-api/internal/router"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

func main() {
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	stores, closeStores, err := database.OpenStores(cfg, zl)
	if err != nil {
		zl.Fatal("store init failed", zap.Error(err))
	}
	defer closeStores()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		zl.Warn("redis unavailable, rate limiting and caching disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var notifier service.Notifier
	if cfg.QueueEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL, cfg.EmailQueue, zl)
		defer pub.Close()
		async := mailer.NewAsyncNotifier(pub, zl)
		defer async.Wait()
		notifier = async
		zl.Info("emails go through the queue", zap.String("queue", cfg.EmailQueue))
	} else {
		async := mailer.NewAsyncNotifier(mailer.New(mailer.NewRenderer(cfg), mailer.NewSMTPSender(cfg, zl)), zl)
		defer async.Wait()
		notifier = async
	}

	captchas := service.NewCaptchaService(stores.Captchas(), cfg, zl)
	passwords := service.NewPasswordService(stores.Users(), notifier, cfg, zl)
	auth := service.NewAuthService(stores.Users(), captchas, passwords, notifier, cfg, zl)
	users := service.NewUserService(stores.Users(), zl)
	orgs := service.NewOrganizationService(stores.Organizations(), stores.Teams(), zl)
	teams := service.NewTeamService(stores.Teams(), stores.Organizations(), zl)

	e := router.New(zl)
	deps := router.Deps{
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       zl,
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(captchas, auth, passwords, zl), deps)
	router.RegisterUsers(e, handler.NewUserHandler(users, zl), deps)
	router.RegisterOrganizations(e, handler.NewOrganizationHandler(orgs, zl), deps)
	router.RegisterTeams(e, handler.NewTeamHandler(teams, zl), deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("store", cfg.Store))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
	zl.Info("stopped")
}
