package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodjob/goodjob/internal/config"
	"github.com/goodjob/goodjob/internal/database"
	"github.com/goodjob/goodjob/internal/handler"
	"github.com/goodjob/goodjob/internal/logging"
	"github.com/goodjob/goodjob/internal/metrics"
	"github.com/goodjob/goodjob/internal/queue"
	"github.com/goodjob/goodjob/internal/repository"
	"github.com/goodjob/goodjob/internal/router"
	"github.com/goodjob/goodjob/internal/service"
	"github.com/goodjob/goodjob/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("mysql unavailable")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.WithError(err).Fatal("apply schema")
		}
	}

	// Sessions live only in Redis, so the server cannot run without it.
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		log.WithError(err).Fatal("token issuer misconfigured")
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.EventsURL, log)
	}
	if cfg.EventsConsumer {
		go func() {
			if err := queue.StartMemberConsumer(ctx, cfg.EventsURL, cfg.EventsLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("member consumer stopped")
			}
		}()
	}

	authMetrics := metrics.NewAuth()
	members, err := service.NewMemberService(
		repository.NewMemberRepo(db),
		repository.NewSessionRegistry(rdb, cfg.SessionPrefix),
		issuer, events, authMetrics, log, cfg.BcryptCost,
	)
	if err != nil {
		log.WithError(err).Fatal("member service misconfigured")
	}
	content := service.NewContentService(
		repository.NewArticleRepo(db),
		repository.NewCommentRepo(db),
		repository.NewLikesRepo(db),
		repository.NewJobRepo(db),
		log,
	)

	e := router.New(router.Deps{
		Issuer:  issuer,
		Members: handler.NewMemberHandler(members, handler.NewCookieManager(cfg.CookieSecure, cfg.CookieDomain), log),
		Content: handler.NewContentHandler(content),
		Metrics: authMetrics,
		Redis:   rdb,
		Cache:   config.LoadCacheConfig(),
		Health:  map[string]handler.Pinger{"mysql": db, "redis": router.RedisPinger{Client: rdb}},
		Log:     log,
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		serveErr <- e.Start(addr)
	}()

	select {
	case err := <-serveErr:
		// Returning lets the deferred pool closes run.
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server")
		}
		return
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("stopped")
}
