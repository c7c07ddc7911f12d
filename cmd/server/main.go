// Command server runs the message board HTTP API.
//
// Startup order: .env, config, logging, tracing, SQLite (idempotency
// records), store actor, router, HTTP server. Shutdown runs in reverse: the
// HTTP server drains in-flight requests first, then the store actor answers
// whatever is still queued and exits.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-message-board/internal/config"
	httpapi "github.com/tbourn/go-message-board/internal/http"
	"github.com/tbourn/go-message-board/internal/observability"
	"github.com/tbourn/go-message-board/internal/repo"
	"github.com/tbourn/go-message-board/internal/store"
	"github.com/tbourn/go-message-board/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title       Message Board API
// @version     1.0
// @description In-memory message board: posts, likes, reactions and report-driven bans.
// @BasePath    /api/v1
func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty, os.Stdout)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	if sysutil.IsTruthy(os.Getenv("OTEL_SDK_DISABLED")) {
		cfg.OTEL.Enabled = false
	}
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion,
		attribute.Int("board.mailbox_size", cfg.MailboxSize),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.DBPath).Msg("open sqlite")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if !repo.IsMemoryDSN(cfg.DBPath) {
		n, err := repo.ResetIdempotency(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("reset idempotency records")
		}
		log.Info().Int64("removed", n).Str("dsn", cfg.DBPath).Msg("idempotency records reset for new board")
	}
	purgeDone := make(chan struct{})
	go purgeIdempotency(ctx, db, cfg.IdempotencyTTL, purgeDone)

	engine := store.NewEngine(store.WithLogger(logger.With().Str("component", "engine").Logger()))
	actor := store.NewActor(engine, cfg.MailboxSize, store.WithLogger(logger.With().Str("component", "actor").Logger()))
	go actor.Run(context.Background())

	r := gin.New()
	httpapi.RegisterRoutes(r, db, actor, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("base_path", cfg.APIBasePath).
			Int("mailbox", cfg.MailboxSize).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	actor.Stop()
	select {
	case <-actor.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("store actor did not stop in time")
	}

	stop()
	<-purgeDone

	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}

// purgeIdempotency deletes expired idempotency records every ttl/2 (at
// least once a minute) until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB, ttl time.Duration, done chan<- struct{}) {
	defer close(done)

	every := ttl / 2
	if every <= 0 || every > time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency records")
			}
		}
	}
}
