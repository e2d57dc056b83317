package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"voice-dispatch/internal/config"
	"voice-dispatch/internal/events"
	"voice-dispatch/pkg/logger"
	"voice-dispatch/pkg/middleware"
	"voice-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		return err
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		return err
	}
	defer db.Close()

	publisher, closePublisher, err := openPublisher(rootCtx, cfg)
	if err != nil {
		log.Error("redis init failed", "err", err)
		return err
	}
	defer closePublisher()

	h, err := buildHandlers(cfg, db, publisher)
	if err != nil {
		log.Error("dependency init failed", "err", err)
		return err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	if err := registerRoutes(r, cfg, h); err != nil {
		log.Error("auth init failed", "err", err)
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           middleware.CORS(cfg.CORS.AllowedOrigins)(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Call creation waits on the voice platform, which may take up to the client timeout.
		WriteTimeout: cfg.Retell.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "version", Version, "events", cfg.RedisEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			serveErr <- err
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// openPublisher returns the Redis publisher when Redis is configured, and a
// no-op publisher otherwise.
func openPublisher(ctx context.Context, cfg config.Config) (events.Publisher, func(), error) {
	if !cfg.RedisEnabled() {
		return events.NopPublisher{}, func() {}, nil
	}
	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr(), err)
	}
	return events.NewRedisPublisher(rdb, events.DefaultChannel), func() { _ = rdb.Close() }, nil
}
