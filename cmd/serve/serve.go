// Package serve runs the blog servers until interrupted.
package serve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/blogstack/internal/api"
	"github.com/isdelr/blogstack/internal/asyncsvc"
	"github.com/isdelr/blogstack/internal/auth"
	"github.com/isdelr/blogstack/internal/config"
	"github.com/isdelr/blogstack/internal/database"
	"github.com/isdelr/blogstack/internal/logger"
	"github.com/isdelr/blogstack/internal/monitoring"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/isdelr/blogstack/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand returns the command that starts every server.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web, API, SOAP and real-time servers plus the async side-service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromCommand(cmd)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), cfg)
		},
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	return database.Open(ctx, cfg.Driver, cfg.DSN())
}

func newSessionStore(ctx context.Context, cfg *config.Config, db *sql.DB) (services.SessionStore, func(), error) {
	if cfg.Session.Backend != "redis" {
		return services.NewSQLSessionStore(db, cfg.Session.TTL), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}
	return services.NewRedisSessionStore(rdb, cfg.Session.TTL), func() { rdb.Close() }, nil
}

// Run starts the servers and blocks until ctx ends or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	sessions, closeSessions, err := newSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Set up services
	userService := services.NewUserService(db)
	postService := services.NewPostService(db)
	commentService := services.NewCommentService(db)
	statsService := services.NewStatsService(db)

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	router := api.NewRouter(api.Deps{
		Users:          userService,
		Posts:          postService,
		Comments:       commentService,
		Stats:          statsService,
		Sessions:       sessions,
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Hub:            hub,
		Logger:         log.Logger,
		AllowedOrigins: cfg.AllowedOrigins,
		PublicURL:      cfg.PublicURL,
		SecureCookies:  cfg.IsProduction(),
	})

	// The side-service reads the same store through its own pool.
	asyncDB, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize async database pool: %w", err)
	}
	defer asyncDB.Close()

	activity, err := asyncsvc.OpenActivityLog(cfg.Async.ActivityLogPath)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	defer activity.Close()

	side := asyncsvc.New(
		services.NewPostService(asyncDB),
		services.NewStatsService(asyncDB),
		asyncsvc.NewProcessor(cfg.Async.ProcessingDelay),
		asyncsvc.NewExternalClient(cfg.Async.ExternalURL, cfg.Async.ExternalFields, cfg.Async.ExternalRateLimit, cfg.Async.ExternalTimeout),
		activity,
		cfg.Async.BatchConcurrency,
	)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(cfg.Schedules, sessions, statsService)
	if err != nil {
		return err
	}
	go scheduler.Run()
	defer scheduler.Stop()

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: router, ReadHeaderTimeout: 10 * time.Second},
		{Addr: fmt.Sprintf(":%d", cfg.AsyncPort), Handler: side.Router(log.Logger, cfg.AllowedOrigins), ReadHeaderTimeout: 10 * time.Second},
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("Server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s: %w", srv.Addr, err)
			}
		}()
	}
	activity.Record("Async server started")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down servers...")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("addr", srv.Addr).Msg("Server forced to shutdown")
		}
	}

	log.Info().Msg("Server exiting")
	return runErr
}
