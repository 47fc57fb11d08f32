package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/annetmii/annetmii-english-camp/internal/cache"
	"github.com/annetmii/annetmii-english-camp/internal/config"
	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/database"
	"github.com/annetmii/annetmii-english-camp/internal/handlers"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/progress"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

const (
	sessionCleanupInterval = time.Hour
	roundEvictionInterval  = 5 * time.Minute
	limiterPruneInterval   = 10 * time.Minute
	shutdownTimeout        = 15 * time.Second
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations(ctx)
	if err != nil {
		return err
	}
	log.Info("migrations completed", "applied", applied)

	catalog, err := content.Load(cfg.ContentPath)
	if err != nil {
		return err
	}
	log.Info("scene catalog loaded", "scenes", catalog.MaxScene())

	cursor, err := newCursorCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cursor.Close()

	roles, err := security.ParseRoleMap(cfg.RoleMap, cfg.CoachEmails)
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	// Initialize services
	resolver := progress.NewResolver(submissionRepo, cursor, log)
	authService := service.NewAuthService(userRepo, roles, security.NewTokenSigner(cfg.JWTSecret), cfg.SessionDuration, log)
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		return err
	}
	roundService := service.NewRoundService(catalog, submissionRepo, resolver, log)
	submissionService := service.NewSubmissionService(submissionRepo, userRepo, resolver, emailService, log)

	oauthProviders := map[string]handlers.OAuthProvider{}
	if google, ok := handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret); ok {
		oauthProviders[google.Name] = google
	}

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	router := handlers.NewRouter(handlers.RouterDeps{
		Middleware:  handlers.NewMiddleware(authService, csrf, limiter, log),
		Auth:        handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL, log),
		Scenes:      handlers.NewSceneHandler(catalog, resolver, log),
		Rounds:      handlers.NewRoundHandler(roundService, log),
		Submissions: handlers.NewSubmissionHandler(submissionService, log),
		CORSOrigins: cfg.CORSOrigins,
		Ping:        db.PingContext,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		roundService.RunEviction(gctx, roundEvictionInterval, cfg.RoundSessionTTL)
		return nil
	})

	g.Go(func() error {
		limiter.Run(gctx, limiterPruneInterval)
		return nil
	})

	g.Go(func() error {
		cleanupExpiredSessions(gctx, authService, log)
		return nil
	})

	return g.Wait()
}

// newCursorCache uses Redis when configured and an in-process map otherwise
func newCursorCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.CursorCache, error) {
	if cfg.RedisURL == "" {
		log.Info("progress cursor cache: memory")
		return cache.NewMemory(), nil
	}
	rc, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	log.Info("progress cursor cache: redis")
	return rc, nil
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService, log *logger.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.CleanupExpiredSessions(ctx)
			if err != nil {
				log.Error("failed to clean up expired sessions", "error", err)
				continue
			}
			log.Debug("expired sessions cleaned up", "removed", removed)
		}
	}
}
