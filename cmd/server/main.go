package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/law-comments-api/internal/api"
	"github.com/law-comments-api/internal/auth"
	"github.com/law-comments-api/internal/cache"
	"github.com/law-comments-api/internal/config"
	"github.com/law-comments-api/internal/database"
	"github.com/law-comments-api/internal/notify"
	"github.com/law-comments-api/internal/ratelimit"
	"github.com/law-comments-api/internal/repository"
	"github.com/law-comments-api/internal/service"
	"github.com/law-comments-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Law Comments API server...")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Storage.DocumentSeedPath != "" {
		doc, err := repository.LoadDocumentSeed(cfg.Storage.DocumentSeedPath)
		if err != nil {
			return err
		}
		if err := repos.Document.Save(ctx, doc); err != nil {
			return fmt.Errorf("save seeded document: %w", err)
		}
		log.Info().Str("document_id", doc.ID).Int("paragraphs", len(doc.Paragraphs)).Msg("Active document seeded")
	}

	// Redis backs the distributed limiter and the stats cache when configured
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable at startup")
		}
	}

	rule := ratelimit.Rule{Limit: cfg.RateLimit.MaxPerWindow, Window: cfg.RateLimit.Window}
	var limiter ratelimit.Checker
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(rdb, rule, log)
	} else {
		memLimiter := ratelimit.NewLimiter(rule, ratelimit.WithLogger(log))
		memLimiter.StartReclaimer(ctx, cfg.RateLimit.ReclaimInterval)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	var statsCache service.StatsCache = cache.NewMemoryStats(cfg.Abuse.StatsCacheTTL)
	if rdb != nil {
		statsCache = cache.NewRedisStats(rdb, cfg.Abuse.StatsCacheTTL, log)
	}

	revalidator, closeTargets, err := openRevalidator(cfg, log)
	if err != nil {
		return err
	}
	defer closeTargets()

	if cfg.Auth.AdminJWTSecret == "" {
		log.Warn().Msg("ADMIN_JWT_SECRET is not set, every admin request will be refused")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, service.Dependencies{
		Limiter:     limiter,
		Authorizer:  auth.NewJWTAuthorizer(cfg.Auth.AdminJWTSecret),
		Revalidator: revalidator,
		StatsCache:  statsCache,
	}, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore opens the configured comment and document store
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repository.Repositories, func(), error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage, comments are lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run database migrations: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repository.New(db), func() { db.Close() }, nil
}

// openRevalidator builds the revalidation fan-out from the configured targets
func openRevalidator(cfg *config.Config, log zerolog.Logger) (*notify.Multi, func(), error) {
	targets := []notify.Target{notify.NewLogTarget(log)}
	closeFn := func() {}

	if cfg.Revalidate.NATSURL != "" {
		nt, err := notify.NewNATSTarget(cfg.Revalidate.NATSURL, cfg.Revalidate.Subject, cfg.Revalidate.Timeout, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to nats: %w", err)
		}
		targets = append(targets, nt)
		closeFn = func() {
			if err := nt.Close(); err != nil {
				log.Warn().Err(err).Msg("NATS drain failed")
			}
		}
	}
	if cfg.Revalidate.WebhookURL != "" {
		targets = append(targets, notify.NewWebhookTarget(cfg.Revalidate.WebhookURL, cfg.Revalidate.Timeout, log))
	}

	multi := notify.NewMulti(log, targets...)
	log.Info().Strs("targets", multi.Targets()).Msg("Revalidation targets configured")
	return multi, closeFn, nil
}
