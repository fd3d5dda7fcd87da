package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/poker-server-go/internal/config"
	"github.com/openclaw/poker-server-go/internal/database"
	"github.com/openclaw/poker-server-go/internal/handler"
	"github.com/openclaw/poker-server-go/internal/jobs"
	"github.com/openclaw/poker-server-go/internal/middleware"
	"github.com/openclaw/poker-server-go/internal/redis"
	"github.com/openclaw/poker-server-go/internal/repository"
	"github.com/openclaw/poker-server-go/internal/service"
	"github.com/openclaw/poker-server-go/internal/tracker"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	healthChecks := map[string]handler.Pinger{}

	var (
		sessionRepo repository.SessionRepository
		voteRepo    repository.VoteRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := repository.NewMemoryStore()
		sessionRepo, voteRepo = store, store
		log.Warn().Msg("using in-memory store, sessions are lost on restart")
	default:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		cancel()
		log.Info().Msg("database connected")

		sessionRepo = repository.NewSessionRepository(db.DB)
		voteRepo = repository.NewVoteRepository(db.DB)
		healthChecks["database"] = db
	}

	var (
		locker  service.ItemLocker
		limiter middleware.Limiter = middleware.NewRateLimiter()
	)
	if cfg.UseRedis() {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		locker = redis.NewItemLocker(redisClient.Client, config.ItemLockTTL, config.ItemLockWait)
		limiter = middleware.NewRedisRateLimiter(redisClient.Client)
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var (
		permissions tracker.PermissionChecker
		field       tracker.EstimateField
	)
	if cfg.UseJira() {
		jira := tracker.NewJiraClient(tracker.JiraConfig{
			BaseURL:       cfg.JiraBaseURL,
			Username:      cfg.JiraUsername,
			APIToken:      cfg.JiraAPIToken,
			EstimateField: cfg.JiraEstimateField,
			Timeout:       config.TrackerRequestTimeout,
		})
		permissions, field = jira, jira
		log.Info().Str("baseUrl", cfg.JiraBaseURL).Msg("using jira tracker")
	} else {
		static := tracker.NewStaticTracker(cfg.AllowedEditors)
		permissions, field = static, static
		log.Info().Int("editors", len(cfg.AllowedEditors)).Msg("using static tracker")
	}

	sessionService := service.NewSessionService(sessionRepo, locker, cfg.SessionWindow)
	voteService := service.NewVoteService(voteRepo)
	estimateService := service.NewEstimateService(field)

	identityMiddleware := middleware.NewIdentityMiddleware(cfg.IdentitySecret)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.VoteRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	pokerServices := handler.Services{
		Sessions:     sessionService,
		Votes:        voteService,
		Estimates:    estimateService,
		Permissions:  permissions,
		AllowedVotes: cfg.AllowedVoteValues(),
	}
	healthHandler := handler.NewHealthHandler(healthChecks)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/v1/items/{itemKey}/poker", func(r chi.Router) {
		r.Use(identityMiddleware.Handler)
		r.Mount("/", handler.PokerRoutes(pokerServices, rateLimitMiddleware.Handler))
	})

	retentionJob := jobs.NewRetentionJob(sessionRepo, cfg.SessionRetention, config.RetentionJobInterval)
	retentionJob.Start()
	defer retentionJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
