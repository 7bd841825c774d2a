package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/habitra/import-server-go/internal/config"
	"github.com/habitra/import-server-go/internal/database"
	"github.com/habitra/import-server-go/internal/extract"
	"github.com/habitra/import-server-go/internal/handler"
	"github.com/habitra/import-server-go/internal/jobs"
	"github.com/habitra/import-server-go/internal/middleware"
	"github.com/habitra/import-server-go/internal/ocr"
	"github.com/habitra/import-server-go/internal/redis"
	"github.com/habitra/import-server-go/internal/repository"
	"github.com/habitra/import-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db.DB)
	sessionRepo := repository.NewImportSessionRepository(db.DB)
	unitRepo := repository.NewUnitRepository(db.DB)

	ocrClient := ocr.NewClient(cfg.OCRBaseURL, cfg.OCRAPIKey, cfg.OCRTimeout())
	extractEngine := extract.NewEngine(ocrClient)
	importService := service.NewImportService(sessionRepo, unitRepo, extractEngine)

	authMiddleware := middleware.NewAuthMiddleware(accountRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	templateRateLimit := middleware.NewIPRateLimitMiddleware(config.DefaultRateLimitPerMin, "templates")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodySize)

	importHandler := handler.NewImportHandler(importService)
	templateHandler := handler.NewTemplateHandler()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1/imports", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", importHandler.Routes())
	})

	r.Route("/v1/templates", func(r chi.Router) {
		r.Use(templateRateLimit.Handler)
		r.Mount("/", templateHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, cfg.SessionTTL(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

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
