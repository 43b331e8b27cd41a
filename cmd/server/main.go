package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/api"
	"github.com/Faqih001/Threads-WebApp/internal/api/middleware"
	"github.com/Faqih001/Threads-WebApp/internal/auth"
	"github.com/Faqih001/Threads-WebApp/internal/config"
	"github.com/Faqih001/Threads-WebApp/internal/handlers"
	"github.com/Faqih001/Threads-WebApp/internal/media"
	"github.com/Faqih001/Threads-WebApp/internal/messaging"
	"github.com/Faqih001/Threads-WebApp/internal/realtime"
	"github.com/Faqih001/Threads-WebApp/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize MongoDB store
	mongoStore, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer mongoStore.Close(context.Background())
	logger.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")

	// Initialize Redis store (optional, used for rate limiting)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Realtime gateway
	presence := realtime.NewPresence()
	gateway := realtime.NewGateway(logger, presence)

	// Messaging service, then close the loop so seen-receipts coming in
	// over the socket reach the stores
	uploader := media.NewHTTPUploader(cfg.MediaUploadURL, cfg.MediaUploadPreset)
	msgService := messaging.NewService(mongoStore, mongoStore, uploader, gateway, logger)
	gateway.SetSeenMarker(msgService)

	// HTTP layer
	jwt := auth.NewJWT(cfg.JWTSecret)
	h := handlers.New(handlers.Deps{
		Users:     mongoStore,
		Posts:     mongoStore,
		Messaging: msgService,
		Uploader:  uploader,
		JWT:       jwt,
		DB:        mongoStore,
		Cache:     pingerOrNil(redisStore),
		Logger:    logger,
	})
	authmw := middleware.NewAuthMiddleware(jwt, mongoStore)

	router := api.NewRouter(logger, cfg, h, authmw, redisStore, gateway)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting Threads server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	gateway.Close()

	logger.Info().Msg("server stopped")
}

// pingerOrNil keeps a nil *RedisStore from becoming a non-nil Pinger
// interface in the handler.
func pingerOrNil(s *store.RedisStore) handlers.Pinger {
	if s == nil {
		return nil
	}
	return s
}
