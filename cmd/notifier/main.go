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

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/outpasshq/notify/internal/config"
	"github.com/outpasshq/notify/internal/engine"
	"github.com/outpasshq/notify/internal/handlers"
	"github.com/outpasshq/notify/internal/middleware"
	"github.com/outpasshq/notify/internal/migration"
	"github.com/outpasshq/notify/internal/provider/sms"
	"github.com/outpasshq/notify/internal/provider/whatsapp"
	"github.com/outpasshq/notify/internal/routes"
	"github.com/outpasshq/notify/internal/store"
)

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize the data store: Postgres when a database URL is configured,
	// an in-process store otherwise.
	st := openStore(cfg, logger)
	defer st.Close()

	// Select channel backends once; a session never changes providers.
	smsBackend := sms.Select(cfg.SMS, logger)
	waBackend := whatsapp.Select(cfg.WhatsApp, logger)

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := engine.NewRegistry(baseCtx, engine.Deps{
		Store:           st,
		Config:          cfg,
		SMSBackend:      smsBackend,
		WhatsAppBackend: waBackend,
		Logger:          logger,
	})
	defer registry.Shutdown()

	// Initialize the HTTP router and middleware.
	notifHandler := handlers.NewNotificationHandler(st, registry, logger)
	router := routes.NewRouter(notifHandler, cfg.JWTSecret)
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	startServer(corsHandler, cfg.ServerPort, logger)

	logger.Info().Msg("Application terminated.")
}

func openStore(cfg *config.Config, logger zerolog.Logger) store.Store {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("no database_url configured, using in-process store")
		return store.NewMemory(logger)
	}

	pg, err := store.NewPostgres(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	if err := migration.Run(pg.DB(), logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	return pg
}

// startServer launches the HTTP server and handles graceful shutdown.
func startServer(handler http.Handler, port string, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
