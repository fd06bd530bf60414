package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomchat/auth"
	"roomchat/httpapi"
	"roomchat/moderation"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"
	"roomchat/services"
	"roomchat/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and manages the server lifecycle. Returning
// the error to main keeps the defers (database close included) running
// on every exit path.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)
	gin.SetMode(config.GinMode)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewCollector(promRegistry)

	// 4. Core components
	tokens := auth.NewTokenManager(config.JWTSecret, config.JWTExpiration)
	userRepository := repositories.NewUserRepository(db)
	roomRepository := repositories.NewRoomRepository(db)
	messageRepository := repositories.NewMessageRepository(db)

	registry := runtime.NewRegistry(log)
	dispatcher := runtime.NewDispatcher(log, registry, metrics)

	censoredWords, err := moderation.LoadDictionary()
	if err != nil {
		return fmt.Errorf("dictionary loading failed: %w", err)
	}
	charReplacement, err := config.CharacterRune()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	moderator, err := moderation.NewModerator(censoredWords, charReplacement, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	authService := services.NewAuthService(userRepository, tokens, log)
	roomService := services.NewRoomService(roomRepository, registry, log)
	messageService := services.NewMessageService(
		messageRepository, userRepository, roomService, dispatcher, moderator, metrics, log,
	)

	// 5. Transport
	liveController := ws.NewController(
		tokens, userRepository, roomService, messageService,
		registry, dispatcher, metrics, log,
		ws.Options{
			BufferSize:   config.ConnectionBufferSize,
			WriteTimeout: config.WriteTimeout,
			PingPeriod:   config.PingPeriod,
			ReadLimit:    config.ReadLimit,
		},
	)
	router := httpapi.NewRouter(
		httpapi.NewAuthMiddleware(tokens),
		httpapi.NewUserHandler(authService),
		httpapi.NewRoomHandler(roomService),
		httpapi.NewMessageHandler(messageService),
		liveController.Handle,
		promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
	)

	// 6. Serve until a signal or a server error
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: router,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
