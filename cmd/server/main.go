// Package main initializes and starts the help-desk backend, setting up
// configuration, logging, the database and Redis connections,
// repositories, services, handlers and the HTTP router.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/config"
	"github.com/atikhonov/helpdesk/internal/db"
	"github.com/atikhonov/helpdesk/internal/logger"
	"github.com/atikhonov/helpdesk/internal/repository"
	"github.com/atikhonov/helpdesk/internal/server/handler/http"
	"github.com/atikhonov/helpdesk/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	zapLogger, _ := logger.New(options.LogLevel)
	defer func() { _ = zapLogger.Sync() }()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Purge soft-deleted tickets in the background.
	db.StartSoftDeleteCleaner(context.Background(), postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Redis holds single-use password-reset tokens.
	rdb, err := repository.NewRedis(options.RedisURL)
	if err != nil {
		zapLogger.Fatal("cannot init redis", zap.Error(err))
	}

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	ticketRepo := repository.NewPostgresTicketRepository(postgresDB)
	resetTokens := repository.NewRedisResetTokenStore(rdb)

	// The websocket hub pushes ticket-change notifications to clients.
	feed := http.NewFeedHub(zapLogger)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, resetTokens, options.JWTSecret, options.AdminEmail)
	ticketService := service.NewTicketService(ticketRepo, feed)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	ticketHandler := &http.TicketHandler{TicketService: ticketService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, ticketHandler, feed, options.JWTSecret, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
