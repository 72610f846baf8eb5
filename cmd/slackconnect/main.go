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
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/slackconnect/slackconnect/internal/auth"
	"github.com/slackconnect/slackconnect/internal/dispatcher"
	"github.com/slackconnect/slackconnect/internal/messaging"
	"github.com/slackconnect/slackconnect/internal/platform/config"
	"github.com/slackconnect/slackconnect/internal/platform/crypto"
	"github.com/slackconnect/slackconnect/internal/platform/database"
	"github.com/slackconnect/slackconnect/internal/platform/logger"
	pgrepo "github.com/slackconnect/slackconnect/internal/repository/postgres"
	"github.com/slackconnect/slackconnect/internal/scheduling"
	"github.com/slackconnect/slackconnect/internal/slackgw"
	transporthttp "github.com/slackconnect/slackconnect/internal/transport/http"
)

const serviceName = "slackconnect"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(serviceName, cfg.LogLevel)
	appLogger.Info("Configuration loaded", "server_port", cfg.ServerPort, "poll_interval", cfg.DispatchPollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	dbPool, err := database.NewDBPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer dbPool.Close()
	appLogger.InfoContext(ctx, "Database connection pool established")

	if err := database.EnsureSchema(ctx, dbPool); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	tokenCipher, err := crypto.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("initializing token cipher: %w", err)
	}

	userRepo := pgrepo.NewPgUserRepository(dbPool, tokenCipher, appLogger)
	messageRepo := pgrepo.NewPgMessageRepository(dbPool, appLogger)

	gateway := slackgw.NewWebAPIGateway(appLogger, cfg.SlackClientID, cfg.SlackClientSecret, cfg.SlackRedirectURI, cfg.GatewayTimeout)

	sessions := auth.NewSessionManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	states := auth.NewStateStore(10 * time.Minute)
	authSvc := auth.NewService(auth.Config{
		ClientID:    cfg.SlackClientID,
		RedirectURI: cfg.SlackRedirectURI,
		FrontendURL: cfg.FrontendURL,
	}, states, userRepo, gateway, sessions, appLogger)

	schedulingSvc := scheduling.NewService(messageRepo, userRepo, appLogger)
	messagingSvc := messaging.NewService(userRepo, gateway, appLogger)

	disp := dispatcher.New(messageRepo, userRepo, gateway, appLogger, dispatcher.Config{
		PollInterval:   cfg.DispatchPollInterval,
		BatchSize:      cfg.DispatchBatchSize,
		GatewayTimeout: cfg.GatewayTimeout,
		RatePerSec:     cfg.SlackRateLimitPerSec,
		RateBurst:      cfg.SlackRateLimitBurst,
	})

	validate := validator.New()
	router := transporthttp.NewRouter(
		transporthttp.NewAuthHandler(authSvc, appLogger),
		transporthttp.NewMessageHandler(messagingSvc, appLogger, validate),
		transporthttp.NewScheduledHandler(schedulingSvc, appLogger, validate),
		authSvc,
		appLogger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.InfoContext(gCtx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		appLogger.Info("Shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return disp.Run(gCtx)
	})

	return g.Wait()
}
