package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/prosthesis-orders/internal/api/rest"
	"github.com/CameronXie/prosthesis-orders/internal/api/rest/handlers"
	"github.com/CameronXie/prosthesis-orders/internal/api/rest/middlewares"
	"github.com/CameronXie/prosthesis-orders/internal/authn"
	"github.com/CameronXie/prosthesis-orders/internal/config"
	"github.com/CameronXie/prosthesis-orders/internal/notifier"
	"github.com/CameronXie/prosthesis-orders/internal/version"
)

const (
	ReadTimeout  = 5 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 120 * time.Second

	StartupTimeout  = 30 * time.Second
	ShutdownTimeout = 15 * time.Second
)

func main() {
	// .env is optional and never overrides the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).With(
		slog.String("version", version.Version),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("api_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("api_stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("api_starting", "port", cfg.Port, "store", cfg.Store.Driver, "mail", cfg.Mail.Provider)

	startCtx, cancel := context.WithTimeout(ctx, StartupTimeout)
	store, err := newStore(startCtx, cfg.Store, cfg.Collection, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	authorizer, err := authn.NewPINAuthorizer(cfg.DeletePIN)
	if err != nil {
		return errors.Join(err, store.Close())
	}

	mailer, err := newNotifier(cfg.Mail, logger)
	if err != nil {
		return errors.Join(fmt.Errorf("initialize notifier: %w", err), store.Close())
	}
	dispatcher := notifier.NewDispatcher(mailer, logger)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: rest.NewRouter(&rest.RouterConfig{
			Collection:          cfg.Collection,
			OrderHandler:        handlers.NewOrderHandler(store, authorizer, dispatcher, logger),
			AllowedOrigins:      cfg.CORSAllowedOrigins,
			RequestLogger:       middlewares.NewRequestLoggerMiddleware(logger),
			RecovererMiddleware: middlewares.NewRecovererMiddleware(logger),
		}),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr, "collection", cfg.Collection)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("api_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}
