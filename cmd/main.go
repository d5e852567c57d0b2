package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/server"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/sqlstore"
	"github.com/vasilis-tsatalis/basic-crud-operations/pkg/config"
)

var logLevel = new(slog.LevelVar)

func setupLogger() {
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}
	logJsonHandler := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(logJsonHandler))
}

func main() {
	logLevel.Set(slog.LevelDebug)
	setupLogger()
	slog.Debug("Logger initialized")

	if err := config.SetupConfigs(); err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	logLevel.Set(config.LogLevel())
	slog.Debug("Config initialized")

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.EnsureDataDir(); err != nil {
		return err
	}

	store, err := sqlstore.Open(ctx, config.DB.Driver, config.GetDBURL(config.DB.Driver))
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Debug("DB pool created successfully")

	if err := store.Bootstrap(ctx); err != nil {
		return err
	}

	if config.LogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + config.API.Port,
		Handler: server.NewRouter(store),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server started", "port", config.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout", config.API.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.API.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
