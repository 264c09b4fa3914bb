package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bizdash/internal/cli"
	apphttp "bizdash/internal/http"
	"bizdash/internal/log"
	"bizdash/internal/services"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(commandContext(cmd))
		},
	}
}

func serve(parent context.Context) error {
	app, err := cli.Bootstrap(parent)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg, logger := app.Config, app.Logger

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	amqpClient, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		// Payments are stored either way; only the mirror falls behind.
		logger.Warn("Continuing without payment events", log.FieldError, err)
		amqpClient = nil
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	summaries, stopCache, err := cli.SummaryCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopCache()

	cal, err := cli.Calendar(ctx, cfg, logger)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	reconciler := cli.NewReconciler(app, cli.LedgerNotifiers(app, amqpClient, summaries)...)
	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              app.Store,
		Reconciler:         reconciler,
		Agenda:             services.NewAgendaService(app.Store.Tasks(), cal, logger),
		Summaries:          summaries,
		Metrics:            app.Metrics,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Now:                func() time.Time { return time.Now().In(loc) },
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting bizdash server",
			"port", cfg.Port, "backend", cfg.DataBackend, "time_zone", cfg.TimeZone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
