// Command billing-worker creates the pending payment of each recurring
// client once its billing day arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bizdash/internal/cli"
	"bizdash/internal/log"
	"bizdash/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "billing-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app, err := cli.Bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger.WithComponent(log.ComponentBilling)
	logger.Info("Starting billing-worker", "interval", app.Config.BillingInterval)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	amqpClient, err := cli.ConnectAMQP(app.Config, logger)
	if err != nil {
		logger.Warn("Continuing without payment events", log.FieldError, err)
		amqpClient = nil
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	// The API's dashboard cache is only reachable through Redis.
	summaries, stopCache, err := cli.SummaryCache(ctx, app.Config, logger)
	if err != nil {
		return err
	}
	defer stopCache()

	reconciler := cli.NewReconciler(app, cli.LedgerNotifiers(app, amqpClient, summaries)...)
	processor := services.NewBillingProcessor(app.Store, reconciler, logger, app.Metrics)
	scheduler := services.NewScheduler(services.BillingJob(processor), services.SchedulerConfig{
		Interval: app.Config.BillingInterval,
		Name:     "billing",
	}, logger)

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return scheduler.Stop(stopCtx)
}
