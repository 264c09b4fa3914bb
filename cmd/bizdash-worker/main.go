// Command bizdash-worker mirrors payment events from AMQP into the payment
// spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bizdash/internal/cli"
	"bizdash/internal/log"
	"bizdash/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bizdash-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app, err := cli.Bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting bizdash-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	amqpClient, err := cli.ConnectAMQP(app.Config, logger)
	if err != nil {
		return err
	}
	if amqpClient == nil {
		return errors.New("AMQP_URL is required by the worker")
	}
	defer amqpClient.Close()

	mirror, err := cli.Mirror(ctx, app.Config, logger)
	if err != nil {
		return err
	}

	w := worker.NewMirrorWorker(app.Store, mirror, logger, app.Metrics)
	err = amqpClient.ConsumePaymentEvents(ctx, w.HandlePaymentEvent)
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker shutdown complete")
		return nil
	}
	return err
}
