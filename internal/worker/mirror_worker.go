// Package worker applies payment events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"

	"bizdash/internal/amqp"
	"bizdash/internal/core"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/sheets"
	"bizdash/internal/storage"
)

// MirrorWorker keeps the spreadsheet mirror in line with the ledger. Events
// carry ids only; the worker always writes the payment as currently stored,
// so replayed or reordered events converge on the same row.
type MirrorWorker struct {
	payments storage.Collection[core.Payment]
	clients  storage.Collection[core.Client]
	mirror   sheets.PaymentMirror
	logger   *log.Logger
	metrics  *metrics.Metrics
}

func NewMirrorWorker(store storage.Store, mirror sheets.PaymentMirror, logger *log.Logger, m *metrics.Metrics) *MirrorWorker {
	return &MirrorWorker{
		payments: store.Payments(),
		clients:  store.Clients(),
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
		metrics:  m,
	}
}

// HandlePaymentEvent processes a single payment event from AMQP. A returned
// error makes the consumer requeue the message.
func (w *MirrorWorker) HandlePaymentEvent(ctx context.Context, ev amqp.PaymentEvent) error {
	w.logger.InfoContext(ctx, "Processing payment event",
		log.FieldPaymentID, ev.PaymentID,
		"action", ev.Action)

	if ev.Action == string(ledger.ActionDeleted) {
		return w.deleteRow(ctx, ev.PaymentID)
	}

	p, err := w.payments.Get(ctx, ev.PaymentID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		return w.deleteRow(ctx, ev.PaymentID)
	}
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}

	var clientName string
	client, err := w.clients.Get(ctx, p.ClientID)
	switch {
	case err == nil:
		clientName = client.Name
	case errors.Is(err, core.ErrNotFound):
		w.logger.WarnContext(ctx, "Payment references unknown client",
			log.FieldPaymentID, p.ID, log.FieldClientID, p.ClientID)
	default:
		return fmt.Errorf("get client from storage: %w", err)
	}

	err = w.mirror.UpsertRow(ctx, sheets.RowFor(p, clientName))
	w.metrics.MirrorRow("upsert", err)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror payment",
			log.FieldPaymentID, p.ID, log.FieldError, err)
		return fmt.Errorf("mirror payment %s: %w", p.ID, err)
	}

	w.logger.InfoContext(ctx, "Mirrored payment",
		log.NewFields().WithPayment(p).WithOperation(log.OpSync).Args()...)
	return nil
}

func (w *MirrorWorker) deleteRow(ctx context.Context, paymentID string) error {
	err := w.mirror.DeleteRow(ctx, paymentID)
	w.metrics.MirrorRow("delete", err)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to remove mirrored payment",
			log.FieldPaymentID, paymentID, log.FieldError, err)
		return fmt.Errorf("delete mirrored payment %s: %w", paymentID, err)
	}
	w.logger.InfoContext(ctx, "Removed mirrored payment", log.FieldPaymentID, paymentID)
	return nil
}
