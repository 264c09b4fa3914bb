package services

import (
	"context"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/cache"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
	"bizdash/internal/metrics"
)

// PaymentEventPublisher is the part of the AMQP client the publisher needs.
type PaymentEventPublisher interface {
	PublishPaymentEvent(ctx context.Context, ev amqp.PaymentEvent) error
}

// EventPublisher announces ledger writes on the message bus. It is a
// ledger.Notifier: a failed publish is logged and never fails the write,
// since the payment is already stored.
type EventPublisher struct {
	client  PaymentEventPublisher
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewEventPublisher creates a publisher. client may be nil when no broker is
// configured; events are then skipped.
func NewEventPublisher(client PaymentEventPublisher, logger *log.Logger, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		client:  client,
		logger:  logger.WithComponent(log.ComponentAMQP),
		metrics: m,
		now:     time.Now,
	}
}

func (p *EventPublisher) PaymentChanged(ctx context.Context, change ledger.Change) {
	if p.client == nil {
		p.logger.DebugContext(ctx, "AMQP client not available, skipping payment event",
			log.FieldPaymentID, change.Payment.ID)
		return
	}

	ev := amqp.PaymentEvent{
		PaymentID: change.Payment.ID,
		ClientID:  change.Payment.ClientID,
		Status:    string(change.Payment.Status),
		Action:    string(change.Action),
		Period:    change.Payment.EffectivePeriod().String(),
		Timestamp: p.now().UTC(),
	}
	err := p.client.PublishPaymentEvent(ctx, ev)
	p.metrics.EventPublished(err)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish payment event",
			log.FieldPaymentID, ev.PaymentID,
			"action", ev.Action,
			log.FieldError, err)
	}
}

// SummaryInvalidator purges cached dashboard summaries after every write.
// Total revenue appears in every summary, so a single write can change all
// of them.
type SummaryInvalidator[T any] struct {
	cache  cache.Cache[T]
	logger *log.Logger
}

func NewSummaryInvalidator[T any](c cache.Cache[T], logger *log.Logger) *SummaryInvalidator[T] {
	return &SummaryInvalidator[T]{cache: c, logger: logger.WithComponent(log.ComponentCache)}
}

func (i *SummaryInvalidator[T]) PaymentChanged(ctx context.Context, change ledger.Change) {
	i.cache.Purge(ctx)
	i.logger.DebugContext(ctx, "Dashboard cache purged", log.FieldPaymentID, change.Payment.ID)
}
